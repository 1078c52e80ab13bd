package models

import "testing"

func TestProfileDetailsClearAddress(t *testing.T) {
	cols := ProfileDetails{FullName: "Jordan Lee"}.Columns()
	for _, col := range []string{"street_address", "apartment", "city", "state", "zip_code", "country"} {
		v, ok := cols[col]
		if !ok || v != "" {
			t.Errorf("column %s = %v, %v; want blanked", col, v, ok)
		}
	}
}
