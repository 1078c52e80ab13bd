package dto

// CheckoutFormData is the optional submission pre-fill carried through
// checkout so it can be restored once payment completes.
type CheckoutFormData struct {
	FullName        string `json:"full_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Age             int    `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Region          string `json:"region,omitempty"`
	ClubAffiliation string `json:"club_affiliation,omitempty"`
	PullUpCount     int    `json:"pull_up_count,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
}

type CheckoutRequest struct {
	Plan     string            `json:"plan"`
	Email    string            `json:"email"`
	FormData *CheckoutFormData `json:"formData,omitempty"`
}

type CheckoutResponse struct {
	SessionID  string `json:"sessionId"`
	URL        string `json:"url"`
	// ClaimToken is returned once, by the checkout that created a guest account.
	ClaimToken string `json:"claimToken,omitempty"`
}

type CancelSubscriptionRequest struct {
	UserID string `json:"userId"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type AccessResponse struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}
