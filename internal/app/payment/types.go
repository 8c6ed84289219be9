package payment

type CheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	CheckoutRef string `json:"checkout_ref"`
}

// SettleResult reports what a completion did. AlreadySettled is true when
// the payment had been completed by an earlier delivery and nothing changed.
type SettleResult struct {
	CheckoutRef    string   `json:"checkout_ref"`
	IdentityID     string   `json:"identity_id"`
	ChipsCredited  int64    `json:"chips_credited"`
	Balance        int64    `json:"balance"`
	AlreadySettled bool     `json:"already_settled"`
	Achievements   []string `json:"achievements,omitempty"`
}
