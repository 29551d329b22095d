// Package transactions defines the persisted per-authentication session
// record and its storage contract.
package transactions

// Transaction is one authentication attempt. It is created by /auth,
// mutated by every challenge round, and frozen once a terminal status is
// reached.
type Transaction struct {
	ID                string `json:"id"`
	AcsTransID        string `json:"acsTransID"`
	SDKTransID        string `json:"sdkTransID,omitempty"`
	CardExpiryDate    string `json:"cardExpiryDate,omitempty"`
	PurchaseAmount    string `json:"purchaseAmount,omitempty"`
	PurchaseCurrency  string `json:"purchaseCurrency,omitempty"`
	NotificationURL   string `json:"notificationURL,omitempty"`
	MessageVersion    string `json:"messageVersion,omitempty"`
	SharedKey         []byte `json:"sharedKey,omitempty"`
	AcsCounterAtoS    int    `json:"acsCounterAtoS"`
	OTPTryCount       int    `json:"otpTryCount"`
	TransStatus       string `json:"transStatus"`
	TransStatusReason string `json:"transStatusReason,omitempty"`
	ChallengeCancel   string `json:"challengeCancel,omitempty"`
	CreatedAt         int64  `json:"createdAt"`
}

// Terminal reports whether the transaction reached a final status. Terminal
// transactions accept no further mutation; callers open a new transaction
// to retry.
func (t *Transaction) Terminal() bool {
	switch t.TransStatus {
	case "Y", "N", "R":
		return true
	}
	return false
}

// Clone returns a deep copy, so callers can compute the next state without
// aliasing the stored record.
func (t *Transaction) Clone() *Transaction {
	clone := *t
	if t.SharedKey != nil {
		clone.SharedKey = append([]byte(nil), t.SharedKey...)
	}
	return &clone
}
