package domain

// Paste is an opaque record: every encrypted_* field is ciphertext produced by
// the client and is stored and served verbatim. ExpiresAt is epoch seconds,
// nil means the paste never expires.
type Paste struct {
	ID                  string `json:"id"`
	EncryptedTitle      string `json:"encryptedTitle"`
	EncryptedContent    string `json:"encryptedContent"`
	EncryptedSyntaxType string `json:"encryptedSyntaxType"`
	DeletionKeyHash     string `json:"-"`
	ExpiresAt           *int64 `json:"expiresAt"`
	CreatedAt           int64  `json:"createdAt"`
}

// Live reports whether the paste is visible at the given time. Expired rows
// that the sweeper has not removed yet must behave exactly like deleted ones.
func (p *Paste) Live(at int64) bool {
	return p.ExpiresAt == nil || *p.ExpiresAt > at
}

type CreateParams struct {
	EncryptedTitle      string
	EncryptedContent    string
	EncryptedSyntaxType string
	ExpiresAt           *int64
}
