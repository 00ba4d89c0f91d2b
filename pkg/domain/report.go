package domain

// Report flags a paste for moderation. PasteID is a weak reference: the
// paste may expire or be deleted while the report stays behind.
type Report struct {
	ID            int64  `json:"id"`
	PasteID       string `json:"pasteId"`
	DecryptionKey string `json:"decryptionKey"`
	Reason        string `json:"reason"`
	CreatedAt     int64  `json:"createdAt"`
}

type ReportPage struct {
	Total   int64    `json:"total"`
	Page    int64    `json:"page"`
	Pages   int64    `json:"pages"`
	Reports []Report `json:"reports"`
}
