package integrity

import "time"

// ChainStatus summarizes one chain's verification outcome.
type ChainStatus string

const (
	StatusOK            ChainStatus = "ok"
	StatusCorrupted     ChainStatus = "corrupted"
	StatusNoData        ChainStatus = "no_data"
	StatusNotConfigured ChainStatus = "not_configured"
)

// ChainReport is the verification result of one (journal, prefix) chain.
type ChainReport struct {
	JournalID   int64       `json:"journalId"`
	JournalCode string      `json:"journalCode"`
	Prefix      string      `json:"prefix"`
	Status      ChainStatus `json:"status"`
	Message     string      `json:"message,omitempty"`

	HashedCount int64  `json:"hashedCount"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`

	FirstDate *time.Time `json:"firstDate,omitempty"`
	LastDate  *time.Time `json:"lastDate,omitempty"`
}

// Report is a full integrity verification run.
type Report struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	CompanyID   int64         `json:"companyId,omitempty"`
	Chains      []ChainReport `json:"chains"`
}

// Clean reports whether no chain failed verification.
func (r *Report) Clean() bool {
	for _, c := range r.Chains {
		if c.Status == StatusCorrupted {
			return false
		}
	}
	return true
}
