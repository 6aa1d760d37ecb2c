package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session statuses. A session only ever moves pending -> confirmed.
const (
	SessionPending   = "pending"
	SessionConfirmed = "confirmed"
)

// Session represents a single purchase attempt. The token amount is
// locked at creation time from the oracle rate; a late confirmation
// never changes the amount owed.
type Session struct {
	Id           string          `json:"sessionId"`
	ReferenceKey string          `json:"referenceKey"`
	TokenAmount  decimal.Decimal `json:"tokenAmount"`
	ReferralCode string          `json:"referralCode,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Confirmed reports whether the session has been paid.
func (s *Session) Confirmed() bool {
	return s.Status == SessionConfirmed
}

// Referral represents one affiliate. Counters only ever grow.
type Referral struct {
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ContactHandle string    `json:"contactHandle"`
	Clicks        int64     `json:"clicks"`
	Conversions   int64     `json:"conversions"`
	CreatedAt     time.Time `json:"createdAt"`
}
