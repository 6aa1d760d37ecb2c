package models

import "github.com/shopspring/decimal"

// CreateSessionRequest is the body of POST /session. The fiat price is a
// server-side constant, so the client only supplies an optional referral code.
type CreateSessionRequest struct {
	ReferralCode string `json:"referralCode,omitempty"`
}

// CreateSessionResponse carries everything the payer's wallet needs to
// construct the transfer. No private material exists server-side.
type CreateSessionResponse struct {
	SessionId        string          `json:"sessionId"`
	ReferenceKey     string          `json:"referenceKey"`
	TokenAmount      decimal.Decimal `json:"tokenAmount"`
	RecipientAddress string          `json:"recipientAddress"`
}

// SessionStatusResponse is the body of GET /session/{sessionId}/status.
// InstallCommand is only populated once the payment has been confirmed.
type SessionStatusResponse struct {
	Confirmed      bool   `json:"confirmed"`
	InstallCommand string `json:"installCommand,omitempty"`
}

// CreateReferralRequest is the body of POST /referral (admin only).
type CreateReferralRequest struct {
	Secret        string `json:"secret"`
	Code          string `json:"code"`
	Name          string `json:"name,omitempty"`
	ContactHandle string `json:"contactHandle,omitempty"`
}

// ReferralClickRequest is the body of POST /referral/click.
type ReferralClickRequest struct {
	Code string `json:"code"`
}

// ReferralStatsResponse is a referral record plus the derived payout estimate.
type ReferralStatsResponse struct {
	Referral
	EstimatedEarnings int64 `json:"estimatedEarnings"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
