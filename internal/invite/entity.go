// CanineKind | 2026
// entity.go

package invite

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusExpired  = "expired"
	StatusRevoked  = "revoked"
)

// Invitation stores only the hash of its token; the raw token leaves the
// system once, inside the invitation email.
type Invitation struct {
	ID         string     `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	Name       string     `db:"name" json:"name"`
	TokenHash  string     `db:"token_hash" json:"-"`
	Status     string     `db:"status" json:"status"`
	CreatedBy  string     `db:"created_by" json:"createdBy"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expiresAt"`
	AcceptedBy *string    `db:"accepted_by" json:"acceptedBy"`
	AcceptedAt *time.Time `db:"accepted_at" json:"acceptedAt"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records every outbound invitation email attempt.
type EmailLog struct {
	ID         string    `db:"id" json:"id"`
	Recipient  string    `db:"recipient" json:"recipient"`
	Subject    string    `db:"subject" json:"subject"`
	Status     string    `db:"status" json:"status"`
	ProviderID string    `db:"provider_id" json:"providerId"`
	Error      string    `db:"error" json:"error"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
