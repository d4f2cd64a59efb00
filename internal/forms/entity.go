// CanineKind | 2026
// entity.go

package forms

import "time"

// Obligation is an admin-assigned form an account must sign before the
// curriculum surface opens up.
type Obligation struct {
	AccountID  string    `db:"account_id" json:"accountId"`
	FormID     string    `db:"form_id" json:"formId"`
	AssignedAt time.Time `db:"assigned_at" json:"assignedAt"`
	AssignedBy string    `db:"assigned_by" json:"assignedBy"`
	Order      int       `db:"sort_order" json:"order"`
}

type Signature struct {
	AccountID   string    `db:"account_id" json:"accountId"`
	FormID      string    `db:"form_id" json:"formId"`
	SignerName  string    `db:"signer_name" json:"signerName"`
	SignedAt    time.Time `db:"signed_at" json:"signedAt"`
	ArtifactRef string    `db:"artifact_ref" json:"artifactRef"`
}

// ObligationStatus pairs an obligation with its signature, if any.
type ObligationStatus struct {
	Obligation Obligation `json:"obligation"`
	Signature  *Signature `json:"signature"`
	Signed     bool       `json:"signed"`
}
