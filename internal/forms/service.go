// CanineKind | 2026
// service.go

package forms

import (
	"context"
	"fmt"

	"github.com/caninekind/portal-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Assign(
	ctx context.Context,
	accountID, formID, assignedBy string,
	order int,
) (*Obligation, error) {
	if accountID == "" || formID == "" {
		return nil, fmt.Errorf("assign form: %w", core.ErrInvalidInput)
	}

	obligation := &Obligation{
		AccountID:  accountID,
		FormID:     formID,
		AssignedBy: assignedBy,
		Order:      order,
	}
	if err := s.repo.Assign(ctx, obligation); err != nil {
		return nil, err
	}

	return obligation, nil
}

func (s *Service) Unassign(ctx context.Context, accountID, formID string) error {
	return s.repo.Unassign(ctx, accountID, formID)
}

// Sign records the signature for an assigned form. Signing twice keeps the
// first signature untouched.
func (s *Service) Sign(
	ctx context.Context,
	accountID, formID, signerName, artifactRef string,
) (*Signature, error) {
	if _, err := s.repo.GetObligation(ctx, accountID, formID); err != nil {
		return nil, err
	}

	return s.repo.SaveSignature(ctx, &Signature{
		AccountID:   accountID,
		FormID:      formID,
		SignerName:  signerName,
		ArtifactRef: artifactRef,
	})
}

func (s *Service) Obligations(
	ctx context.Context,
	accountID string,
) ([]ObligationStatus, error) {
	obligations, err := s.repo.ListObligations(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sigs, err := s.repo.ListSignatures(ctx, accountID)
	if err != nil {
		return nil, err
	}

	signed := make(map[string]*Signature, len(sigs))
	for i := range sigs {
		signed[sigs[i].FormID] = &sigs[i]
	}

	statuses := make([]ObligationStatus, 0, len(obligations))
	for _, obligation := range obligations {
		sig := signed[obligation.FormID]
		statuses = append(statuses, ObligationStatus{
			Obligation: obligation,
			Signature:  sig,
			Signed:     sig != nil,
		})
	}

	return statuses, nil
}

// DocumentsComplete reports whether every assigned form carries a
// signature. No assignments means trivially complete.
func (s *Service) DocumentsComplete(
	ctx context.Context,
	accountID string,
) (bool, error) {
	statuses, err := s.Obligations(ctx, accountID)
	if err != nil {
		return false, err
	}

	for _, status := range statuses {
		if !status.Signed {
			return false, nil
		}
	}

	return true, nil
}
