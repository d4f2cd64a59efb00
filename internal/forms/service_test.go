// CanineKind | 2026
// service_test.go

package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninekind/portal-api/internal/core"
)

type obligationKey struct {
	accountID string
	formID    string
}

type stubRepository struct {
	obligations map[obligationKey]*Obligation
	signatures  map[obligationKey]*Signature
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		obligations: make(map[obligationKey]*Obligation),
		signatures:  make(map[obligationKey]*Signature),
	}
}

func (s *stubRepository) Assign(_ context.Context, obligation *Obligation) error {
	obligation.AssignedAt = time.Now()
	stored := *obligation
	s.obligations[obligationKey{obligation.AccountID, obligation.FormID}] = &stored
	return nil
}

func (s *stubRepository) Unassign(_ context.Context, accountID, formID string) error {
	key := obligationKey{accountID, formID}
	if _, ok := s.obligations[key]; !ok {
		return core.ErrNotFound
	}
	delete(s.obligations, key)
	return nil
}

func (s *stubRepository) ListObligations(
	_ context.Context,
	accountID string,
) ([]Obligation, error) {
	var out []Obligation
	for key, obligation := range s.obligations {
		if key.accountID == accountID {
			out = append(out, *obligation)
		}
	}
	return out, nil
}

func (s *stubRepository) GetObligation(
	_ context.Context,
	accountID, formID string,
) (*Obligation, error) {
	obligation, ok := s.obligations[obligationKey{accountID, formID}]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *obligation
	return &copied, nil
}

func (s *stubRepository) SaveSignature(
	_ context.Context,
	sig *Signature,
) (*Signature, error) {
	key := obligationKey{sig.AccountID, sig.FormID}
	if existing, ok := s.signatures[key]; ok {
		copied := *existing
		return &copied, nil
	}
	sig.SignedAt = time.Now()
	stored := *sig
	s.signatures[key] = &stored
	copied := stored
	return &copied, nil
}

func (s *stubRepository) ListSignatures(
	_ context.Context,
	accountID string,
) ([]Signature, error) {
	var out []Signature
	for key, sig := range s.signatures {
		if key.accountID == accountID {
			out = append(out, *sig)
		}
	}
	return out, nil
}

func TestDocumentsCompleteTrivialWithNoAssignments(t *testing.T) {
	svc := NewService(newStubRepository())

	complete, err := svc.DocumentsComplete(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestDocumentsCompleteRequiresEverySignature(t *testing.T) {
	svc := NewService(newStubRepository())
	ctx := context.Background()

	_, err := svc.Assign(ctx, "u1", "liability-waiver", "admin-1", 0)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, "u1", "intake-form", "admin-1", 1)
	require.NoError(t, err)

	complete, err := svc.DocumentsComplete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, complete)

	_, err = svc.Sign(ctx, "u1", "liability-waiver", "Pat Client", "")
	require.NoError(t, err)

	complete, err = svc.DocumentsComplete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, complete)

	_, err = svc.Sign(ctx, "u1", "intake-form", "Pat Client", "")
	require.NoError(t, err)

	complete, err = svc.DocumentsComplete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestSignIsIdempotent(t *testing.T) {
	svc := NewService(newStubRepository())
	ctx := context.Background()

	_, err := svc.Assign(ctx, "u1", "liability-waiver", "admin-1", 0)
	require.NoError(t, err)

	first, err := svc.Sign(ctx, "u1", "liability-waiver", "Pat Client", "doc-1")
	require.NoError(t, err)

	// Re-signing keeps the first signature.
	second, err := svc.Sign(ctx, "u1", "liability-waiver", "Other Name", "doc-2")
	require.NoError(t, err)

	assert.Equal(t, first.SignerName, second.SignerName)
	assert.Equal(t, first.SignedAt, second.SignedAt)
	assert.Equal(t, first.ArtifactRef, second.ArtifactRef)
}

func TestSignUnassignedFormIsNotFound(t *testing.T) {
	svc := NewService(newStubRepository())

	_, err := svc.Sign(context.Background(), "u1", "ghost-form", "Pat", "")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUnassignRestoresCompleteness(t *testing.T) {
	svc := NewService(newStubRepository())
	ctx := context.Background()

	_, err := svc.Assign(ctx, "u1", "liability-waiver", "admin-1", 0)
	require.NoError(t, err)

	complete, err := svc.DocumentsComplete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, complete)

	require.NoError(t, svc.Unassign(ctx, "u1", "liability-waiver"))

	complete, err = svc.DocumentsComplete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, complete)
}
