package aiquota

import "context"

// Service guards the AI endpoints with a per-user monthly call allowance.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// UseCall deducts one call from the user's monthly allowance.
// A user without a quota row is initialised and the call immediately consumed.
// Returns ErrQuotaExhausted when the allowance for the current month is spent.
func (s *Service) UseCall(ctx context.Context, uid string) error {
	err := s.store.UseCall(ctx, uid)
	if err != ErrQuotaExhausted {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid); initErr != nil {
		return initErr
	}
	return s.store.UseCall(ctx, uid)
}
