package ai

import (
	"context"
)

// Assistant defines the contract for the dispatch AI features.
// This interface allows for swapping different AI providers in the future.
type Assistant interface {
	// SuggestDriver picks one driver from the current availability pool for
	// the described booking and explains the choice.
	SuggestDriver(ctx context.Context, req SuggestRequest) (*Suggestion, error)

	// SummarizeNotes condenses free-form client notes into a short brief the
	// driver can read at a glance.
	SummarizeNotes(ctx context.Context, notes string) (string, error)
}
