// README: Report service: admin-only daily stats and PDF export.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
)

var ErrUnauthorized = errors.New("actor not allowed")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Daily(ctx context.Context, actor auth.Context, day time.Time) (*DailyReport, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.store.Daily(ctx, day)
}

// DailyPDF renders the daily report as a PDF document.
func (s *Service) DailyPDF(ctx context.Context, actor auth.Context, day time.Time) ([]byte, string, error) {
	r, err := s.Daily(ctx, actor, day)
	if err != nil {
		return nil, "", err
	}
	return buildDailyPDF(r)
}
