// README: Notification service: records, push fan-out, and token lifecycle.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

var (
	ErrNotFound   = errors.New("notification not found")
	ErrBadRequest = errors.New("bad request")
)

const defaultListLimit = 50

type Service struct {
	store  *Store
	sender Sender
}

func NewService(store *Store, sender Sender) *Service {
	return &Service{store: store, sender: sender}
}

// BookingRequested notifies every admin that a booking is waiting for review.
// Implements the booking notifier; failures are logged, never propagated.
func (s *Service) BookingRequested(ctx context.Context, b *booking.Booking) {
	admins, err := s.store.AdminUserIDs(ctx)
	if err != nil {
		log.Printf("notification: list admins: %v", err)
		return
	}
	title := "New booking request"
	body := fmt.Sprintf("Booking %s: %s to %s", b.Code, b.Pickup, b.Dropoff)
	s.deliver(ctx, admins, KindBookingRequest, title, body, b.ID)
}

// JobAssigned notifies the driver that a booking was handed to them.
func (s *Service) JobAssigned(ctx context.Context, b *booking.Booking, driverID types.ID) {
	title := "New job assigned"
	body := fmt.Sprintf("Booking %s: pickup %s at %s", b.Code, b.Pickup, b.PickupTime.Format("02 Jan 15:04"))
	s.deliver(ctx, []types.ID{driverID}, KindJobAssigned, title, body, b.ID)
}

func (s *Service) deliver(ctx context.Context, recipients []types.ID, kind Kind, title, body string, bookingID types.ID) {
	now := time.Now().UTC()
	for _, userID := range recipients {
		bid := bookingID
		n := &Notification{
			ID:        types.ID(uuid.NewString()),
			UserID:    userID,
			Kind:      kind,
			Title:     title,
			Body:      body,
			BookingID: &bid,
			CreatedAt: now,
		}
		if err := s.store.Create(ctx, n); err != nil {
			log.Printf("notification: create record: %v", err)
		}
	}

	if s.sender == nil {
		return
	}
	tokens, err := s.store.TokensForUsers(ctx, recipients)
	if err != nil {
		log.Printf("notification: load tokens: %v", err)
		return
	}
	invalid, err := s.sender.Send(ctx, tokens, title, body, map[string]string{
		"kind":       string(kind),
		"booking_id": string(bookingID),
	})
	if err != nil {
		log.Printf("notification: push send: %v", err)
		return
	}
	if len(invalid) > 0 {
		if err := s.store.DeleteTokens(ctx, invalid); err != nil {
			log.Printf("notification: prune tokens: %v", err)
		}
	}
}

func (s *Service) ListForUser(ctx context.Context, actor auth.Context) ([]*Notification, error) {
	return s.store.ListForUser(ctx, actor.UserID, defaultListLimit)
}

func (s *Service) MarkRead(ctx context.Context, actor auth.Context, id types.ID) error {
	ok, err := s.store.MarkRead(ctx, actor.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) RegisterToken(ctx context.Context, actor auth.Context, token string) error {
	if token == "" {
		return ErrBadRequest
	}
	return s.store.RegisterToken(ctx, actor.UserID, token)
}
