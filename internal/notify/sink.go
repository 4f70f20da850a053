package notify

import (
	"context"
	"strings"
	"time"

	"transfers-exchange/internal/apperr"

	"github.com/google/uuid"
)

// Repository abstracts notification persistence.
type Repository interface {
	Insert(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id string) (bool, error)
}

// Sink is the notification collaborator the lifecycle and billing services
// write to. Fire-and-forget: no delivery guarantee beyond store durability,
// and callers are expected to log rather than fail on append errors.
type Sink struct {
	repo  Repository
	clock func() time.Time
}

func NewSink(repo Repository) *Sink {
	return &Sink{repo: repo, clock: time.Now}
}

func (s *Sink) Append(ctx context.Context, userID, message string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Validationf("notification user id is required")
	}
	if strings.TrimSpace(message) == "" {
		return apperr.Validationf("notification message is required")
	}
	return s.repo.Insert(ctx, Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		CreatedAt: s.clock().UTC(),
	})
}

func (s *Sink) List(ctx context.Context, userID string) ([]Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validationf("user id is required")
	}
	return s.repo.ListByUser(ctx, userID, 50)
}

func (s *Sink) MarkRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validationf("notification id is required")
	}
	ok, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("notification %s", id)
	}
	return nil
}
