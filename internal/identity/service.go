package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"transfers-exchange/internal/apperr"

	"github.com/google/uuid"
)

// Repository abstracts user persistence. The store enforces nothing beyond
// durability; uniqueness and role rules live in the service.
type Repository interface {
	Insert(ctx context.Context, u User) error
	FindByID(ctx context.Context, id string) (User, bool, error)
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	List(ctx context.Context, role Role, limit int) ([]User, error)
}

// Notifier is the append-only per-user inbox the service writes welcome
// messages to. Satisfied by notify.Sink.
type Notifier interface {
	Append(ctx context.Context, userID, message string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, log: log, clock: time.Now}
}

type RegisterRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Register creates a user and appends a welcome notification.
// Email is the one enforced uniqueness constraint.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" {
		return User{}, apperr.Validationf("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return User{}, apperr.Validationf("valid email is required")
	}
	if !req.Role.Valid() {
		return User{}, apperr.Validationf("role must be buyer, seller or admin, got %q", req.Role)
	}

	if _, ok, err := s.repo.FindByEmail(ctx, email); err != nil {
		return User{}, err
	} else if ok {
		return User{}, apperr.Validationf("email already registered")
	}

	u := User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      req.Role,
		Company:   strings.TrimSpace(req.Company),
		Phone:     strings.TrimSpace(req.Phone),
		Active:    true,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return User{}, err
	}

	// Inbox writes are fire-and-forget: the user exists even if the welcome
	// message fails.
	if s.notifier != nil {
		msg := fmt.Sprintf("Welcome to Live Transfers Exchange, %s!", u.Name)
		if err := s.notifier.Append(ctx, u.ID, msg); err != nil {
			s.log.Warn("welcome notification failed", "user_id", u.ID, "err", err)
		}
	}

	return u, nil
}

// Get resolves a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, apperr.Validationf("user id is required")
	}
	u, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, apperr.NotFoundf("user %s", id)
	}
	return u, nil
}

// List returns users, optionally filtered by role. Empty role means all.
func (s *Service) List(ctx context.Context, role Role) ([]User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Validationf("unknown role %q", role)
	}
	return s.repo.List(ctx, role, 50)
}
