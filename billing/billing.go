// Package billing manages plans and credit balances. Usage records flow
// through Service.Record, which couples accounting to credit deduction so the
// two can never drift apart.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/symposium-chat/symposium/logging"
	"github.com/symposium-chat/symposium/store"
)

// Plan identifiers.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Plan grants, in credits.
const (
	FreeSignupCredits = 5.0
	ProMonthlyCredits = 100.0
)

// ErrInsufficientCredits indicates the user's balance cannot cover a new
// turn. Surfaced as HTTP 402 by the API layer.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Options holds optional service dependencies.
type Options struct {
	Logger logging.Logger
}

// Service implements credit accounting over the user and usage stores.
type Service struct {
	users  store.UserStore
	usage  store.UsageStore
	logger logging.Logger
}

// NewService creates a billing Service.
func NewService(users store.UserStore, usage store.UsageStore, optFns ...func(o *Options)) *Service {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{users: users, usage: usage, logger: opts.Logger}
}

// Authorize checks that the user may start a new orchestrated turn. Banned
// accounts and exhausted balances are rejected before any provider work.
func (s *Service) Authorize(ctx context.Context, userID string) error {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Credits <= 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// Record appends the usage log and deducts its cost from the user's balance.
// The balance may go slightly negative when a turn costs more than the
// remaining credits; Authorize blocks the next turn.
func (s *Service) Record(ctx context.Context, l *store.UsageLog) error {
	if err := s.usage.AppendUsage(ctx, l); err != nil {
		return err
	}
	if l.Cost > 0 {
		if err := s.users.AddCredits(ctx, l.UserID, -l.Cost); err != nil {
			s.logger.Error("failed to deduct %.6f credits from user %s: %v", l.Cost, l.UserID, err)
			return err
		}
	}
	return nil
}

// Balance reports the user's current credit balance and plan.
func (s *Service) Balance(ctx context.Context, userID string) (plan string, credits float64, err error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	return u.Plan, u.Credits, nil
}

// Purchase is a mock top-up: it credits the amount immediately without
// contacting a payment processor.
func (s *Service) Purchase(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("invalid purchase amount %.2f", amount)
	}
	if err := s.users.AddCredits(ctx, userID, amount); err != nil {
		return err
	}
	s.logger.Info("credited %.2f to user %s", amount, userID)
	return nil
}

// Upgrade switches the user to the pro plan and grants its monthly credits.
func (s *Service) Upgrade(ctx context.Context, userID string) error {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Plan == PlanPro {
		return nil
	}
	u.Plan = PlanPro
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	return s.users.AddCredits(ctx, userID, ProMonthlyCredits)
}

// Usage lists the user's usage records, newest first.
func (s *Service) Usage(ctx context.Context, userID string) ([]store.UsageLog, error) {
	return s.usage.ListUsage(ctx, userID)
}
