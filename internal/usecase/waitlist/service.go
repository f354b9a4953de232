package waitlist

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	domwl "github.com/kailas-cloud/vibesearch/internal/domain/waitlist"
)

// Repository stores waitlist entries.
type Repository interface {
	Add(ctx context.Context, e domwl.Entry) error
}

// Service handles waitlist sign-ups.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a waitlist service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Join validates and stores a sign-up. A repeated email returns domain.ErrAlreadyExists.
func (s *Service) Join(ctx context.Context, email, vibe string) (domwl.Entry, error) {
	e, err := domwl.New(email, vibe)
	if err != nil {
		return domwl.Entry{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Add(ctx, e); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domwl.Entry{}, err
		}
		return domwl.Entry{}, fmt.Errorf("join waitlist: %w", err)
	}
	s.logger.Info("Waitlist sign-up", zap.String("id", e.ID()), zap.Bool("has_vibe", e.Vibe() != ""))
	return e, nil
}
