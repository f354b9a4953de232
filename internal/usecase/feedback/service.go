package feedback

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	domfb "github.com/kailas-cloud/vibesearch/internal/domain/feedback"
)

// Repository stores feedback.
type Repository interface {
	Save(ctx context.Context, e domfb.Entry) error
	List(ctx context.Context) ([]domfb.Entry, error)
}

// Service collects user feedback.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a feedback service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Submit validates and stores feedback.
func (s *Service) Submit(ctx context.Context, category domfb.Category, text, userID string) (domfb.Entry, error) {
	e, err := domfb.New(category, text, userID)
	if err != nil {
		return domfb.Entry{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return domfb.Entry{}, fmt.Errorf("submit feedback: %w", err)
	}
	s.logger.Info("Feedback received", zap.String("id", e.ID()), zap.String("category", string(e.Category())))
	return e, nil
}

// List returns all feedback, newest first.
func (s *Service) List(ctx context.Context) ([]domfb.Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return entries, nil
}
