package service

import (
	"context"
	"strings"

	"storefront-service/internal/repository"
	"storefront-service/internal/validation"
)

type NewsletterService struct {
	newsletterRepo repository.NewsletterRepository
}

func NewNewsletterService(newsletterRepo repository.NewsletterRepository) *NewsletterService {
	return &NewsletterService{newsletterRepo: newsletterRepo}
}

// Subscribe adds email to the list. It reports false when the address was
// already subscribed.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if err := validation.Var("email", email, "required,email"); err != nil {
		return false, err
	}
	added, err := s.newsletterRepo.Subscribe(ctx, email)
	if err != nil {
		logger.Error().Err(err).Msg("Error subscribing to newsletter")
		return false, err
	}
	return added, nil
}
