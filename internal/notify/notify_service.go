package notify

import (
	"context"
	"fmt"

	model "voltbay/internal/models"
	"voltbay/internal/repository"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Service serves a user's in-app notification feed
type Service struct {
	store repository.NotificationStore
}

func NewService(store repository.NotificationStore) *Service {
	return &Service{store: store}
}

// List returns the newest notifications first
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	out, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: failed to list notifications for %s: %w", userID, err)
	}
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}

// MarkRead marks one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.store.MarkNotificationRead(ctx, userID, id); err != nil {
		return fmt.Errorf("notify: failed to mark notification %s read: %w", id, err)
	}
	return nil
}
