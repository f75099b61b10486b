// Package notifications implements per-user notification delivery and
// read-state management.
package notifications

import (
	"context"
	"strings"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/services/base"
	"github.com/launchfoundry/appstack/internal/app/storage"
	"github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/internal/errors"
)

// Service manages notifications.
type Service struct {
	base.Service
	store storage.NotificationStore
}

// New creates a notifications service.
func New(c *container.Container, store storage.NotificationStore) *Service {
	s := &Service{Service: base.FromContainer(c), store: store}
	s.Log = s.Log.Named("notifications")
	return s
}

// ListParams shapes a notification listing.
type ListParams struct {
	UnreadOnly bool
	Page       base.Page
}

// Notify creates a notification for a user. Callers are trusted services,
// not end users, so no identity check applies here.
func (s *Service) Notify(ctx context.Context, userID string, kind notification.Kind, title, body string) (notification.Notification, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	if userID == "" {
		return notification.Notification{}, errors.Validation("user_id is required")
	}
	if title == "" {
		return notification.Notification{}, errors.Validation("title is required")
	}
	if kind == "" {
		kind = notification.KindInfo
	}

	n, err := s.store.CreateNotification(ctx, notification.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		return notification.Notification{}, err
	}

	if s.IsFeatureEnabled("email-digest") {
		// Digest delivery happens in the excluded mailer worker; the flag
		// only gates whether the notification is marked for inclusion.
		s.Log.WithField("notification_id", n.ID).Debug("notification queued for email digest")
	}

	s.Log.WithField("notification_id", n.ID).WithField("user_id", userID).Info("notification created")
	return n, nil
}

// List returns the current user's notifications, newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]notification.Notification, base.PageMeta, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return nil, base.PageMeta{}, err
	}

	items, err := s.store.ListNotifications(ctx, identity.ID)
	if err != nil {
		return nil, base.PageMeta{}, err
	}

	if params.UnreadOnly {
		unread := items[:0:0]
		for _, n := range items {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		items = unread
	}

	page, meta := base.ApplyPagination(items, params.Page)
	return page, meta, nil
}

// MarkRead marks one of the current user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id string) (notification.Notification, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return notification.Notification{}, err
	}

	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return notification.Notification{}, err
	}
	if n.UserID != identity.ID {
		return notification.Notification{}, errors.NotFound("notification")
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead marks all of the current user's notifications as read and
// returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return 0, err
	}
	return s.store.MarkAllNotificationsRead(ctx, identity.ID)
}

// WithIdentity returns a copy of the service bound to a different identity.
func (s *Service) WithIdentity(identity *user.Identity) *Service {
	clone := *s
	clone.User = identity
	return &clone
}
