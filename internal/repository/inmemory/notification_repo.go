package inmemory

import (
	"context"
	"sort"
	"sync"

	"taskit/internal/models/notification"
	repo "taskit/internal/repository"
)

type NotificationStorage struct {
	mtx   sync.RWMutex
	items []notification.Notification
}

func NewNotificationStorage() *NotificationStorage {
	return &NotificationStorage{}
}

func (s *NotificationStorage) Create(ctx context.Context, n *notification.Notification) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existing := range s.items {
		if existing.ID == n.ID {
			return repo.ErrVersionConflict
		}
	}
	s.items = append(s.items, *n)
	return nil
}

// ListByUser returns newest first.
func (s *NotificationStorage) ListByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []notification.Notification{}
	for _, n := range s.items {
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Timestamp.Time().After(res[j].Timestamp.Time())
	})
	return res, nil
}

func (s *NotificationStorage) MarkRead(ctx context.Context, userID, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for i := range s.items {
		if s.items[i].ID == id && s.items[i].UserID == userID {
			s.items[i].Read = true
			return nil
		}
	}
	return repo.ErrNotFound
}
