package inmemory

import (
	"context"
	"sync"
	"time"

	"taskit/internal/logger"
	"taskit/internal/models/task"
	repo "taskit/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: in-memory storage is alive")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.storage[taskToCreate.UUID]; exists {
		return repo.ErrVersionConflict
	}

	taskToCreate.CreatedAt = time.Now()
	taskToCreate.Version = 1

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

// Update only applies when the caller holds the current version.
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.UUID]
	if !ok || existing.UserID != taskToUpdate.UserID {
		return repo.ErrNotFound
	}
	if existing.Version != taskToUpdate.Version {
		logger.Warn("Repository: version conflict on update",
			zap.String("task_id", taskToUpdate.UUID.String()),
			zap.Int("expected_version", taskToUpdate.Version),
			zap.Int("actual_version", existing.Version))
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	taskToUpdate.CreatedAt = existing.CreatedAt
	s.storage[taskToUpdate.UUID] = taskToUpdate.Clone()

	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok || taskToGet.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// ListByUser returns the user's tasks in creation order.
func (s *TaskStorage) ListByUser(ctx context.Context, userID string, onlyIncomplete bool) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := s.storage[id]
		if t.UserID != userID {
			continue
		}
		if onlyIncomplete && t.Completed {
			continue
		}
		res = append(res, t.Clone())
	}
	return res, nil
}

func (s *TaskStorage) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[id]
	if !ok || existing.UserID != userID {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}
