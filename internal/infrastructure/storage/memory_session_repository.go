package storage

import (
	"context"
	"fmt"
	"sync"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*entity.Session),
	}
}

// Get возвращает сессию по ключу, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, id string, chatID int64) (*entity.Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[id]
	r.mu.RUnlock()

	if exists {
		return session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Могли создать между RUnlock и Lock
	if session, exists := r.sessions[id]; exists {
		return session, nil
	}
	session = entity.NewSession(id, chatID)
	r.sessions[id] = session

	return session, nil
}

// Find возвращает существующую сессию
func (r *MemorySessionRepository) Find(ctx context.Context, id string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	return session, nil
}

// Save сохраняет сессию
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return nil
}

// Delete удаляет сессию, отсутствующая сессия не ошибка
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
