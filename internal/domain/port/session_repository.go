package port

import (
	"context"

	"weld-inspector/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий
type SessionRepository interface {
	// Get возвращает сессию по ключу, создаёт новую если не найдена
	Get(ctx context.Context, id string, chatID int64) (*entity.Session, error)

	// Find возвращает существующую сессию или ErrSessionNotFound
	Find(ctx context.Context, id string) (*entity.Session, error)

	// Save сохраняет сессию
	Save(ctx context.Context, session *entity.Session) error

	// Delete удаляет сессию
	Delete(ctx context.Context, id string) error
}
