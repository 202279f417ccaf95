package app

import (
	"context"

	"github.com/google/uuid"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Create заводит новую сессию со случайным ключом
func (s *SessionService) Create(ctx context.Context) (*entity.Session, error) {
	session := entity.NewSession(uuid.NewString(), 0)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, id, chatID)
}

func (s *SessionService) Find(ctx context.Context, id string) (*entity.Session, error) {
	return s.repo.Find(ctx, id)
}

func (s *SessionService) Save(ctx context.Context, session *entity.Session) error {
	return s.repo.Save(ctx, session)
}

func (s *SessionService) SetState(ctx context.Context, id string, chatID int64, state entity.SessionState) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, id, chatID)
	if err != nil {
		return nil, err
	}

	session.SetState(state)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionService) BeginCheck(ctx context.Context, id string, chatID int64) (*entity.Session, error) {
	session, err := s.Reset(ctx, id, chatID)
	if err != nil {
		return nil, err
	}
	return s.SetState(ctx, session.ID, chatID, entity.StateAwaitingPhoto)
}

func (s *SessionService) Cancel(ctx context.Context, id string, chatID int64) (*entity.Session, error) {
	return s.Reset(ctx, id, chatID)
}

// Reset отбрасывает изображение и вердикт, сессия возвращается в главное меню.
func (s *SessionService) Reset(ctx context.Context, id string, chatID int64) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, id, chatID)
	if err != nil {
		return nil, err
	}

	session.Reset()
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
