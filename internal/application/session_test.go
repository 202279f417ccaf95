package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/infrastructure/storage"
)

func TestSessionService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	session, err := svc.BeginCheck(ctx, "tg-1", 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, session.State)

	session, err = svc.Cancel(ctx, "tg-1", 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
}

func TestSessionService_SetState(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	session, err := svc.SetState(ctx, "tg-2", 20, entity.StateAwaitingMissedDefect)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingMissedDefect, session.State)
}

func TestSessionService_CreateAndFind(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := svc.Find(ctx, created.ID)
	require.NoError(t, err)
	require.Same(t, created, found)

	_, err = svc.Find(ctx, "unknown")
	require.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSessionService_ResetDropsAnalysis(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())
	ctx := context.Background()

	session, err := svc.Get(ctx, "s", 0)
	require.NoError(t, err)
	session.SetImage("a.jpg", []byte{1})
	session.Result = &entity.InspectionResult{Verdict: entity.VerdictUncertain}

	session, err = svc.Reset(ctx, "s", 0)
	require.NoError(t, err)
	require.False(t, session.HasImage())
	require.False(t, session.Analyzed())
}
