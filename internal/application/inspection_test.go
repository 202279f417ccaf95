package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
	"weld-inspector/internal/infrastructure/describer"
	"weld-inspector/internal/infrastructure/storage"
)

type inspectionFixture struct {
	svc       *InspectionService
	sessions  *SessionService
	detector  *fakeDetector
	heuristic *fakeHeuristic
	archive   *memoryArchive
}

func newInspectionFixture(t *testing.T) *inspectionFixture {
	t.Helper()
	f := &inspectionFixture{
		sessions:  NewSessionService(storage.NewMemorySessionRepository()),
		detector:  &fakeDetector{out: &port.DetectorOutput{Overlay: []byte("overlay")}},
		heuristic: &fakeHeuristic{signal: &entity.CrackSignal{EdgeMap: []byte("edges")}},
		archive:   newMemoryArchive(),
	}
	cfg := InspectionConfig{
		Detect:         port.DetectOptions{Confidence: 0.2, ImageSize: 1280},
		MaxUploadSize:  1 << 20,
		AllowedFormats: []string{".jpg", ".jpeg", ".png"},
	}
	f.svc = NewInspectionService(f.sessions, f.detector, f.heuristic, f.archive,
		describer.NewText(entity.ClassNames{"porosity", "undercut", "spatter"}), cfg, zaptest.NewLogger(t))
	return f
}

func (f *inspectionFixture) upload(t *testing.T, id string) *entity.Session {
	t.Helper()
	_, err := f.sessions.Get(context.Background(), id, 0)
	require.NoError(t, err)
	session, err := f.svc.AcceptImage(context.Background(), id, 0, "weld.PNG", testPNG(t))
	require.NoError(t, err)
	return session
}

func TestInspectionService_AcceptImage(t *testing.T) {
	f := newInspectionFixture(t)
	f.svc.newName = func() string { return "fixed.jpg" }

	session := f.upload(t, "s1")
	require.Equal(t, "fixed.jpg", session.ImageName)
	require.True(t, session.HasImage())
	require.Contains(t, f.archive.files, "fixed.jpg")
	require.Equal(t, session.Image, f.archive.files["fixed.jpg"])
}

func TestInspectionService_AcceptImageRejects(t *testing.T) {
	f := newInspectionFixture(t)
	ctx := context.Background()

	_, err := f.svc.AcceptImage(ctx, "s1", 0, "weld.gif", testPNG(t))
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	_, err = f.svc.AcceptImage(ctx, "s1", 0, "weld.jpg", []byte("garbage"))
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	_, err = f.svc.AcceptImage(ctx, "s1", 0, "weld.jpg", nil)
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	f.svc.cfg.MaxUploadSize = 10
	_, err = f.svc.AcceptImage(ctx, "s1", 0, "weld.png", testPNG(t))
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	require.Empty(t, f.archive.files)
}

func TestInspectionService_AnalyzeDefective(t *testing.T) {
	f := newInspectionFixture(t)
	f.upload(t, "s1")
	f.detector.out.Detections = []entity.Detection{
		{ClassID: 2, Confidence: 0.65, Box: entity.Box{X: 1, Y: 2, Width: 3, Height: 4}},
		{ClassID: 0, Confidence: 0.1},
	}

	out, err := f.svc.Analyze(context.Background(), "s1")
	require.NoError(t, err)

	require.Equal(t, entity.VerdictDefective, out.Result.Verdict)
	require.Equal(t, []entity.DefectEntry{{Source: entity.SourceDetector, ClassID: 2, Confidence: 0.65}}, out.Result.Defects)
	require.Len(t, out.Result.Detections, 2)
	require.Equal(t, 64, out.Result.ImageWidth)
	require.Equal(t, 48, out.Result.ImageHeight)
	require.Equal(t, []byte("overlay"), out.Result.Overlay)
	require.Equal(t, []byte("edges"), out.Result.EdgeMap)
	require.Contains(t, out.Description.Text, "Spatter (Confidence: 65%)")
	require.Equal(t, port.DetectOptions{Confidence: 0.2, ImageSize: 1280}, f.detector.opts)

	session, err := f.svc.Current(context.Background(), "s1")
	require.NoError(t, err)
	require.Same(t, out.Result, session.Result)
	require.Equal(t, entity.StateAwaitingFeedback, session.State)
}

func TestInspectionService_AnalyzeCrackOnly(t *testing.T) {
	f := newInspectionFixture(t)
	f.upload(t, "s1")
	f.heuristic.signal.Possible = true

	out, err := f.svc.Analyze(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, entity.VerdictUncertain, out.Result.Verdict)
	require.Equal(t, []entity.DefectEntry{entity.NewCrackEntry(0.4)}, out.Result.Defects)
	require.Contains(t, out.Description.Text, "Possible surface crack detected")
}

func TestInspectionService_AnalyzeWithoutImage(t *testing.T) {
	f := newInspectionFixture(t)
	_, err := f.sessions.Get(context.Background(), "s1", 0)
	require.NoError(t, err)

	_, err = f.svc.Analyze(context.Background(), "s1")
	require.ErrorIs(t, err, entity.ErrNoImage)

	_, err = f.svc.Analyze(context.Background(), "missing")
	require.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestInspectionService_AnalyzeFailureKeepsPreviousResult(t *testing.T) {
	f := newInspectionFixture(t)
	f.upload(t, "s1")

	first, err := f.svc.Analyze(context.Background(), "s1")
	require.NoError(t, err)

	f.detector.err = fmt.Errorf("%w: model crashed", entity.ErrDetectorUnavailable)
	_, err = f.svc.Analyze(context.Background(), "s1")
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)

	session, err := f.svc.Current(context.Background(), "s1")
	require.NoError(t, err)
	require.Same(t, first.Result, session.Result)
}

func TestInspectionService_HeuristicInvalidImageAborts(t *testing.T) {
	f := newInspectionFixture(t)
	f.upload(t, "s1")
	f.heuristic.err = fmt.Errorf("%w: decode", entity.ErrInvalidImage)

	_, err := f.svc.Analyze(context.Background(), "s1")
	require.ErrorIs(t, err, entity.ErrInvalidImage)
	require.Zero(t, f.detector.calls)
}

func TestInspectionService_ArchiveFailure(t *testing.T) {
	f := newInspectionFixture(t)
	f.archive.err = errors.New("read-only file system")

	_, err := f.svc.AcceptImage(context.Background(), "s1", 0, "weld.png", testPNG(t))
	require.Error(t, err)

	session, err := f.sessions.Get(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.False(t, session.HasImage())
}

func TestInspectionService_NewUploadClearsVerdict(t *testing.T) {
	f := newInspectionFixture(t)
	f.upload(t, "s1")
	_, err := f.svc.Analyze(context.Background(), "s1")
	require.NoError(t, err)

	session := f.upload(t, "s1")
	require.False(t, session.Analyzed())
}

func TestInspectionService_Reset(t *testing.T) {
	f := newInspectionFixture(t)
	f.upload(t, "s1")
	_, err := f.svc.Analyze(context.Background(), "s1")
	require.NoError(t, err)

	session, err := f.svc.Reset(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.False(t, session.HasImage())
	require.False(t, session.Analyzed())
	require.Equal(t, entity.StateMainMenu, session.State)
}
