package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weld-inspector/config"
	"weld-inspector/internal/domain/entity"
)

func testConfig(t *testing.T, driver string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		HTTP: config.HTTPConfig{Enabled: true},
		Detector: config.DetectorConfig{
			ModelPath:  filepath.Join(dir, "missing.onnx"),
			Confidence: 0.2,
			ImageSize:  640,
			ClassNames: []string{"porosity"},
		},
		Storage: config.StorageConfig{
			Driver:       driver,
			LabelFile:    filepath.Join(dir, "labels.csv"),
			SQLitePath:   filepath.Join(dir, "labels.db"),
			ImageDir:     filepath.Join(dir, "images"),
			ImageBackend: "file",
		},
		App: config.AppConfig{AllowedFormats: []string{".jpg", ".png"}},
	}
}

func TestBuild_StorageDrivers(t *testing.T) {
	for _, driver := range []string{"csv", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			c, err := Build(context.Background(), testConfig(t, driver), zap.NewNop())
			require.NoError(t, err)
			defer c.Close()

			ctx := context.Background()
			require.NoError(t, c.FeedbackService.RecordConfirmation(ctx, "weld1.jpg"))

			rows, err := c.FeedbackService.Labels(ctx)
			require.NoError(t, err)
			require.Equal(t, []entity.LabeledExample{entity.NewNegativeExample("weld1.jpg")}, rows)
		})
	}
}

func TestBuild_MissingModelIsUnavailableNotFatal(t *testing.T) {
	cfg := testConfig(t, "csv")
	cfg.Detector.Preload = true

	c, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	session, err := c.SessionService.Create(ctx)
	require.NoError(t, err)
	session.SetImage("a.jpg", []byte{0xff, 0xd8})
	require.NoError(t, c.SessionService.Save(ctx, session))

	_, err = c.InspectionService.Analyze(ctx, session.ID)
	require.Error(t, err)
}

func TestBuild_UnknownDriver(t *testing.T) {
	_, err := Build(context.Background(), testConfig(t, "redis"), zap.NewNop())
	require.Error(t, err)
}
