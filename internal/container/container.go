package container

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"weld-inspector/config"
	app "weld-inspector/internal/application"
	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
	"weld-inspector/internal/infrastructure/describer"
	"weld-inspector/internal/infrastructure/storage"
	"weld-inspector/internal/infrastructure/vision"
)

type Container struct {
	SessionService    *app.SessionService
	InspectionService *app.InspectionService
	FeedbackService   *app.FeedbackService
	Describer         *describer.Text
	ClassNames        entity.ClassNames

	closers []func() error
}

// Deps — инфраструктура, из которой собираются сервисы
type Deps struct {
	Sessions   port.SessionRepository
	Detector   port.DefectDetector
	Heuristic  port.CrackHeuristic
	Archive    port.ImageArchive
	Labels     port.LabelStore
	ClassNames entity.ClassNames
	Inspection app.InspectionConfig
}

func New(deps Deps, log *zap.Logger) *Container {
	text := describer.NewText(deps.ClassNames)
	sessionService := app.NewSessionService(deps.Sessions)
	inspectionService := app.NewInspectionService(sessionService, deps.Detector, deps.Heuristic,
		deps.Archive, text, deps.Inspection, log.Named("inspection"))
	feedbackService := app.NewFeedbackService(sessionService, deps.Labels, log.Named("feedback"))

	return &Container{
		SessionService:    sessionService,
		InspectionService: inspectionService,
		FeedbackService:   feedbackService,
		Describer:         text,
		ClassNames:        deps.ClassNames,
	}
}

// Build собирает инфраструктуру по конфигурации
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	var closers []func() error
	fail := func(err error) (*Container, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	labels, err := openLabelStore(cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("open label store: %w", err))
	}
	closers = append(closers, labels.Close)

	archive, err := openImageArchive(ctx, cfg, log)
	if err != nil {
		return fail(fmt.Errorf("open image archive: %w", err))
	}

	names := entity.ClassNames(cfg.Detector.ClassNames)
	var yolo *vision.YOLODetector
	detector := vision.NewLazyDetector(func() (port.DefectDetector, error) {
		d, err := vision.NewYOLODetector(cfg.Detector.ModelPath, names)
		if err != nil {
			return nil, err
		}
		yolo = d
		return d, nil
	}, log.Named("detector"))
	closers = append(closers, func() error {
		if yolo != nil {
			return yolo.Close()
		}
		return nil
	})

	if cfg.Detector.Preload {
		if err := detector.Load(); err != nil {
			log.Warn("Detector preload failed, analysis will report it", zap.Error(err))
		}
	}

	c := New(Deps{
		Sessions:   storage.NewMemorySessionRepository(),
		Detector:   detector,
		Heuristic:  vision.NewCrackDetector(),
		Archive:    archive,
		Labels:     labels,
		ClassNames: names,
		Inspection: app.InspectionConfig{
			Detect: port.DetectOptions{
				Confidence: cfg.Detector.Confidence,
				ImageSize:  cfg.Detector.ImageSize,
			},
			MaxUploadSize:  cfg.App.MaxUploadSize,
			AllowedFormats: cfg.App.AllowedFormats,
		},
	}, log)
	c.closers = closers

	return c, nil
}

// Close освобождает хранилище и модель
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openLabelStore(cfg config.StorageConfig) (port.LabelStore, error) {
	switch cfg.Driver {
	case "csv":
		return storage.NewCSVLabelStore(cfg.LabelFile)
	case "sqlite":
		return storage.NewSQLiteLabelStore(cfg.SQLitePath)
	case "mysql":
		return storage.NewMySQLLabelStore(cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openImageArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.ImageArchive, error) {
	if cfg.Storage.ImageBackend == "s3" {
		return storage.NewS3ImageArchive(ctx, storage.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Region:          cfg.S3.Region,
			BucketName:      cfg.S3.BucketName,
			Prefix:          cfg.S3.Prefix,
		}, log.Named("s3"))
	}
	return storage.NewFileImageArchive(cfg.Storage.ImageDir)
}
