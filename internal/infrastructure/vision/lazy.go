package vision

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// Loader создаёт детектор. Вызывается не более одного раза.
type Loader func() (port.DefectDetector, error)

// LazyDetector загружает модель при первом вызове и переиспользует её до конца процесса.
// Ошибка загрузки запоминается, повторной попытки нет.
type LazyDetector struct {
	load Loader
	log  *zap.Logger

	once sync.Once
	det  port.DefectDetector
	err  error
}

// NewLazyDetector оборачивает загрузчик модели
func NewLazyDetector(load Loader, log *zap.Logger) *LazyDetector {
	return &LazyDetector{load: load, log: log}
}

// Load загружает модель заранее, например при старте
func (l *LazyDetector) Load() error {
	l.once.Do(func() {
		l.det, l.err = l.load()
		if l.err != nil {
			l.log.Error("Failed to load detector", zap.Error(l.err))
			return
		}
		l.log.Info("Detector loaded")
	})
	if l.err != nil {
		if errors.Is(l.err, entity.ErrDetectorUnavailable) {
			return l.err
		}
		return fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, l.err)
	}
	return nil
}

// Detect запускает модель, ошибки выполнения сводятся к ErrDetectorUnavailable.
func (l *LazyDetector) Detect(ctx context.Context, imageData []byte, opts port.DetectOptions) (*port.DetectorOutput, error) {
	if err := l.Load(); err != nil {
		return nil, err
	}

	out, err := l.det.Detect(ctx, imageData, opts)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, entity.ErrInvalidImage),
		errors.Is(err, entity.ErrDetectorUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, err)
	}
}

// Проверка реализации интерфейса
var _ port.DefectDetector = (*LazyDetector)(nil)
