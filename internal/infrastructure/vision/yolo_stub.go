//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"fmt"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// YOLODetector — заглушка без OpenCV.
type YOLODetector struct {
	NMSThreshold float32
}

// NewYOLODetector возвращает ошибку, если сборка без тега gocv.
func NewYOLODetector(modelPath string, names entity.ClassNames) (*YOLODetector, error) {
	_ = names
	return nil, fmt.Errorf("%w: gocv build tag is not enabled (model %s)", entity.ErrDetectorUnavailable, modelPath)
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte, opts port.DetectOptions) (*port.DetectorOutput, error) {
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrDetectorUnavailable)
}

// Close ничего не делает
func (d *YOLODetector) Close() error {
	return nil
}

// Проверка реализации интерфейса
var _ port.DefectDetector = (*YOLODetector)(nil)
