//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"fmt"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// CrackDetector — заглушка без OpenCV.
type CrackDetector struct{}

// NewCrackDetector создаёт эвристику-заглушку (без OpenCV).
func NewCrackDetector() *CrackDetector {
	return &CrackDetector{}
}

// DetectCrack проверяет изображение и возвращает ошибку, если сборка без тега gocv.
func (d *CrackDetector) DetectCrack(ctx context.Context, imageData []byte) (*entity.CrackSignal, error) {
	if _, err := decodeImage(imageData); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrDetectorUnavailable)
}

// Проверка реализации интерфейса
var _ port.CrackHeuristic = (*CrackDetector)(nil)
