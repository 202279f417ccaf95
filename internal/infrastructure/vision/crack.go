//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// Параметры эвристики фиксированы.
const (
	crackBlurKernel     = 5
	crackCannyLow       = 80
	crackCannyHigh      = 180
	crackMinContourLen  = 120.0
	crackMinLongContour = 2
)

// CrackDetector ищет возможные трещины по длинным внешним контурам границ.
type CrackDetector struct{}

// NewCrackDetector создаёт эвристику трещин.
func NewCrackDetector() *CrackDetector {
	return &CrackDetector{}
}

// DetectCrack: серый -> размытие 5x5 -> Canny(80, 180) -> внешние контуры.
// Трещина возможна, если хотя бы два контура длиннее 120 пикселей.
func (d *CrackDetector) DetectCrack(ctx context.Context, imageData []byte) (*entity.CrackSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(crackBlurKernel, crackBlurKernel), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, crackCannyLow, crackCannyHigh)

	edgeMap, err := encodePNG(edges)
	if err != nil {
		return nil, fmt.Errorf("encode edge map: %w", err)
	}

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	long := 0
	for i := 0; i < contours.Size(); i++ {
		if gocv.ArcLength(contours.At(i), false) > crackMinContourLen {
			long++
		}
	}

	return &entity.CrackSignal{
		Possible:     long >= crackMinLongContour,
		LongContours: long,
		EdgeMap:      edgeMap,
	}, nil
}

// Проверка реализации интерфейса
var _ port.CrackHeuristic = (*CrackDetector)(nil)
