//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

const (
	defaultImageSize    = 640
	defaultNMSThreshold = 0.7
	// classOffset разносит рамки разных классов, чтобы NMS подавлял только внутри класса.
	classOffset = 7680
)

// YOLODetector запускает ONNX-экспорт YOLOv8 через OpenCV DNN.
type YOLODetector struct {
	NMSThreshold float32

	mu    sync.Mutex // gocv.Net нельзя вызывать параллельно
	net   gocv.Net
	names entity.ClassNames
}

// NewYOLODetector загружает модель из файла .onnx.
func NewYOLODetector(modelPath string, names entity.ClassNames) (*YOLODetector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to load model %s", entity.ErrDetectorUnavailable, modelPath)
	}
	return &YOLODetector{
		NMSThreshold: defaultNMSThreshold,
		net:          net,
		names:        names,
	}, nil
}

// Detect возвращает детекции в порядке убывания уверенности и картинку с разметкой.
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte, opts port.DetectOptions) (*port.DetectorOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	size := opts.ImageSize
	if size <= 0 {
		size = defaultImageSize
	}

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	if out.Empty() {
		return nil, fmt.Errorf("%w: empty model output", entity.ErrDetectorUnavailable)
	}

	detections, err := d.parse(out, mat.Cols(), mat.Rows(), size, float32(opts.Confidence))
	if err != nil {
		return nil, err
	}

	overlay, err := d.drawOverlay(mat, detections)
	if err != nil {
		return nil, fmt.Errorf("draw overlay: %w", err)
	}

	return &port.DetectorOutput{Detections: detections, Overlay: overlay}, nil
}

// parse разбирает выход [1, 4+nc, N]: cx, cy, w, h и оценки классов.
func (d *YOLODetector) parse(out gocv.Mat, cols, rows, size int, conf float32) ([]entity.Detection, error) {
	dims := out.Size()
	if len(dims) != 3 || dims[0] != 1 || dims[1] <= 4 {
		return nil, fmt.Errorf("%w: unexpected output shape %v", entity.ErrDetectorUnavailable, dims)
	}
	channels, n := dims[1], dims[2]

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", entity.ErrDetectorUnavailable, err)
	}

	sx := float32(cols) / float32(size)
	sy := float32(rows) / float32(size)

	var (
		boxes    []image.Rectangle
		nmsBoxes []image.Rectangle
		scores   []float32
		classes  []int
	)
	for i := 0; i < n; i++ {
		best, bestScore := -1, float32(0)
		for c := 4; c < channels; c++ {
			if s := data[c*n+i]; s > bestScore {
				best, bestScore = c-4, s
			}
		}
		if best < 0 || bestScore < conf {
			continue
		}

		cx, cy := data[i]*sx, data[n+i]*sy
		w, h := data[2*n+i]*sx, data[3*n+i]*sy
		rect := image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)).
			Intersect(image.Rect(0, 0, cols, rows))
		if rect.Empty() {
			continue
		}

		boxes = append(boxes, rect)
		nmsBoxes = append(nmsBoxes, rect.Add(image.Pt(best*classOffset, best*classOffset)))
		scores = append(scores, bestScore)
		classes = append(classes, best)
	}
	if len(boxes) == 0 {
		return []entity.Detection{}, nil
	}

	indices := gocv.NMSBoxes(nmsBoxes, scores, conf, d.NMSThreshold)
	detections := make([]entity.Detection, 0, len(indices))
	for _, idx := range indices {
		r := boxes[idx]
		detections = append(detections, entity.Detection{
			ClassID:    classes[idx],
			Confidence: float64(scores[idx]),
			Box: entity.Box{
				X:      float64(r.Min.X),
				Y:      float64(r.Min.Y),
				Width:  float64(r.Dx()),
				Height: float64(r.Dy()),
			},
		})
	}

	return detections, nil
}

// drawOverlay рисует рамки с именем класса и уверенностью.
func (d *YOLODetector) drawOverlay(mat gocv.Mat, detections []entity.Detection) ([]byte, error) {
	canvas := mat.Clone()
	defer canvas.Close()

	red := color.RGBA{R: 239, G: 68, B: 68, A: 255}
	for _, det := range detections {
		rect := image.Rect(
			int(det.Box.X), int(det.Box.Y),
			int(det.Box.X+det.Box.Width), int(det.Box.Y+det.Box.Height),
		)
		gocv.Rectangle(&canvas, rect, red, 2)

		label := fmt.Sprintf("%s %.2f", d.names.Name(det.ClassID), det.Confidence)
		origin := image.Pt(rect.Min.X, maxInt(rect.Min.Y-6, 12))
		gocv.PutText(&canvas, label, origin, gocv.FontHersheySimplex, 0.6, red, 2)
	}

	return encodeJPEG(canvas)
}

// Close освобождает сеть
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Проверка реализации интерфейса
var _ port.DefectDetector = (*YOLODetector)(nil)
