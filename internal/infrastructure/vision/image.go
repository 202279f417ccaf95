package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	"weld-inspector/internal/domain/entity"
)

// normalizedQuality — качество JPEG для сохранённых снимков.
const normalizedQuality = 95

// Normalized — изображение, приведённое к RGB JPEG.
type Normalized struct {
	Data   []byte
	Width  int
	Height int
}

// NormalizeImage декодирует jpg/png и перекодирует в JPEG без альфа-канала.
func NormalizeImage(imageData []byte) (*Normalized, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: normalizedQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Normalized{Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// decodeImage превращает байты в image.Image, пустые и битые данные дают ErrInvalidImage.
func decodeImage(imageData []byte) (image.Image, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("%w: empty data", entity.ErrInvalidImage)
	}
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero size", entity.ErrInvalidImage)
	}
	return img, nil
}
