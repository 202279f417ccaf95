//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"

	"gocv.io/x/gocv"

	"weld-inspector/internal/domain/entity"
)

// decodeToMat превращает байты изображения в gocv.Mat (BGR).
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	if len(imageData) == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: empty data", entity.ErrInvalidImage)
	}
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), fmt.Errorf("%w: failed to decode image", entity.ErrInvalidImage)
}

// encodePNG кодирует Mat в PNG.
func encodePNG(mat gocv.Mat) ([]byte, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeJPEG кодирует Mat в JPEG.
func encodeJPEG(mat gocv.Mat) ([]byte, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
