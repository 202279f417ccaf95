package app

import (
	"bytes"
	"image"
	_ "image/jpeg"
)

// imageSize читает размеры из заголовка JPEG, 0x0 если не удалось.
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
