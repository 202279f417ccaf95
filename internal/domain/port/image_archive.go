package port

import "context"

// ImageArchive сохраняет загруженные изображения под их итоговым именем.
type ImageArchive interface {
	Put(ctx context.Context, name string, data []byte) error
}
