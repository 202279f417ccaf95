package port

import (
	"context"

	"weld-inspector/internal/domain/entity"
)

// LabelStore — хранилище размеченных примеров только на дозапись.
type LabelStore interface {
	// Append дописывает строки одним пакетом: либо все, либо ни одной
	Append(ctx context.Context, rows ...entity.LabeledExample) error

	// List возвращает все строки в порядке записи
	List(ctx context.Context) ([]entity.LabeledExample, error)

	Close() error
}
