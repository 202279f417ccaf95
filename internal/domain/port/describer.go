package port

import (
	"context"

	"weld-inspector/internal/domain/entity"
)

// DefectDescriber интерфейс описателя результата инспекции
type DefectDescriber interface {
	// Describe генерирует текст для оператора: вердикт и список дефектов
	Describe(ctx context.Context, result *entity.InspectionResult) (*entity.AiDescription, error)
}
