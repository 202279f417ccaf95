package port

import (
	"context"

	"weld-inspector/internal/domain/entity"
)

// DetectOptions параметры запуска модели
type DetectOptions struct {
	Confidence float64 // минимальная уверенность детекции
	ImageSize  int     // сторона входа модели в пикселях
}

// DetectorOutput результат модели
type DetectorOutput struct {
	Detections []entity.Detection // детекции в порядке выдачи модели
	Overlay    []byte             // изображение с разметкой (JPEG), может быть пустым
}

// DefectDetector интерфейс детектора дефектов
type DefectDetector interface {
	// Detect запускает модель на изображении
	Detect(ctx context.Context, imageData []byte, opts DetectOptions) (*DetectorOutput, error)
}

// CrackHeuristic интерфейс эвристики поиска трещин по границам
type CrackHeuristic interface {
	// DetectCrack возвращает сигнал трещины и карту границ
	DetectCrack(ctx context.Context, imageData []byte) (*entity.CrackSignal, error)
}
