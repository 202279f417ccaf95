package entity

import "time"

// Verdict — итог инспекции сварного шва
type Verdict string

const (
	VerdictGood      Verdict = "GOOD"      // дефекты не найдены
	VerdictDefective Verdict = "DEFECTIVE" // есть уверенная детекция
	VerdictUncertain Verdict = "UNCERTAIN" // есть только слабые сигналы
)

// InspectionResult хранит итог анализа изображения.
type InspectionResult struct {
	Verdict     Verdict       // итоговый вердикт
	Defects     []DefectEntry // дефекты в порядке оценки, трещина последней
	Detections  []Detection   // сырые детекции модели
	Crack       bool          // сигнал эвристики трещин
	ImageWidth  int           // ширина изображения
	ImageHeight int           // высота изображения
	Overlay     []byte        // изображение с разметкой детектора (JPEG)
	EdgeMap     []byte        // карта границ (PNG)
	AnalyzedAt  time.Time
}

// HasDefects сообщает, что в отчёте есть хотя бы один дефект
func (r *InspectionResult) HasDefects() bool {
	return len(r.Defects) > 0
}

// AiDescription — текстовое описание результата для оператора.
type AiDescription struct {
	Text string
}
