package entity

import "math"

// Box — прямоугольная область в пиксельных координатах изображения
type Box struct {
	X      float64 `json:"x"`      // координата X левого верхнего угла
	Y      float64 `json:"y"`      // координата Y левого верхнего угла
	Width  float64 `json:"width"`  // ширина области в пикселях
	Height float64 `json:"height"` // высота области в пикселях
}

// Center возвращает координаты центра области
func (b Box) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area возвращает площадь области
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// Valid сообщает, что координаты конечны, а размеры положительны.
func (b Box) Valid() bool {
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width > 0 && b.Height > 0
}

// DefectSource — откуда взялась запись о дефекте
type DefectSource string

const (
	SourceDetector  DefectSource = "detector"  // детекция модели
	SourceHeuristic DefectSource = "heuristic" // эвристика трещин по контурам
)

// CrackClassID — класс записи, добавленной эвристикой трещин.
const CrackClassID = -1

// DefectEntry — одна позиция в списке дефектов вердикта.
type DefectEntry struct {
	Source     DefectSource `json:"source"`
	ClassID    int          `json:"class_id"`
	Confidence float64      `json:"confidence"`
}

// NewCrackEntry создаёт запись "crack" с фиксированной уверенностью.
func NewCrackEntry(confidence float64) DefectEntry {
	return DefectEntry{Source: SourceHeuristic, ClassID: CrackClassID, Confidence: confidence}
}

// IsCrack сообщает, что запись добавлена эвристикой трещин
func (d DefectEntry) IsCrack() bool {
	return d.Source == SourceHeuristic
}

// Label возвращает имя дефекта для отображения.
func (d DefectEntry) Label(names ClassNames) string {
	if d.IsCrack() {
		return "crack"
	}
	return names.Name(d.ClassID)
}
