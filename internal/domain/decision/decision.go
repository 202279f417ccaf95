// Package decision объединяет детекции модели и сигнал эвристики трещин в вердикт.
package decision

import "weld-inspector/internal/domain/entity"

// Пороги фиксированы и не настраиваются на вызов.
const (
	StrongConfidence = 0.6 // с этой уверенности детекция делает шов DEFECTIVE
	WeakConfidence   = 0.3 // ниже детекция отбрасывается полностью
	CrackConfidence  = 0.4 // уверенность записи "crack" от эвристики
)

// Decide возвращает вердикт и список дефектов.
// Детекции идут в порядке детектора, запись эвристики трещин всегда последняя.
// Трещина сама по себе не может дать DEFECTIVE.
func Decide(detections []entity.Detection, crack bool) (entity.Verdict, []entity.DefectEntry) {
	strong := false
	defects := make([]entity.DefectEntry, 0, len(detections)+1)

	for _, d := range detections {
		switch {
		case d.Confidence >= StrongConfidence:
			strong = true
			defects = append(defects, fromDetection(d))
		case d.Confidence >= WeakConfidence:
			defects = append(defects, fromDetection(d))
		}
	}

	// Дубль с классом "crack" от модели сохраняем намеренно.
	if crack {
		defects = append(defects, entity.NewCrackEntry(CrackConfidence))
	}

	switch {
	case strong:
		return entity.VerdictDefective, defects
	case len(defects) > 0:
		return entity.VerdictUncertain, defects
	default:
		return entity.VerdictGood, defects
	}
}

func fromDetection(d entity.Detection) entity.DefectEntry {
	return entity.DefectEntry{
		Source:     entity.SourceDetector,
		ClassID:    d.ClassID,
		Confidence: d.Confidence,
	}
}
