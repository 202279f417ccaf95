package describer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

const (
	msgGood      = "This weld looks excellent! I did not detect any critical defects that would compromise structural integrity."
	msgDefective = "I detected significant defects that could affect weld integrity and require immediate attention."
	msgUncertain = "I'm not fully confident in this assessment. Human expert review is recommended for final verification."
	msgCrack     = "Possible surface crack detected"
)

// Text описывает результат инспекции обычным текстом.
type Text struct {
	names entity.ClassNames
}

// NewText создаёт описатель с именами классов модели
func NewText(names entity.ClassNames) *Text {
	return &Text{names: names}
}

// Describe: строка вердикта, затем по строке на каждый дефект.
func (t *Text) Describe(ctx context.Context, result *entity.InspectionResult) (*entity.AiDescription, error) {
	if result == nil {
		return nil, errors.New("no inspection result")
	}

	var b strings.Builder
	b.WriteString(string(result.Verdict))
	b.WriteString(": ")
	b.WriteString(VerdictMessage(result.Verdict))

	if result.HasDefects() {
		b.WriteString("\n\nDetected issues:")
		for _, line := range t.DefectLines(result.Defects) {
			b.WriteString("\n• ")
			b.WriteString(line)
		}
	}

	return &entity.AiDescription{Text: b.String()}, nil
}

// DefectLines возвращает описание каждого дефекта в порядке списка.
func (t *Text) DefectLines(defects []entity.DefectEntry) []string {
	lines := make([]string, 0, len(defects))
	for _, d := range defects {
		if d.IsCrack() {
			lines = append(lines, msgCrack)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (Confidence: %.0f%%)",
			capitalize(t.names.Name(d.ClassID)), math.Round(d.Confidence*100)))
	}
	return lines
}

// VerdictMessage возвращает пояснение к вердикту
func VerdictMessage(v entity.Verdict) string {
	switch v {
	case entity.VerdictGood:
		return msgGood
	case entity.VerdictDefective:
		return msgDefective
	default:
		return msgUncertain
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Проверка реализации интерфейса
var _ port.DefectDescriber = (*Text)(nil)
