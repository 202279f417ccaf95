package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"weld-inspector/internal/domain/entity"
)

// ParseCorrection разбирает ввод вида "name x y w h; x y w h".
// Имя может состоять из нескольких слов, числа берутся с конца первой части.
func ParseCorrection(text string) (string, []entity.Box, error) {
	parts := strings.Split(text, ";")

	head := strings.Fields(parts[0])
	if len(head) < 5 {
		return "", nil, fmt.Errorf("%w: expected a defect name followed by x y w h", entity.ErrValidation)
	}

	name := strings.Join(head[:len(head)-4], " ")
	first, err := parseBox(head[len(head)-4:])
	if err != nil {
		return "", nil, err
	}

	boxes := []entity.Box{first}
	for _, part := range parts[1:] {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return "", nil, fmt.Errorf("%w: box %q must have four numbers", entity.ErrValidation, strings.TrimSpace(part))
		}
		box, err := parseBox(fields)
		if err != nil {
			return "", nil, err
		}
		boxes = append(boxes, box)
	}

	return name, boxes, nil
}

func parseBox(fields []string) (entity.Box, error) {
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.ReplaceAll(f, ",", "."), 64)
		if err != nil {
			return entity.Box{}, fmt.Errorf("%w: %q is not a number", entity.ErrValidation, f)
		}
		v[i] = n
	}
	return entity.Box{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
