package entity

import "fmt"

// Detection — кандидат в дефекты, найденный моделью
type Detection struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// CrackSignal — результат эвристики поиска трещин
type CrackSignal struct {
	Possible     bool   // найдено достаточно длинных контуров
	LongContours int    // сколько контуров прошло порог длины
	EdgeMap      []byte // карта границ (PNG) для отображения
}

// ClassNames сопоставляет номер класса модели с его именем.
type ClassNames []string

// Name возвращает имя класса или "class_<id>", если имя неизвестно.
func (n ClassNames) Name(id int) string {
	if id >= 0 && id < len(n) && n[id] != "" {
		return n[id]
	}
	return fmt.Sprintf("class_%d", id)
}
