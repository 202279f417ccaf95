package entity

// DefectTypeNone — метка изображения без дефектов.
const DefectTypeNone = "no_defect"

// LabeledExample — подтверждённая оператором строка для дообучения.
// Box == nil означает метку на всё изображение без геометрии.
type LabeledExample struct {
	ImageName  string `json:"image_name"`
	Box        *Box   `json:"box,omitempty"`
	DefectType string `json:"defect_type"`
}

// NewNegativeExample создаёт метку "no_defect" без геометрии
func NewNegativeExample(imageName string) LabeledExample {
	return LabeledExample{ImageName: imageName, DefectType: DefectTypeNone}
}

// NewBoxExample создаёт метку дефекта с рамкой
func NewBoxExample(imageName string, box Box, defectType string) LabeledExample {
	b := box
	return LabeledExample{ImageName: imageName, Box: &b, DefectType: defectType}
}

// HasGeometry сообщает, что у строки заполнены все поля рамки
func (e LabeledExample) HasGeometry() bool {
	return e.Box != nil
}
