package entity

// SessionState состояние сессии оператора
type SessionState string

const (
	StateMainMenu             SessionState = "main_menu"              // В главном меню
	StateAwaitingPhoto        SessionState = "awaiting_photo"         // Ожидание фото шва
	StateProcessing           SessionState = "processing"             // Обработка изображения
	StateAwaitingFeedback     SessionState = "awaiting_feedback"      // Вердикт показан, ждём оценку оператора
	StateAwaitingMissedDefect SessionState = "awaiting_missed_defect" // Ждём имя и рамку пропущенного дефекта
)

// Session представляет сессию инспекции одного оператора
type Session struct {
	ID        string            // ключ сессии
	ChatID    int64             // Telegram Chat ID, 0 для REST
	State     SessionState      // Текущее состояние
	ImageName string            // имя сохранённого изображения
	Image     []byte            // нормализованное изображение (JPEG)
	Result    *InspectionResult // последний результат анализа
}

// NewSession создаёт сессию с начальным состоянием
func NewSession(id string, chatID int64) *Session {
	return &Session{
		ID:     id,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние сессии
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// SetImage заменяет изображение и сбрасывает прошлый анализ.
func (s *Session) SetImage(name string, data []byte) {
	s.ImageName = name
	s.Image = data
	s.Result = nil
}

// HasImage сообщает, что изображение загружено
func (s *Session) HasImage() bool {
	return s.ImageName != "" && len(s.Image) > 0
}

// Analyzed сообщает, что для текущего изображения есть вердикт
func (s *Session) Analyzed() bool {
	return s.Result != nil
}

// Reset отбрасывает всё состояние анализа.
func (s *Session) Reset() {
	s.State = StateMainMenu
	s.ImageName = ""
	s.Image = nil
	s.Result = nil
}
