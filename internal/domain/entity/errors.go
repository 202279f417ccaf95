package entity

import "errors"

// Ошибки домена. Сервисы оборачивают их через %w, границы проверяют errors.Is.
var (
	// ErrInvalidImage: изображение пустое или не декодируется.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDetectorUnavailable: модель не загрузилась или упала при выполнении.
	ErrDetectorUnavailable = errors.New("detector unavailable")
	// ErrValidation: неполная обратная связь оператора.
	ErrValidation = errors.New("validation error")
	// ErrStoreWrite: не удалось дописать строки в хранилище меток.
	ErrStoreWrite = errors.New("store write error")
	// ErrNoImage: анализ запрошен до загрузки изображения.
	ErrNoImage = errors.New("no image uploaded")
	// ErrNotAnalyzed: обратная связь до вердикта.
	ErrNotAnalyzed = errors.New("image is not analyzed")
	// ErrSessionNotFound: сессии с таким ключом нет.
	ErrSessionNotFound = errors.New("session not found")
)
