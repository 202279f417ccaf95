package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// FeedbackMode — один из взаимоисключающих ответов оператора
type FeedbackMode string

const (
	FeedbackAgree         FeedbackMode = "agree"          // AI прав, ничего не пишем
	FeedbackFalsePositive FeedbackMode = "false_positive" // AI ошибся, шов годный
	FeedbackMissedDefect  FeedbackMode = "missed_defect"  // AI пропустил дефект
)

// Feedback ответ оператора на вердикт
type Feedback struct {
	Mode       FeedbackMode
	DefectType string       // имя пропущенного дефекта
	Boxes      []entity.Box // рамки в координатах изображения
}

// FeedbackService записывает исправления оператора в хранилище меток.
type FeedbackService struct {
	sessions *SessionService
	store    port.LabelStore
	log      *zap.Logger
}

func NewFeedbackService(sessions *SessionService, store port.LabelStore, log *zap.Logger) *FeedbackService {
	return &FeedbackService{sessions: sessions, store: store, log: log}
}

// RecordConfirmation дописывает строку "no_defect" без геометрии.
func (s *FeedbackService) RecordConfirmation(ctx context.Context, imageName string) error {
	if strings.TrimSpace(imageName) == "" {
		return fmt.Errorf("%w: image name is required", entity.ErrValidation)
	}

	if err := s.store.Append(ctx, entity.NewNegativeExample(imageName)); err != nil {
		s.log.Error("Failed to save confirmation", zap.String("image", imageName), zap.Error(err))
		return err
	}

	s.log.Info("Confirmation saved", zap.String("image", imageName))
	return nil
}

// RecordCorrection дописывает по строке на рамку. При неполном вводе не пишет ничего.
func (s *FeedbackService) RecordCorrection(ctx context.Context, imageName string, boxes []entity.Box, defectType string) error {
	if strings.TrimSpace(imageName) == "" {
		return fmt.Errorf("%w: image name is required", entity.ErrValidation)
	}
	name := strings.ToLower(strings.TrimSpace(defectType))
	if name == "" {
		return fmt.Errorf("%w: defect type is required", entity.ErrValidation)
	}
	if len(boxes) == 0 {
		return fmt.Errorf("%w: at least one bounding box is required", entity.ErrValidation)
	}

	rows := make([]entity.LabeledExample, 0, len(boxes))
	for i, box := range boxes {
		if !box.Valid() {
			return fmt.Errorf("%w: box %d has no area", entity.ErrValidation, i+1)
		}
		rows = append(rows, entity.NewBoxExample(imageName, box, name))
	}

	if err := s.store.Append(ctx, rows...); err != nil {
		s.log.Error("Failed to save correction", zap.String("image", imageName), zap.Error(err))
		return err
	}

	s.log.Info("Correction saved",
		zap.String("image", imageName),
		zap.String("defect_type", name),
		zap.Int("boxes", len(boxes)))
	return nil
}

// Submit применяет ответ оператора к текущему изображению сессии и возвращает число записанных строк.
func (s *FeedbackService) Submit(ctx context.Context, sessionID string, fb Feedback) (int, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if !session.Analyzed() {
		return 0, entity.ErrNotAnalyzed
	}

	switch fb.Mode {
	case FeedbackAgree:
		s.log.Info("Operator agreed with verdict",
			zap.String("image", session.ImageName),
			zap.String("verdict", string(session.Result.Verdict)))
		return 0, nil

	case FeedbackFalsePositive:
		if err := s.RecordConfirmation(ctx, session.ImageName); err != nil {
			return 0, err
		}
		return 1, nil

	case FeedbackMissedDefect:
		if err := s.RecordCorrection(ctx, session.ImageName, fb.Boxes, fb.DefectType); err != nil {
			return 0, err
		}
		return len(fb.Boxes), nil

	default:
		return 0, fmt.Errorf("%w: unknown feedback mode %q", entity.ErrValidation, fb.Mode)
	}
}

// Labels возвращает все сохранённые строки
func (s *FeedbackService) Labels(ctx context.Context) ([]entity.LabeledExample, error) {
	return s.store.List(ctx)
}
