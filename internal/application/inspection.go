package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weld-inspector/internal/domain/decision"
	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
	"weld-inspector/internal/infrastructure/vision"
)

// InspectionConfig параметры анализа и загрузки.
type InspectionConfig struct {
	Detect         port.DetectOptions
	MaxUploadSize  int64
	AllowedFormats []string // расширения с точкой: .jpg, .png
}

type InspectionService struct {
	sessions  *SessionService
	detector  port.DefectDetector
	heuristic port.CrackHeuristic
	archive   port.ImageArchive
	describer port.DefectDescriber
	cfg       InspectionConfig
	log       *zap.Logger

	now     func() time.Time
	newName func() string
}

// InspectionOutput содержит вердикт и текст для оператора.
type InspectionOutput struct {
	Result      *entity.InspectionResult
	Description *entity.AiDescription
}

// NewInspectionService создаёт сервис, который управляет проверкой шва.
func NewInspectionService(
	sessions *SessionService,
	detector port.DefectDetector,
	heuristic port.CrackHeuristic,
	archive port.ImageArchive,
	describer port.DefectDescriber,
	cfg InspectionConfig,
	log *zap.Logger,
) *InspectionService {
	return &InspectionService{
		sessions:  sessions,
		detector:  detector,
		heuristic: heuristic,
		archive:   archive,
		describer: describer,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		newName:   func() string { return uuid.New().String() + ".jpg" },
	}
}

// AcceptImage проверяет и сохраняет загруженное фото, прошлый вердикт сбрасывается.
func (s *InspectionService) AcceptImage(ctx context.Context, sessionID string, chatID int64, filename string, data []byte) (*entity.Session, error) {
	if err := s.checkUpload(filename, data); err != nil {
		return nil, err
	}

	normalized, err := vision.NormalizeImage(data)
	if err != nil {
		s.log.Warn("Rejected upload", zap.String("session", sessionID), zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	name := s.newName()
	if err := s.archive.Put(ctx, name, normalized.Data); err != nil {
		return nil, fmt.Errorf("archive image: %w", err)
	}

	session, err := s.sessions.Get(ctx, sessionID, chatID)
	if err != nil {
		return nil, err
	}
	session.SetImage(name, normalized.Data)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("Image accepted",
		zap.String("session", sessionID),
		zap.String("filename", filename),
		zap.String("image", name),
		zap.Int("width", normalized.Width),
		zap.Int("height", normalized.Height))

	return session, nil
}

// Analyze запускает эвристику и детектор и сохраняет вердикт в сессии.
// При ошибке сессия остаётся как была.
func (s *InspectionService) Analyze(ctx context.Context, sessionID string) (*InspectionOutput, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasImage() {
		return nil, entity.ErrNoImage
	}
	if s.detector == nil {
		return nil, fmt.Errorf("%w: detector is not configured", entity.ErrDetectorUnavailable)
	}

	started := s.now()

	crack, err := s.heuristic.DetectCrack(ctx, session.Image)
	if err != nil {
		s.log.Error("Crack heuristic failed", zap.String("session", sessionID), zap.Error(err))
		return nil, err
	}

	out, err := s.detector.Detect(ctx, session.Image, s.cfg.Detect)
	if err != nil {
		s.log.Error("Detector failed", zap.String("session", sessionID), zap.Error(err))
		return nil, err
	}

	verdict, defects := decision.Decide(out.Detections, crack.Possible)

	width, height := imageSize(session.Image)
	result := &entity.InspectionResult{
		Verdict:     verdict,
		Defects:     defects,
		Detections:  out.Detections,
		Crack:       crack.Possible,
		ImageWidth:  width,
		ImageHeight: height,
		Overlay:     out.Overlay,
		EdgeMap:     crack.EdgeMap,
		AnalyzedAt:  s.now(),
	}

	desc, err := s.describer.Describe(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("describe result: %w", err)
	}

	session.Result = result
	session.SetState(entity.StateAwaitingFeedback)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("Image analyzed",
		zap.String("session", sessionID),
		zap.String("image", session.ImageName),
		zap.String("verdict", string(verdict)),
		zap.Int("detections", len(out.Detections)),
		zap.Int("defects", len(defects)),
		zap.Bool("crack", crack.Possible),
		zap.Int("long_contours", crack.LongContours),
		zap.Duration("took", s.now().Sub(started)))

	return &InspectionOutput{Result: result, Description: desc}, nil
}

// Current возвращает сессию с последним вердиктом
func (s *InspectionService) Current(ctx context.Context, sessionID string) (*entity.Session, error) {
	return s.sessions.Find(ctx, sessionID)
}

// Reset отбрасывает всё состояние анализа сессии
func (s *InspectionService) Reset(ctx context.Context, sessionID string, chatID int64) (*entity.Session, error) {
	session, err := s.sessions.Reset(ctx, sessionID, chatID)
	if err != nil {
		return nil, err
	}
	s.log.Info("Session reset", zap.String("session", sessionID))
	return session, nil
}

func (s *InspectionService) checkUpload(filename string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty upload", entity.ErrInvalidImage)
	}
	if s.cfg.MaxUploadSize > 0 && int64(len(data)) > s.cfg.MaxUploadSize {
		return fmt.Errorf("%w: file is larger than %d bytes", entity.ErrInvalidImage, s.cfg.MaxUploadSize)
	}
	if len(s.cfg.AllowedFormats) == 0 {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.cfg.AllowedFormats {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported format %q", entity.ErrInvalidImage, ext)
}
