package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "weld-inspector/internal/application"
	"weld-inspector/internal/container"
	"weld-inspector/internal/domain/entity"
)

type Handler struct {
	sessions   *app.SessionService
	inspection *app.InspectionService
	feedback   *app.FeedbackService
	names      entity.ClassNames
	maxUpload  int64
	log        *zap.Logger
}

func NewHandler(c *container.Container, maxUpload int64, log *zap.Logger) *Handler {
	return &Handler{
		sessions:   c.SessionService,
		inspection: c.InspectionService,
		feedback:   c.FeedbackService,
		names:      c.ClassNames,
		maxUpload:  maxUpload,
		log:        log,
	}
}

type defectResponse struct {
	Label      string              `json:"label"`
	Source     entity.DefectSource `json:"source"`
	ClassID    int                 `json:"class_id"`
	Confidence float64             `json:"confidence"`
}

type detectionResponse struct {
	Label      string     `json:"label"`
	ClassID    int        `json:"class_id"`
	Confidence float64    `json:"confidence"`
	Box        entity.Box `json:"box"`
}

type resultResponse struct {
	Verdict     entity.Verdict      `json:"verdict"`
	Defects     []defectResponse    `json:"defects"`
	Detections  []detectionResponse `json:"detections"`
	Crack       bool                `json:"crack"`
	ImageWidth  int                 `json:"image_width"`
	ImageHeight int                 `json:"image_height"`
	Summary     string              `json:"summary,omitempty"`
}

type sessionResponse struct {
	ID        string              `json:"id"`
	State     entity.SessionState `json:"state"`
	ImageName string              `json:"image_name,omitempty"`
	Result    *resultResponse     `json:"result,omitempty"`
}

type feedbackRequest struct {
	Mode       string       `json:"mode" binding:"required"`
	DefectType string       `json:"defect_type"`
	Boxes      []entity.Box `json:"boxes"`
}

type labelResponse struct {
	ImageName  string      `json:"image_name"`
	DefectType string      `json:"defect_type"`
	Box        *entity.Box `json:"box"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) CreateSession(c *gin.Context) {
	session, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to create session", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": session.ID})
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.inspection.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get session", err)
		return
	}
	c.JSON(http.StatusOK, h.session(session))
}

func (h *Handler) ResetSession(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.sessions.Find(ctx, id); err != nil {
		h.fail(c, "Failed to reset session", err)
		return
	}
	session, err := h.inspection.Reset(ctx, id, 0)
	if err != nil {
		h.fail(c, "Failed to reset session", err)
		return
	}
	c.JSON(http.StatusOK, h.session(session))
}

func (h *Handler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.sessions.Find(ctx, id); err != nil {
		h.fail(c, "Failed to upload image", err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, "Failed to open file", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, "Failed to read file", err)
		return
	}

	session, err := h.inspection.AcceptImage(ctx, id, 0, file.Filename, data)
	if err != nil {
		h.fail(c, "Failed to accept image", err)
		return
	}

	c.JSON(http.StatusOK, h.session(session))
}

func (h *Handler) Analyze(c *gin.Context) {
	out, err := h.inspection.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to analyze image", err)
		return
	}

	resp := h.result(out.Result)
	if out.Description != nil {
		resp.Summary = out.Description.Text
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Overlay(c *gin.Context) {
	h.image(c, "image/jpeg", func(r *entity.InspectionResult) []byte { return r.Overlay })
}

func (h *Handler) EdgeMap(c *gin.Context) {
	h.image(c, "image/png", func(r *entity.InspectionResult) []byte { return r.EdgeMap })
}

func (h *Handler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback: " + err.Error()})
		return
	}

	written, err := h.feedback.Submit(c.Request.Context(), c.Param("id"), app.Feedback{
		Mode:       app.FeedbackMode(req.Mode),
		DefectType: req.DefectType,
		Boxes:      req.Boxes,
	})
	if err != nil {
		h.fail(c, "Failed to record feedback", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feedback recorded", "rows": written})
}

func (h *Handler) ListLabels(c *gin.Context) {
	rows, err := h.feedback.Labels(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list labels", err)
		return
	}

	labels := make([]labelResponse, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, labelResponse{ImageName: row.ImageName, DefectType: row.DefectType, Box: row.Box})
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

func (h *Handler) image(c *gin.Context, contentType string, pick func(*entity.InspectionResult) []byte) {
	session, err := h.inspection.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get session", err)
		return
	}
	if !session.Analyzed() {
		h.fail(c, "Image requested before analysis", entity.ErrNotAnalyzed)
		return
	}

	data := pick(session.Result)
	if len(data) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image is not available"})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) session(s *entity.Session) sessionResponse {
	resp := sessionResponse{ID: s.ID, State: s.State, ImageName: s.ImageName}
	if s.Result != nil {
		resp.Result = h.result(s.Result)
	}
	return resp
}

func (h *Handler) result(r *entity.InspectionResult) *resultResponse {
	resp := &resultResponse{
		Verdict:     r.Verdict,
		Defects:     make([]defectResponse, 0, len(r.Defects)),
		Detections:  make([]detectionResponse, 0, len(r.Detections)),
		Crack:       r.Crack,
		ImageWidth:  r.ImageWidth,
		ImageHeight: r.ImageHeight,
	}
	for _, d := range r.Defects {
		resp.Defects = append(resp.Defects, defectResponse{
			Label:      d.Label(h.names),
			Source:     d.Source,
			ClassID:    d.ClassID,
			Confidence: d.Confidence,
		})
	}
	for _, d := range r.Detections {
		resp.Detections = append(resp.Detections, detectionResponse{
			Label:      h.names.Name(d.ClassID),
			ClassID:    d.ClassID,
			Confidence: d.Confidence,
			Box:        d.Box,
		})
	}
	return resp
}

// fail переводит ошибку домена в HTTP-ответ
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.log.Warn(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidImage),
		errors.Is(err, entity.ErrNoImage),
		errors.Is(err, entity.ErrNotAnalyzed):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrDetectorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
