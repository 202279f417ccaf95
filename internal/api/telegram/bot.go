package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "weld-inspector/internal/application"
	"weld-inspector/internal/container"
	"weld-inspector/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для контроля сварных швов.

📸 Отправьте фото шва, и я оценю его: GOOD, DEFECTIVE или UNCERTAIN.

📋 Команды:
/check — начать проверку шва
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото шва
2️⃣ Бот найдёт дефекты моделью и проверит контуры на трещины
3️⃣ Вы получите вердикт, фото с разметкой и карту границ
4️⃣ Оцените результат кнопками под вердиктом

✏️ Если дефект пропущен, укажите его название и рамку в пикселях:
porosity 120 80 40 30
Несколько рамок перечисляются через «;»:
porosity 120 80 40 30; 300 90 25 25

📋 Команды:
/check — начать проверку
/cancel — отменить операцию`

	msgAwaitingPhoto       = "📸 Отправьте фото шва для проверки."
	msgCancelled           = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto           = "📸 Пожалуйста, отправьте фото шва для проверки."
	msgUnknownCommand      = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing          = "⏳ Обрабатываю изображение..."
	msgProcessingError     = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgInvalidImage        = "⚠️ Не удалось прочитать изображение. Отправьте фото в формате JPG или PNG."
	msgDetectorUnavailable = "⚠️ Модель детектора недоступна. Попробуйте позже."
	msgRateVerdict         = "Верен ли вердикт?"
	msgFeedbackAgree       = "👍 Спасибо! Вердикт подтверждён."
	msgFeedbackNoDefect    = "✅ Записано: шов без дефектов."
	msgMissedPrompt        = "✏️ Укажите пропущенный дефект: название и рамку x y w h.\nНапример: porosity 120 80 40 30\nНесколько рамок через «;»."
	msgMissedSaved         = "💾 Сохранено рамок: %d. Отправьте /check для новой проверки."
	msgBadCorrection       = "⚠️ Не удалось разобрать ввод: %v\nФормат: название x y w h; x y w h"
	msgStoreError          = "⚠️ Не удалось сохранить оценку. Вердикт не изменился, попробуйте ещё раз."
	msgNothingToRate       = "Нет вердикта для оценки. Отправьте /check."
	msgOverlayCaption      = "Разметка детектора"
	msgEdgesCaption        = "Карта границ"
)

const (
	callbackPrefix = "fb:"
	downloadLimit  = 20 << 20
)

// botAPI — часть tgbotapi.BotAPI, которой пользуются обработчики
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	tg         *tgbotapi.BotAPI
	api        botAPI
	sessions   *app.SessionService
	inspection *app.InspectionService
	feedback   *app.FeedbackService
	client     *http.Client
	log        *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, log *zap.Logger) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("Authorized on account", zap.String("username", tg.Self.UserName))

	b := newBot(tg, c, log)
	b.tg = tg
	return b, nil
}

func newBot(api botAPI, c *container.Container, log *zap.Logger) *Bot {
	return &Bot{
		api:        api,
		sessions:   c.SessionService,
		inspection: c.InspectionService,
		feedback:   c.FeedbackService,
		client:     &http.Client{Timeout: time.Minute},
		log:        log,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// sessionID — у каждого пользователя Telegram своя сессия
func sessionID(userID int64) string {
	return fmt.Sprintf("tg-%d", userID)
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	session, err := b.sessions.Get(ctx, sessionID(msg.From.ID), msg.Chat.ID)
	if err != nil {
		b.log.Error("Error getting session", zap.Int64("user", msg.From.ID), zap.Error(err))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, session)
		return
	}

	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg.Chat.ID, session, photo.FileID, "photo.jpg")
		return
	}

	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		b.handleImage(ctx, msg.Chat.ID, session, doc.FileID, doc.FileName)
		return
	}

	if session.State == entity.StateAwaitingMissedDefect {
		b.handleCorrection(ctx, msg, session)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, session *entity.Session) {
	switch msg.Command() {
	case "start":
		b.reset(ctx, session)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := b.sessions.BeginCheck(ctx, session.ID, session.ChatID); err != nil {
			b.log.Error("Failed to begin check", zap.String("session", session.ID), zap.Error(err))
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		b.reset(ctx, session)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleImage загружает фото, анализирует его и показывает вердикт
func (b *Bot) handleImage(ctx context.Context, chatID int64, session *entity.Session, fileID, filename string) {
	b.setState(ctx, session, entity.StateProcessing)
	b.sendMessage(chatID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.log.Error("Error downloading photo", zap.String("session", session.ID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		b.setState(ctx, session, entity.StateMainMenu)
		return
	}

	if _, err := b.inspection.AcceptImage(ctx, session.ID, chatID, filename, imageData); err != nil {
		b.sendMessage(chatID, errorMessage(err))
		b.setState(ctx, session, entity.StateMainMenu)
		return
	}

	out, err := b.inspection.Analyze(ctx, session.ID)
	if err != nil {
		b.sendMessage(chatID, errorMessage(err))
		b.setState(ctx, session, entity.StateMainMenu)
		return
	}

	b.sendMessage(chatID, out.Description.Text)

	if len(out.Result.Overlay) > 0 {
		b.sendPhoto(chatID, "overlay.jpg", out.Result.Overlay, msgOverlayCaption)
	}
	if len(out.Result.EdgeMap) > 0 {
		b.sendPhoto(chatID, "edges.png", out.Result.EdgeMap, msgEdgesCaption)
	}

	rate := tgbotapi.NewMessage(chatID, msgRateVerdict)
	rate.ReplyMarkup = feedbackKeyboard()
	b.send(rate)
}

// handleCallback обрабатывает нажатие кнопки оценки
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	mode, ok := strings.CutPrefix(cb.Data, callbackPrefix)
	if !ok {
		b.answer(cb.ID, "")
		return
	}

	session, err := b.sessions.Get(ctx, sessionID(cb.From.ID), chatID)
	if err != nil {
		b.log.Error("Error getting session", zap.Int64("user", cb.From.ID), zap.Error(err))
		b.answer(cb.ID, "")
		return
	}

	if session.State != entity.StateAwaitingFeedback || !session.Analyzed() {
		b.answer(cb.ID, msgNothingToRate)
		return
	}

	// Кнопки больше не нужны, повторное нажатие не должно писать строку дважды
	b.request(tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))

	switch app.FeedbackMode(mode) {
	case app.FeedbackMissedDefect:
		b.setState(ctx, session, entity.StateAwaitingMissedDefect)
		b.answer(cb.ID, "")
		b.sendMessage(chatID, msgMissedPrompt)

	case app.FeedbackAgree, app.FeedbackFalsePositive:
		if _, err := b.feedback.Submit(ctx, session.ID, app.Feedback{Mode: app.FeedbackMode(mode)}); err != nil {
			b.answer(cb.ID, "")
			b.sendMessage(chatID, errorMessage(err))
			return
		}
		b.setState(ctx, session, entity.StateMainMenu)
		b.answer(cb.ID, "")
		if app.FeedbackMode(mode) == app.FeedbackAgree {
			b.sendMessage(chatID, msgFeedbackAgree)
		} else {
			b.sendMessage(chatID, msgFeedbackNoDefect)
		}

	default:
		b.answer(cb.ID, "")
	}
}

// handleCorrection принимает описание пропущенного дефекта
func (b *Bot) handleCorrection(ctx context.Context, msg *tgbotapi.Message, session *entity.Session) {
	name, boxes, err := ParseCorrection(msg.Text)
	if err != nil {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgBadCorrection, err))
		return
	}

	written, err := b.feedback.Submit(ctx, session.ID, app.Feedback{
		Mode:       app.FeedbackMissedDefect,
		DefectType: name,
		Boxes:      boxes,
	})
	if err != nil {
		if errors.Is(err, entity.ErrValidation) {
			b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgBadCorrection, err))
			return
		}
		b.sendMessage(msg.Chat.ID, errorMessage(err))
		return
	}

	b.setState(ctx, session, entity.StateMainMenu)
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgMissedSaved, written))
}

func feedbackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ AI прав", callbackPrefix+string(app.FeedbackAgree)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ AI ошибся, дефекта нет", callbackPrefix+string(app.FeedbackFalsePositive)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Пропущен дефект", callbackPrefix+string(app.FeedbackMissedDefect)),
		),
	)
}

// errorMessage подбирает текст для оператора по классу ошибки
func errorMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidImage):
		return msgInvalidImage
	case errors.Is(err, entity.ErrDetectorUnavailable):
		return msgDetectorUnavailable
	case errors.Is(err, entity.ErrStoreWrite):
		return msgStoreError
	case errors.Is(err, entity.ErrNotAnalyzed), errors.Is(err, entity.ErrNoImage):
		return msgNothingToRate
	default:
		return msgProcessingError
	}
}

func (b *Bot) reset(ctx context.Context, session *entity.Session) {
	if _, err := b.inspection.Reset(ctx, session.ID, session.ChatID); err != nil {
		b.log.Error("Failed to reset session", zap.String("session", session.ID), zap.Error(err))
	}
}

func (b *Bot) setState(ctx context.Context, session *entity.Session, state entity.SessionState) {
	if _, err := b.sessions.SetState(ctx, session.ID, session.ChatID, state); err != nil {
		b.log.Error("Failed to save session state",
			zap.String("session", session.ID),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, downloadLimit))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendPhoto(chatID int64, name string, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	b.send(photo)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error("Error sending message", zap.Error(err))
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.log.Warn("Telegram request failed", zap.Error(err))
	}
}

func (b *Bot) answer(callbackID, text string) {
	b.request(tgbotapi.NewCallback(callbackID, text))
}
