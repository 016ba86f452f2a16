package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taste-test/internal/domain"
	"taste-test/internal/markdown"
	"taste-test/internal/service"
	"taste-test/internal/transcript"
)

// maxImageBytes limita el tamano de la foto subida.
const maxImageBytes = 10 << 20

// ChatHandler mantiene dependencias para endpoints de conversaciones.
type ChatHandler struct {
	logger        *zap.Logger
	conversations *service.ConversationService
	heartbeat     time.Duration
}

func NewChatHandler(logger *zap.Logger, conversations *service.ConversationService) *ChatHandler {
	return &ChatHandler{
		logger:        logger,
		conversations: conversations,
		heartbeat:     25 * time.Second,
	}
}

// entryView es la entrada tal como la consume un cliente: texto ya normalizado
// y la URL de la imagen en vez de los bytes.
type entryView struct {
	domain.ChatEntry
	DisplayText string `json:"display_text,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

func newEntryView(e domain.ChatEntry) entryView {
	v := entryView{ChatEntry: e}
	if e.Kind.HasText() {
		v.DisplayText = markdown.Normalize(e.Text)
	}
	if e.Kind == domain.EntryUserImage {
		v.ImageURL = "/conversations/" + e.ConversationID + "/entries/" + e.ID + "/image"
	}
	return v
}

func newEntryViews(entries []domain.ChatEntry) []entryView {
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryView(e))
	}
	return out
}

// CreateConversation maneja POST /conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	conv, err := h.conversations.CreateConversation(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("create conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

// ListEntries maneja GET /conversations/:id/entries.
func (h *ChatHandler) ListEntries(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	entries, err := h.conversations.Entries(c.Request.Context(), conv.ID)
	if err != nil {
		h.respondError(c, err, "could not list entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": newEntryViews(entries)})
}

// PostMessage maneja POST /conversations/:id/messages.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.conversations.SubmitUserText(c.Request.Context(), conv.ID, req.Text)
	if err != nil {
		h.respondError(c, err, "could not post message")
		return
	}
	h.respondTurn(c, result)
}

// PostImage maneja POST /conversations/:id/images (multipart, campo "image").
func (h *ChatHandler) PostImage(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+(1<<20))

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	if header.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "file is not an image"})
		return
	}

	result, err := h.conversations.SubmitImage(c.Request.Context(), conv.ID, domain.Image{
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.respondError(c, err, "could not post image")
		return
	}
	h.respondTurn(c, result)
}

// GetImage maneja GET /conversations/:id/entries/:entry_id/image.
func (h *ChatHandler) GetImage(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	entries, err := h.conversations.Entries(c.Request.Context(), conv.ID)
	if err != nil {
		h.respondError(c, err, "could not load image")
		return
	}
	entryID := c.Param("entry_id")
	for _, e := range entries {
		if e.ID != entryID {
			continue
		}
		if e.Image == nil || len(e.Image.Data) == 0 {
			break
		}
		c.Header("Cache-Control", "private, max-age=86400")
		c.Data(http.StatusOK, e.Image.ContentType, e.Image.Data)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
}

// Events maneja GET /conversations/:id/events: un evento "entry" por cada append.
func (h *ChatHandler) Events(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	updates, cancel, err := h.conversations.Subscribe(ctx, conv.ID)
	if err != nil {
		h.respondError(c, err, "could not subscribe")
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case entry, open := <-updates:
			if !open {
				return false
			}
			c.SSEvent("entry", newEntryView(entry))
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
}

// ownedConversation responde 404 si la conversacion no existe o es de otro usuario.
func (h *ChatHandler) ownedConversation(c *gin.Context) (domain.Conversation, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return domain.Conversation{}, false
	}
	conv, err := h.conversations.Conversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "could not load conversation")
		return domain.Conversation{}, false
	}
	if conv.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return domain.Conversation{}, false
	}
	return conv, true
}

func (h *ChatHandler) respondTurn(c *gin.Context, result service.TurnResult) {
	status := http.StatusCreated
	if len(result.Entries) == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"entries":  newEntryViews(result.Entries),
		"answered": result.Answered,
	})
}

func (h *ChatHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, transcript.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, service.ErrTurnInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrImageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
