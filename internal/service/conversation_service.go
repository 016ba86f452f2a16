package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"taste-test/internal/domain"
	"taste-test/internal/llm"
	"taste-test/internal/ocr"
	"taste-test/internal/transcript"
)

// NotRecognizedMessage se muestra cuando la foto no contiene texto legible.
const NotRecognizedMessage = "Sorry, I couldn't recognize a menu in that photo. Try another picture with the menu text clear and in focus."

var (
	ErrTurnInFlight                     = errors.New("a turn is already in progress for this conversation")
	ErrConversationServiceNotConfigured = errors.New("conversation service not configured")
	ErrImageRequired                    = errors.New("image required")
)

// TurnResult lista las entradas agregadas por un turno, en orden.
type TurnResult struct {
	Entries []domain.ChatEntry `json:"entries"`
	// Answered es false cuando no se obtuvo respuesta del LLM.
	Answered bool `json:"answered"`
}

// ConversationService orquesta cada accion del usuario: OCR, llamada al LLM y
// appends al transcript. Admite un solo turno en curso por conversacion.
type ConversationService struct {
	logger      *zap.Logger
	transcripts *transcript.Store
	recommender llm.Recommender
	recognizer  ocr.Recognizer

	mu     sync.Mutex
	guards map[string]*semaphore.Weighted
}

func NewConversationService(logger *zap.Logger, transcripts *transcript.Store, recommender llm.Recommender, recognizer ocr.Recognizer) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		logger:      logger,
		transcripts: transcripts,
		recommender: recommender,
		recognizer:  recognizer,
		guards:      make(map[string]*semaphore.Weighted),
	}
}

func (s *ConversationService) CreateConversation(ctx context.Context, userID string) (domain.Conversation, error) {
	if s == nil || s.transcripts == nil {
		return domain.Conversation{}, ErrConversationServiceNotConfigured
	}
	return s.transcripts.Create(ctx, userID)
}

func (s *ConversationService) Conversation(ctx context.Context, conversationID string) (domain.Conversation, error) {
	if s == nil || s.transcripts == nil {
		return domain.Conversation{}, ErrConversationServiceNotConfigured
	}
	return s.transcripts.Conversation(ctx, conversationID)
}

func (s *ConversationService) Entries(ctx context.Context, conversationID string) ([]domain.ChatEntry, error) {
	if s == nil || s.transcripts == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	return s.transcripts.Entries(ctx, conversationID)
}

func (s *ConversationService) Subscribe(ctx context.Context, conversationID string) (<-chan domain.ChatEntry, func(), error) {
	if s == nil || s.transcripts == nil {
		return nil, nil, ErrConversationServiceNotConfigured
	}
	return s.transcripts.Subscribe(ctx, conversationID)
}

// SubmitUserText agrega el mensaje del usuario y, si el LLM responde, la respuesta.
// Texto vacio o solo espacios no hace nada.
func (s *ConversationService) SubmitUserText(ctx context.Context, conversationID, text string) (TurnResult, error) {
	if s == nil || s.transcripts == nil || s.recommender == nil {
		return TurnResult{}, ErrConversationServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, nil
	}
	conv, err := s.transcripts.Conversation(ctx, conversationID)
	if err != nil {
		return TurnResult{}, err
	}
	conversationID = conv.ID

	release, ok := s.acquire(conversationID)
	if !ok {
		return TurnResult{}, ErrTurnInFlight
	}
	defer release()

	userEntry, err := s.transcripts.Append(ctx, conversationID, domain.EntryUserText, text, nil)
	if err != nil {
		return TurnResult{}, err
	}
	result := TurnResult{Entries: []domain.ChatEntry{userEntry}}

	history, err := s.transcripts.Entries(ctx, conversationID)
	if err != nil {
		return result, err
	}
	return s.complete(ctx, conversationID, history, "", result)
}

// SubmitImage agrega la foto al instante, corre OCR y pide recomendaciones con el
// texto reconocido. El texto del OCR no se agrega como entrada visible.
func (s *ConversationService) SubmitImage(ctx context.Context, conversationID string, img domain.Image) (TurnResult, error) {
	if s == nil || s.transcripts == nil || s.recommender == nil || s.recognizer == nil {
		return TurnResult{}, ErrConversationServiceNotConfigured
	}
	if len(img.Data) == 0 {
		return TurnResult{}, ErrImageRequired
	}
	conv, err := s.transcripts.Conversation(ctx, conversationID)
	if err != nil {
		return TurnResult{}, err
	}
	conversationID = conv.ID

	release, ok := s.acquire(conversationID)
	if !ok {
		return TurnResult{}, ErrTurnInFlight
	}
	defer release()

	imageEntry, err := s.transcripts.Append(ctx, conversationID, domain.EntryUserImage, "", &img)
	if err != nil {
		return TurnResult{}, err
	}
	result := TurnResult{Entries: []domain.ChatEntry{imageEntry}}

	menuText, err := s.recognizer.Recognize(ctx, img)
	if err != nil {
		s.logger.Warn("ocr failed", zap.String("conversation_id", conversationID), zap.Error(err))
		menuText = ""
	}
	menuText = strings.TrimSpace(menuText)

	if menuText == "" {
		s.logger.Info("no menu text recognized", zap.String("conversation_id", conversationID))
		entry, err := s.transcripts.Append(ctx, conversationID, domain.EntryAssistantText, NotRecognizedMessage, nil)
		if err != nil {
			return result, err
		}
		result.Entries = append(result.Entries, entry)
		return result, nil
	}

	history, err := s.transcripts.Entries(ctx, conversationID)
	if err != nil {
		return result, err
	}
	return s.complete(ctx, conversationID, history, menuText, result)
}

func (s *ConversationService) complete(ctx context.Context, conversationID string, history []domain.ChatEntry, extra string, result TurnResult) (TurnResult, error) {
	reply, err := s.recommender.Recommend(ctx, history, extra)
	if err != nil {
		s.logger.Error("completion failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return result, nil
	}

	entry, err := s.transcripts.Append(ctx, conversationID, domain.EntryAssistantText, reply, nil)
	if err != nil {
		return result, err
	}
	result.Entries = append(result.Entries, entry)
	result.Answered = true
	return result, nil
}

// acquire toma el turno de la conversacion. Al liberar, el guard sale del mapa y
// el transcript puede desalojarse de memoria.
func (s *ConversationService) acquire(conversationID string) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guard, ok := s.guards[conversationID]
	if !ok {
		guard = semaphore.NewWeighted(1)
		s.guards[conversationID] = guard
	}
	if !guard.TryAcquire(1) {
		return nil, false
	}
	return func() {
		s.mu.Lock()
		guard.Release(1)
		delete(s.guards, conversationID)
		s.mu.Unlock()
		s.transcripts.Evict(conversationID)
	}, true
}

// inFlight cuenta las conversaciones con un turno en curso.
func (s *ConversationService) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guards)
}
