// Package transcript guarda el historial append-only de cada conversacion.
package transcript

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"taste-test/internal/domain"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidEntry         = errors.New("invalid entry")
)

// Repository persiste conversaciones y entradas. nil deja el store solo en memoria.
type Repository interface {
	CreateConversation(ctx context.Context, conv domain.Conversation) error
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)
	AppendEntry(ctx context.Context, entry domain.ChatEntry) error
	ListEntries(ctx context.Context, conversationID string) ([]domain.ChatEntry, error)
}

// subscriberBuffer es la cantidad de eventos pendientes antes de descartar.
const subscriberBuffer = 32

type conversation struct {
	// mu cubre el estado mutable. Nunca se toma s.mu con mu tomado.
	mu      sync.Mutex
	meta    domain.Conversation
	entries []domain.ChatEntry
	subs    map[int]chan domain.ChatEntry
	nextSub int
	evicted bool
}

// Store mantiene los transcripts en memoria y, si hay repo, escribe primero en el.
// s.mu solo protege el mapa; cada conversacion serializa sus propios appends.
type Store struct {
	mu    sync.Mutex
	repo  Repository
	convs map[string]*conversation
	now   func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo:  repo,
		convs: make(map[string]*conversation),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create abre una conversacion nueva para userID (vacio en la app local).
func (s *Store) Create(ctx context.Context, userID string) (domain.Conversation, error) {
	conv := domain.Conversation{
		ID:        ulid.Make().String(),
		UserID:    strings.TrimSpace(userID),
		CreatedAt: s.now(),
	}
	if s.repo != nil {
		if err := s.repo.CreateConversation(ctx, conv); err != nil {
			return domain.Conversation{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = &conversation{meta: conv, subs: make(map[int]chan domain.ChatEntry)}
	return conv, nil
}

// Conversation devuelve los metadatos de la conversacion.
func (s *Store) Conversation(ctx context.Context, id string) (domain.Conversation, error) {
	c, err := s.acquire(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer c.mu.Unlock()
	return c.meta, nil
}

// Entries devuelve una copia del transcript en orden de append.
func (s *Store) Entries(ctx context.Context, id string) ([]domain.ChatEntry, error) {
	c, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	return append([]domain.ChatEntry(nil), c.entries...), nil
}

// Append agrega una entrada al final del transcript y notifica a los suscriptores.
func (s *Store) Append(ctx context.Context, id string, kind domain.EntryKind, text string, img *domain.Image) (domain.ChatEntry, error) {
	if !kind.Valid() {
		return domain.ChatEntry{}, ErrInvalidEntry
	}
	if kind == domain.EntryUserImage {
		if img == nil {
			return domain.ChatEntry{}, ErrInvalidEntry
		}
		text = ""
	} else {
		img = nil
	}

	c, err := s.acquire(ctx, id)
	if err != nil {
		return domain.ChatEntry{}, err
	}
	// El lock de la conversacion cubre la escritura al repo para que seq refleje el orden real.
	defer c.mu.Unlock()

	entry := domain.ChatEntry{
		ID:             ulid.Make().String(),
		ConversationID: c.meta.ID,
		Seq:            len(c.entries) + 1,
		Kind:           kind,
		Text:           text,
		Image:          img,
		CreatedAt:      s.now(),
	}
	if s.repo != nil {
		if err := s.repo.AppendEntry(ctx, entry); err != nil {
			return domain.ChatEntry{}, err
		}
	}
	c.entries = append(c.entries, entry)

	for _, ch := range c.subs {
		select {
		case ch <- entry:
		default:
		}
	}
	return entry, nil
}

// Subscribe recibe cada entrada agregada despues de la llamada. cancel cierra el canal.
func (s *Store) Subscribe(ctx context.Context, id string) (<-chan domain.ChatEntry, func(), error) {
	c, err := s.acquire(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer c.mu.Unlock()

	subID := c.nextSub
	c.nextSub++
	ch := make(chan domain.ChatEntry, subscriberBuffer)
	c.subs[subID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, subID)
			close(ch)
		})
	}
	return ch, cancel, nil
}

// Evict saca la conversacion de memoria si nadie la escucha. Solo aplica con repo,
// que es de donde se vuelve a cargar.
func (s *Store) Evict(id string) bool {
	if s.repo == nil {
		return false
	}
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) > 0 {
		return false
	}
	c.evicted = true
	delete(s.convs, id)
	return true
}

// cached indica si la conversacion esta en memoria.
func (s *Store) cached(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.convs[id]
	return ok
}

// acquire devuelve la conversacion con su lock tomado. Si otra goroutine la
// desalojo entre la carga y el lock, vuelve a cargarla.
func (s *Store) acquire(ctx context.Context, id string) (*conversation, error) {
	for {
		c, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if !c.evicted {
			return c, nil
		}
		c.mu.Unlock()
	}
}

func (s *Store) load(ctx context.Context, id string) (*conversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrConversationNotFound
	}

	s.mu.Lock()
	c, ok := s.convs[id]
	s.mu.Unlock()
	if ok {
		return c, nil
	}
	if s.repo == nil {
		return nil, ErrConversationNotFound
	}

	meta, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.convs[id]; ok {
		return existing, nil
	}
	c = &conversation{meta: meta, entries: entries, subs: make(map[int]chan domain.ChatEntry)}
	s.convs[id] = c
	return c, nil
}
