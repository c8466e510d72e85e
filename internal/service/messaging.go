// Package service provides business logic for the messaging subsystem.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/contact"
	"github.com/temitope-ola/ProdTalent-sub003/internal/conversation"
	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/metrics"
)

// ErrValidation indicates a request was rejected before any store call.
var ErrValidation = errors.New("validation failed")

// Session is the authenticated user's view supplied by the identity
// provider. The core does not authenticate.
type Session struct {
	UserID string
	Email  string
	Role   model.Role
}

// MessageStore is the gateway the service needs from the document store.
type MessageStore interface {
	Append(ctx context.Context, msg model.Message) (model.Message, error)
	ListForRecipient(ctx context.Context, userID string) ([]model.Message, error)
	ListForSender(ctx context.Context, userID string) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID string) error
}

// Notifier dispatches outbound notifications after a successful append.
type Notifier interface {
	Dispatch(msg model.Message)
}

// MessagingService turns the flat message store into per-counterparty
// conversation threads, tracks read state, and triggers notifications on
// send.
type MessagingService struct {
	store    MessageStore
	resolver *contact.Resolver
	tracker  *conversation.Tracker
	notifier Notifier
	logger   *logger.Logger

	// Per-user conversation lists plus ephemeral seeds. The list is
	// replaced wholesale on every load and patched locally on send and
	// read-mark; seeds live only in memory and vanish on restart. A cache
	// entry can exist before the first load (a seed creates one), so
	// loaded is tracked separately.
	mu     sync.RWMutex
	cache  map[string][]model.Conversation
	seeds  map[string]map[string]model.Contact
	loaded map[string]bool
}

// NewMessagingService creates a messaging service.
func NewMessagingService(st MessageStore, resolver *contact.Resolver, tracker *conversation.Tracker, notifier Notifier, log *logger.Logger) *MessagingService {
	return &MessagingService{
		store:    st,
		resolver: resolver,
		tracker:  tracker,
		notifier: notifier,
		logger:   log,
		cache:    make(map[string][]model.Conversation),
		seeds:    make(map[string]map[string]model.Contact),
		loaded:   make(map[string]bool),
	}
}

// Send validates and persists one outbound message, then hands it to the
// notification dispatcher. The dispatcher is fire-and-forget: its failures
// never alter the returned message or error.
func (s *MessagingService) Send(ctx context.Context, sender Session, req *model.SendMessageRequest) (*model.Message, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: message body is empty", ErrValidation)
	}
	if req.RecipientID == "" {
		return nil, fmt.Errorf("%w: no recipient selected", ErrValidation)
	}
	if strings.ContainsRune(req.RecipientID, ':') {
		return nil, fmt.Errorf("%w: recipient id %q contains ':'", ErrValidation, req.RecipientID)
	}
	if strings.ContainsRune(sender.UserID, ':') {
		return nil, fmt.Errorf("%w: sender id %q contains ':'", ErrValidation, sender.UserID)
	}

	msg := model.Message{
		SenderID:    sender.UserID,
		RecipientID: req.RecipientID,
		Sender:      s.senderSnapshot(ctx, sender),
		Body:        req.Body,
	}

	stored, err := s.store.Append(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(stored.Sender.Role)).Inc()
	s.patchOnSend(ctx, sender.UserID, stored)
	s.notifier.Dispatch(stored)

	return &stored, nil
}

// senderSnapshot captures the sender's profile at send time. The identity
// partitions are the source of truth; session claims fill the gaps when the
// profile cannot be read.
func (s *MessagingService) senderSnapshot(ctx context.Context, sender Session) model.SenderSnapshot {
	c, err := s.resolver.Resolve(ctx, sender.UserID)
	if err != nil {
		s.logger.Warn("sender profile unresolved, snapshot built from session",
			zap.String("user_id", sender.UserID),
			zap.Error(err),
		)
		return model.SenderSnapshot{
			DisplayName: sender.Email,
			Email:       sender.Email,
			Role:        sender.Role,
		}
	}
	return model.SenderSnapshot{
		DisplayName: c.DisplayName,
		Email:       c.Email,
		Role:        c.Role,
		AvatarRef:   c.AvatarRef,
	}
}

// Conversations rebuilds the user's conversation list from the store and
// replaces the cached list wholesale. Ephemeral seeds that still have no
// history are carried over at the end of the list; seeds that gained real
// messages are folded into their thread and forgotten.
func (s *MessagingService) Conversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	received, err := s.store.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load received messages: %w", err)
	}
	sent, err := s.store.ListForSender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sent messages: %w", err)
	}

	list := conversation.Build(ctx, userID, received, sent, s.resolver.Pass())
	metrics.ConversationsBuilt.Observe(float64(len(list)))

	s.mu.Lock()
	for id, c := range s.seeds[userID] {
		if indexOf(list, id) >= 0 {
			delete(s.seeds[userID], id)
			continue
		}
		list = append(list, conversation.Seeded(id, c))
	}
	s.cache[userID] = list
	s.loaded[userID] = true
	out := cloneList(list)
	s.mu.Unlock()

	return out, nil
}

// Thread returns the conversation with one counterparty, rebuilding the
// cache if this user has not loaded yet. Returns store.ErrNotFound when no
// thread exists.
func (s *MessagingService) Thread(ctx context.Context, userID, counterpartyID string) (model.Conversation, error) {
	conv, ok, err := s.cachedConversation(ctx, userID, counterpartyID)
	if err != nil {
		return model.Conversation{}, err
	}
	if !ok {
		return model.Conversation{}, fmt.Errorf("conversation with %s: %w", counterpartyID, store.ErrNotFound)
	}
	return conv, nil
}

// Seed creates the ephemeral empty conversation for a counterparty the UI
// pre-selected. If a thread with that counterparty already exists the
// existing one is returned; duplicate conversations per counterparty are a
// defect.
func (s *MessagingService) Seed(ctx context.Context, userID, counterpartyID string) (model.Conversation, error) {
	c, err := s.resolver.Resolve(ctx, counterpartyID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return model.Conversation{}, fmt.Errorf("resolve counterparty: %w", err)
		}
		s.logger.Warn("seeding conversation with unresolved counterparty",
			zap.String("counterparty_id", counterpartyID),
		)
		c = model.PlaceholderContact(counterpartyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.cache[userID], counterpartyID); i >= 0 {
		return cloneConversation(s.cache[userID][i]), nil
	}

	if s.seeds[userID] == nil {
		s.seeds[userID] = make(map[string]model.Contact)
	}
	s.seeds[userID][counterpartyID] = c

	conv := conversation.Seeded(counterpartyID, c)
	// Freshly seeded threads go to the front; on later rebuilds a
	// still-empty seed sorts after all real conversations.
	s.cache[userID] = append([]model.Conversation{conv}, s.cache[userID]...)
	return conv, nil
}

// MarkConversationRead marks the thread's unread received messages as read
// and returns the optimistically patched conversation. Per-message store
// failures are contained by the tracker.
func (s *MessagingService) MarkConversationRead(ctx context.Context, userID, counterpartyID string) (model.Conversation, error) {
	conv, ok, err := s.cachedConversation(ctx, userID, counterpartyID)
	if err != nil {
		return model.Conversation{}, err
	}
	if !ok {
		return model.Conversation{}, fmt.Errorf("conversation with %s: %w", counterpartyID, store.ErrNotFound)
	}

	// Store writes run on the copy; the cache entry is swapped afterwards.
	s.tracker.MarkConversationRead(ctx, userID, &conv)

	s.mu.Lock()
	if i := indexOf(s.cache[userID], counterpartyID); i >= 0 {
		s.cache[userID][i] = conv
	}
	out := cloneConversation(conv)
	s.mu.Unlock()

	return out, nil
}

// cachedConversation returns a copy of the cached thread, loading the user's
// list first if necessary.
func (s *MessagingService) cachedConversation(ctx context.Context, userID, counterpartyID string) (model.Conversation, bool, error) {
	s.mu.RLock()
	list := s.cache[userID]
	loaded := s.loaded[userID]
	i := indexOf(list, counterpartyID)
	var conv model.Conversation
	if i >= 0 {
		conv = cloneConversation(list[i])
	}
	s.mu.RUnlock()

	if i >= 0 {
		return conv, true, nil
	}
	if loaded {
		return model.Conversation{}, false, nil
	}

	if _, err := s.Conversations(ctx, userID); err != nil {
		return model.Conversation{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.cache[userID], counterpartyID); i >= 0 {
		return cloneConversation(s.cache[userID][i]), true, nil
	}
	return model.Conversation{}, false, nil
}

// patchOnSend keeps the cached view coherent without a reload: the sent
// message joins its thread, the thread moves to the front, and any seed for
// that counterparty is consumed.
func (s *MessagingService) patchOnSend(ctx context.Context, userID string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded, hadSeed := s.seeds[userID][msg.RecipientID]
	delete(s.seeds[userID], msg.RecipientID)

	list := s.cache[userID]
	if list == nil {
		// Nothing loaded yet; the next rebuild picks the message up.
		return
	}

	i := indexOf(list, msg.RecipientID)
	if i < 0 {
		c := seeded
		if !hadSeed {
			c = s.counterpartyContact(ctx, msg.RecipientID)
		}
		conv := conversation.Seeded(msg.RecipientID, c)
		conv.Messages = []model.Message{msg}
		conv.LastMessage = &conv.Messages[0]
		s.cache[userID] = append([]model.Conversation{conv}, list...)
		return
	}

	conv := list[i]
	conv.Messages = append(conv.Messages, msg)
	conv.LastMessage = &conv.Messages[len(conv.Messages)-1]
	copy(list[1:i+1], list[:i])
	list[0] = conv
}

// counterpartyContact resolves a counterparty for a locally patched thread.
// The placeholder stands in until the next rebuild when the profile cannot be
// read.
func (s *MessagingService) counterpartyContact(ctx context.Context, id string) model.Contact {
	c, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("counterparty unresolved for cache patch",
				zap.String("counterparty_id", id),
				zap.Error(err),
			)
		}
		return model.PlaceholderContact(id)
	}
	return c
}

func indexOf(list []model.Conversation, counterpartyID string) int {
	for i := range list {
		if list[i].CounterpartyID == counterpartyID {
			return i
		}
	}
	return -1
}

func cloneConversation(conv model.Conversation) model.Conversation {
	out := conv
	out.Messages = make([]model.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	if len(out.Messages) > 0 {
		out.LastMessage = &out.Messages[len(out.Messages)-1]
	}
	return out
}

func cloneList(list []model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(list))
	for i, conv := range list {
		out[i] = cloneConversation(conv)
	}
	return out
}
