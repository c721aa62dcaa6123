// Package memory stores conversation sessions so intent slots can be
// rebuilt from the full history on every inbound message.
package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	lcmemory "github.com/tmc/langchaingo/memory"

	"github.com/aturei/flowsynth/internal/models"
)

// Manager orchestrates conversation memory using Redis plus langchaingo
// conversation buffers. Buffers are a per-process cache; Redis is the
// source of truth.
type Manager struct {
	store Store

	mu       sync.Mutex
	sessions map[string]*lcmemory.ConversationBuffer
}

// NewManager creates a new memory manager
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sessions: make(map[string]*lcmemory.ConversationBuffer),
	}
}

// getOrCreateSession returns the cached langchaingo buffer for a
// session, hydrating it from Redis on first use.
func (m *Manager) getOrCreateSession(ctx context.Context, sessionID string) (*lcmemory.ConversationBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mem, exists := m.sessions[sessionID]; exists {
		return mem, nil
	}

	mem := lcmemory.NewConversationBuffer()

	sessionData, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	for _, msg := range sessionData.Messages {
		var chatMsg llms.ChatMessage

		switch msg.Role {
		case "user":
			chatMsg = llms.HumanChatMessage{Content: msg.Content}
		case "assistant":
			chatMsg = llms.AIChatMessage{Content: msg.Content}
		case "system":
			chatMsg = llms.SystemChatMessage{Content: msg.Content}
		default:
			log.Printf("Unknown message role %q, skipping", msg.Role)
			continue
		}

		if err := mem.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("failed to add message to memory: %w", err)
		}
	}

	m.sessions[sessionID] = mem

	return mem, nil
}

// SaveUserMessage saves a user message to both Redis and the buffer.
func (m *Manager) SaveUserMessage(ctx context.Context, sessionID, userID, message string) error {
	mem, err := m.getOrCreateSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := mem.ChatHistory.AddUserMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to add user message to memory: %w", err)
	}

	msg := Message{
		Role:      "user",
		Content:   message,
		Timestamp: time.Now(),
	}

	if err := m.store.SaveMessage(ctx, sessionID, userID, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// SaveAssistantMessage saves an assistant message to both Redis and the buffer.
func (m *Manager) SaveAssistantMessage(ctx context.Context, sessionID, userID, message string) error {
	mem, err := m.getOrCreateSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := mem.ChatHistory.AddAIMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to add assistant message to memory: %w", err)
	}

	msg := Message{
		Role:      "assistant",
		Content:   message,
		Timestamp: time.Now(),
	}

	if err := m.store.SaveMessage(ctx, sessionID, userID, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// LoadHistoryFromRequest replaces a session's memory with the history
// carried on a build request. Useful when the API server owns history.
func (m *Manager) LoadHistoryFromRequest(ctx context.Context, sessionID string, history []models.ConversationMessage) error {
	mem, err := m.getOrCreateSession(ctx, sessionID)
	if err != nil {
		return err
	}

	// Clear existing memory in case we're reloading
	if err := mem.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}

	for _, msg := range history {
		var chatMsg llms.ChatMessage

		switch msg.Role {
		case "user":
			chatMsg = llms.HumanChatMessage{Content: msg.Message}
		case "assistant":
			chatMsg = llms.AIChatMessage{Content: msg.Message}
		default:
			continue
		}

		if err := mem.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return fmt.Errorf("failed to add message: %w", err)
		}
	}

	return nil
}

// GetFormattedHistory returns conversation history as one formatted
// string, the form the slot extractor and planner prompt consume.
func (m *Manager) GetFormattedHistory(ctx context.Context, sessionID string) (string, error) {
	mem, err := m.getOrCreateSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	messages, err := mem.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}

	if len(messages) == 0 {
		return "", nil
	}

	var builder strings.Builder
	for _, msg := range messages {
		switch m := msg.(type) {
		case llms.HumanChatMessage:
			builder.WriteString(fmt.Sprintf("User: %s\n", m.Content))
		case llms.AIChatMessage:
			builder.WriteString(fmt.Sprintf("Assistant: %s\n", m.Content))
		case llms.SystemChatMessage:
			builder.WriteString(fmt.Sprintf("System: %s\n", m.Content))
		}
	}

	return builder.String(), nil
}

// MarkQuestionAsked records that the single allowed clarifying question
// went out for this session.
func (m *Manager) MarkQuestionAsked(ctx context.Context, sessionID string, asked bool) error {
	return m.store.SetPendingQuestion(ctx, sessionID, asked)
}

// QuestionAsked reports whether a clarifying question is outstanding.
func (m *Manager) QuestionAsked(ctx context.Context, sessionID string) (bool, error) {
	return m.store.PendingQuestion(ctx, sessionID)
}

// ClearSession clears a session from both cache and Redis
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if err := m.store.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return nil
}

// GetActiveSessionCount returns the number of cached sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes the underlying store
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
