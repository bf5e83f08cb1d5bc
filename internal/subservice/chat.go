package subservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/service"
)

// ChatSession is the state of an open support chat.
type ChatSession struct {
	ID          string
	DisplayName string
	OpenedAt    time.Time
	Unread      int
}

// Chat keeps at most one chat session. The session holds personal data and
// is closed when the registration gets disabled.
type Chat struct {
	gate   *gate
	clock  clockwork.Clock
	logger *logger.Logger

	mu      sync.Mutex
	session *ChatSession
}

// NewChat returns a chat subservice without a session.
func NewChat(source service.RegistrationStatusSource, clock clockwork.Clock, log *logger.Logger) *Chat {
	return &Chat{gate: newGate("chat", source, log), clock: clock, logger: log}
}

func (c *Chat) Name() string { return "chat" }

// Open returns the open session or starts a new one.
func (c *Chat) Open(displayName string) (ChatSession, error) {
	if err := c.gate.check(); err != nil {
		return ChatSession{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		c.session = &ChatSession{ID: uuid.NewString(), DisplayName: displayName, OpenedAt: c.clock.Now().UTC()}
	}
	return *c.session, nil
}

// Session returns the open session.
func (c *Chat) Session() (ChatSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ChatSession{}, ErrNoChatSession
	}
	return *c.session, nil
}

// Receive counts an incoming chat message.
func (c *Chat) Receive() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoChatSession
	}
	c.session.Unread++
	return nil
}

func (c *Chat) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = nil
}

// DepersonalizeService closes the session.
func (c *Chat) DepersonalizeService(context.Context) error {
	c.close()
	return nil
}

func (c *Chat) UpdateRegistrationEnabledStatus(ctx context.Context) error {
	if _, err := c.gate.refresh(ctx); err != nil {
		return err
	}
	if c.gate.check() != nil {
		c.close()
	}
	return nil
}

// AppWillEnterForeground marks the chat as read.
func (c *Chat) AppWillEnterForeground(ctx context.Context) error {
	if err := c.UpdateRegistrationEnabledStatus(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Unread = 0
	}
	return nil
}
