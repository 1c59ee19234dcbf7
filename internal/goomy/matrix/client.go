// Package matrix connects Goomy to Matrix rooms through mautrix.
package matrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/bdobrica/goomy/common/retry"
)

// Config holds Matrix client configuration.
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string
	// Rooms lists the room IDs Goomy joins and chats in.
	Rooms []string
	// DB, when set, persists the /sync position across restarts. Without it
	// the room history is replayed on every start.
	DB *sql.DB
	// Retry controls how sends are retried. Zero values use retry defaults.
	Retry retry.Config
}

// Message is an accepted incoming text message.
type Message struct {
	RoomID  string
	Sender  string
	EventID string
	Body    string
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg Message)

// Client wraps the mautrix client.
type Client struct {
	client   *mautrix.Client
	config   Config
	logger   *slog.Logger
	handler  MessageHandler
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a client. It does not contact the homeserver.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("matrix: create client: %w", err)
	}
	if cfg.Retry.Op == "" {
		cfg.Retry.Op = "matrix send"
	}

	c := &Client{
		client: client,
		config: cfg,
		logger: logger.With("component", "matrix"),
		stopCh: make(chan struct{}),
	}

	if cfg.DB != nil {
		client.Store = newDBSyncStore(cfg.DB)
		c.logger.Info("sync store: using persistent SQLite store")
	} else {
		c.logger.Warn("sync store: no DB configured, room history will replay on restart")
	}
	return c, nil
}

// Start joins the configured rooms and begins syncing in the background.
// Incoming messages are passed to handler.
func (c *Client) Start(ctx context.Context, handler MessageHandler) error {
	c.handler = handler

	syncer, ok := c.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return errors.New("matrix: unexpected syncer type")
	}
	syncer.OnEventType(event.EventMessage, c.handleEvent)

	for _, roomID := range c.config.Rooms {
		if err := c.joinRoom(ctx, id.RoomID(roomID)); err != nil {
			return fmt.Errorf("matrix: join room %s: %w", roomID, err)
		}
	}

	go c.syncLoop()
	return nil
}

// syncLoop keeps /sync running, reconnecting with back-off after errors
// until Stop is called.
func (c *Client) syncLoop() {
	const (
		backoffMin = 2 * time.Second
		backoffMax = 5 * time.Minute
	)
	backoff := backoffMin
	for {
		err := c.client.Sync()
		if err == nil {
			return
		}
		select {
		case <-c.stopCh:
			return
		default:
		}
		c.logger.Error("sync stopped; reconnecting", "err", err, "backoff", backoff)
		select {
		case <-c.stopCh:
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffMax)
	}
}

// Stop stops syncing. It is safe to call more than once.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.client.StopSync()
	})
}

// UserID returns the bot's own user ID.
func (c *Client) UserID() string { return c.config.UserID }

// SendText sends a plain text message, retrying transient failures.
func (c *Client) SendText(ctx context.Context, roomID, text string) error {
	return c.send(ctx, roomID, &event.MessageEventContent{MsgType: event.MsgText, Body: text})
}

// SendNotice sends a notice, which clients render less prominently.
func (c *Client) SendNotice(ctx context.Context, roomID, text string) error {
	return c.send(ctx, roomID, &event.MessageEventContent{MsgType: event.MsgNotice, Body: text})
}

func (c *Client) send(ctx context.Context, roomID string, content *event.MessageEventContent) error {
	err := retry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		_, err := c.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
		if errors.Is(err, mautrix.MForbidden) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		if retry.IsPermanent(err) {
			c.logger.Warn("send refused, not retried", "room_id", roomID, "err", err)
		}
		return fmt.Errorf("matrix: send to %s: %w", roomID, err)
	}
	return nil
}

// SetTyping turns the typing indicator on (for at most timeout) or off.
func (c *Client) SetTyping(ctx context.Context, roomID string, typing bool, timeout time.Duration) error {
	if _, err := c.client.UserTyping(ctx, id.RoomID(roomID), typing, timeout); err != nil {
		return fmt.Errorf("matrix: set typing: %w", err)
	}
	return nil
}

func (c *Client) handleEvent(ctx context.Context, evt *event.Event) {
	msg, ok := c.accept(evt)
	if !ok || c.handler == nil {
		return
	}
	c.handler(ctx, msg)
}

// accept filters incoming events down to text messages from other users in
// configured rooms.
func (c *Client) accept(evt *event.Event) (Message, bool) {
	if evt.Sender == id.UserID(c.config.UserID) {
		return Message{}, false
	}
	content := evt.Content.AsMessage()
	if content == nil || content.MsgType != event.MsgText {
		return Message{}, false
	}
	if !slices.Contains(c.config.Rooms, evt.RoomID.String()) {
		return Message{}, false
	}
	return Message{
		RoomID:  evt.RoomID.String(),
		Sender:  evt.Sender.String(),
		EventID: evt.ID.String(),
		Body:    content.Body,
	}, true
}

func (c *Client) joinRoom(ctx context.Context, roomID id.RoomID) error {
	if _, err := c.client.JoinRoomByID(ctx, roomID); err != nil {
		// Homeservers answer M_FORBIDDEN when the bot is already a member.
		if errors.Is(err, mautrix.MForbidden) {
			c.logger.Warn("join: already a member or access denied, continuing", "room", roomID)
			return nil
		}
		return err
	}
	return nil
}
