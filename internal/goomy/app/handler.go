package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bdobrica/goomy/common/trace"
	"github.com/bdobrica/goomy/internal/goomy/matrix"
	"github.com/bdobrica/goomy/internal/goomy/observability"
	"github.com/bdobrica/goomy/internal/goomy/session"
)

// matrixCommandPrefix introduces chat commands in Matrix rooms.
const matrixCommandPrefix = "!"

// typingTimeout bounds the typing indicator should the "off" call be lost.
const typingTimeout = session.MaxDelay + 2*time.Second

// roomSender is the part of the Matrix client the handler needs.
type roomSender interface {
	SendText(ctx context.Context, roomID, text string) error
	SendNotice(ctx context.Context, roomID, text string) error
	SetTyping(ctx context.Context, roomID string, typing bool, timeout time.Duration) error
}

// MessageHandler answers Matrix messages. Each sender in each room has its
// own session.
type MessageHandler struct {
	registry *session.Registry
	out      roomSender
	logger   *slog.Logger
}

// NewMessageHandler returns a handler replying through out.
func NewMessageHandler(reg *session.Registry, out roomSender, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{registry: reg, out: out, logger: logger}
}

// Handle processes one incoming message. It matches matrix.MessageHandler.
func (h *MessageHandler) Handle(ctx context.Context, msg matrix.Message) {
	ctx = trace.WithTraceID(ctx, trace.GenerateID())
	log := observability.WithTrace(ctx, h.logger).With("room", msg.RoomID, "sender", msg.Sender)
	sess := h.registry.Get(session.Key(msg.RoomID, msg.Sender))

	kind, arg := parseCommand(msg.Body, matrixCommandPrefix)
	switch kind {
	case cmdQuick:
		qr, err := sess.QuickTopic(ctx, arg)
		switch {
		case errors.Is(err, session.ErrUnknownTopic):
			h.notice(ctx, log, msg.RoomID, formatTopics(h.registry.Topics().IDs(), matrixCommandPrefix))
		case err != nil:
			log.Debug("quick topic ignored", "err", err)
		default:
			h.send(ctx, log, msg.RoomID, formatQuickReply(qr))
		}

	case cmdStats:
		h.notice(ctx, log, msg.RoomID, formatStats(sess.Stats()))

	case cmdTopics:
		h.notice(ctx, log, msg.RoomID, formatTopics(h.registry.Topics().IDs(), matrixCommandPrefix))

	default:
		h.turn(ctx, log, sess, msg)
	}
}

func (h *MessageHandler) turn(ctx context.Context, log *slog.Logger, sess *session.Session, msg matrix.Message) {
	if err := h.out.SetTyping(ctx, msg.RoomID, true, typingTimeout); err != nil {
		log.Debug("could not set typing indicator", "err", err)
	}
	reply, err := sess.Turn(ctx, msg.Body)
	if err := h.out.SetTyping(ctx, msg.RoomID, false, 0); err != nil {
		log.Debug("could not clear typing indicator", "err", err)
	}

	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrEmptyInput):
		log.Debug("message ignored", "reason", err)
		return
	case err != nil:
		log.Error("turn failed", "err", err)
		return
	}
	h.send(ctx, log, msg.RoomID, reply.Text)
}

func (h *MessageHandler) send(ctx context.Context, log *slog.Logger, roomID, text string) {
	if err := h.out.SendText(ctx, roomID, text); err != nil {
		log.Error("could not send reply", "err", err)
	}
}

func (h *MessageHandler) notice(ctx context.Context, log *slog.Logger, roomID, text string) {
	if err := h.out.SendNotice(ctx, roomID, text); err != nil {
		log.Error("could not send notice", "err", err)
	}
}
