package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bdobrica/goomy/internal/goomy/app"
	"github.com/bdobrica/goomy/internal/goomy/matrix"
)

type sent struct {
	room   string
	text   string
	notice bool
}

type fakeRoom struct {
	mu      sync.Mutex
	sent    []sent
	typing  []bool
	sendErr error
}

func (f *fakeRoom) SendText(_ context.Context, roomID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{room: roomID, text: text})
	return f.sendErr
}

func (f *fakeRoom) SendNotice(_ context.Context, roomID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{room: roomID, text: text, notice: true})
	return f.sendErr
}

func (f *fakeRoom) SetTyping(_ context.Context, _ string, typing bool, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, typing)
	return nil
}

func msg(sender, body string) matrix.Message {
	return matrix.Message{RoomID: "!chat:example.org", Sender: sender, EventID: "$1", Body: body}
}

func TestMessageHandler_Turn(t *testing.T) {
	reg, cfg := newRegistry(t, nil)
	room := &fakeRoom{}
	h := app.NewMessageHandler(reg, room, nil)

	h.Handle(context.Background(), msg("@alice:example.org", "hola"))

	if len(room.sent) != 1 || room.sent[0].text != cfg.Replies.Engagement[0] || room.sent[0].notice {
		t.Fatalf("sent = %+v, want the engagement reply as text", room.sent)
	}
	if len(room.typing) != 2 || !room.typing[0] || room.typing[1] {
		t.Errorf("typing calls = %v, want [true false]", room.typing)
	}
}

func TestMessageHandler_BlankMessageIgnored(t *testing.T) {
	reg, _ := newRegistry(t, nil)
	room := &fakeRoom{}
	h := app.NewMessageHandler(reg, room, nil)

	h.Handle(context.Background(), msg("@alice:example.org", "   "))

	if len(room.sent) != 0 {
		t.Errorf("sent = %+v, want nothing", room.sent)
	}
}

func TestMessageHandler_Commands(t *testing.T) {
	reg, cfg := newRegistry(t, nil)
	room := &fakeRoom{}
	h := app.NewMessageHandler(reg, room, nil)
	juegos, _ := cfg.Topic("juegos")
	ctx := context.Background()

	h.Handle(ctx, msg("@alice:example.org", "!tema juegos"))
	h.Handle(ctx, msg("@alice:example.org", "!stats"))
	h.Handle(ctx, msg("@alice:example.org", "!tema cocina"))
	h.Handle(ctx, msg("@alice:example.org", "!temas"))

	if len(room.sent) != 4 {
		t.Fatalf("sent %d messages, want 4: %+v", len(room.sent), room.sent)
	}
	quick := room.sent[0]
	if quick.notice || !strings.Contains(quick.text, juegos.Question) || !strings.Contains(quick.text, "• "+juegos.Suggestions[0]) {
		t.Errorf("quick reply = %+v", quick)
	}
	if stats := room.sent[1]; !stats.notice || !strings.Contains(stats.text, "Temas: juegos") {
		t.Errorf("stats reply = %+v", stats)
	}
	for _, s := range room.sent[2:] {
		if !s.notice || !strings.Contains(s.text, "Temas disponibles") {
			t.Errorf("topic list reply = %+v", s)
		}
	}
	if len(room.typing) != 0 {
		t.Errorf("commands toggled typing: %v", room.typing)
	}
}

func TestMessageHandler_SessionPerSender(t *testing.T) {
	reg, _ := newRegistry(t, nil)
	h := app.NewMessageHandler(reg, &fakeRoom{}, nil)

	h.Handle(context.Background(), msg("@alice:example.org", "hola"))
	h.Handle(context.Background(), msg("@bob:example.org", "hola"))
	h.Handle(context.Background(), msg("@alice:example.org", "otra vez"))

	if reg.Len() != 2 {
		t.Errorf("sessions = %d, want 2", reg.Len())
	}
}

func TestMessageHandler_SendFailureIsLogged(t *testing.T) {
	reg, _ := newRegistry(t, nil)
	room := &fakeRoom{sendErr: errors.New("forbidden")}
	h := app.NewMessageHandler(reg, room, nil)

	h.Handle(context.Background(), msg("@alice:example.org", "hola"))

	if len(room.sent) != 1 {
		t.Errorf("send attempts = %d, want 1", len(room.sent))
	}
}
