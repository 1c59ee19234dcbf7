package matrix

import (
	"context"
	"path/filepath"
	"testing"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/bdobrica/goomy/internal/goomy/store"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.Homeserver == "" {
		cfg.Homeserver = "https://matrix.example.org"
	}
	if cfg.UserID == "" {
		cfg.UserID = "@goomy:example.org"
	}
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func textEvent(room, sender, body string, msgType event.MessageType) *event.Event {
	return &event.Event{
		ID:     id.EventID("$evt"),
		RoomID: id.RoomID(room),
		Sender: id.UserID(sender),
		Type:   event.EventMessage,
		Content: event.Content{Parsed: &event.MessageEventContent{
			MsgType: msgType,
			Body:    body,
		}},
	}
}

func TestAccept(t *testing.T) {
	c := newTestClient(t, Config{Rooms: []string{"!chat:example.org"}})

	tests := []struct {
		name string
		evt  *event.Event
		ok   bool
	}{
		{"text from user", textEvent("!chat:example.org", "@alice:example.org", "hola", event.MsgText), true},
		{"own message", textEvent("!chat:example.org", "@goomy:example.org", "hola", event.MsgText), false},
		{"notice", textEvent("!chat:example.org", "@alice:example.org", "hola", event.MsgNotice), false},
		{"other room", textEvent("!other:example.org", "@alice:example.org", "hola", event.MsgText), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := c.accept(tt.evt)
			if ok != tt.ok {
				t.Fatalf("accept ok = %v, want %v", ok, tt.ok)
			}
			if ok && (msg.Body != "hola" || msg.Sender != "@alice:example.org" || msg.RoomID != "!chat:example.org" || msg.EventID != "$evt") {
				t.Errorf("accept message = %+v", msg)
			}
		})
	}
}

func TestHandleEvent_DispatchesAcceptedMessages(t *testing.T) {
	c := newTestClient(t, Config{Rooms: []string{"!chat:example.org"}})
	var got []Message
	c.handler = func(_ context.Context, msg Message) { got = append(got, msg) }

	c.handleEvent(context.Background(), textEvent("!chat:example.org", "@alice:example.org", "hola", event.MsgText))
	c.handleEvent(context.Background(), textEvent("!chat:example.org", "@goomy:example.org", "eco", event.MsgText))

	if len(got) != 1 || got[0].Body != "hola" {
		t.Errorf("handler received %+v, want the single user message", got)
	}
}

func TestStop_Idempotent(t *testing.T) {
	c := newTestClient(t, Config{})
	c.Stop()
	c.Stop()
}

func TestDBSyncStore(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	s := newDBSyncStore(st.DB())
	user := id.UserID("@goomy:example.org")

	if v, err := s.LoadNextBatch(ctx, user); err != nil || v != "" {
		t.Fatalf("LoadNextBatch before save = %q, %v; want empty", v, err)
	}
	if err := s.SaveNextBatch(ctx, user, "s1"); err != nil {
		t.Fatalf("SaveNextBatch: %v", err)
	}
	if err := s.SaveNextBatch(ctx, user, "s2"); err != nil {
		t.Fatalf("SaveNextBatch overwrite: %v", err)
	}
	if v, err := s.LoadNextBatch(ctx, user); err != nil || v != "s2" {
		t.Errorf("LoadNextBatch = %q, %v; want s2", v, err)
	}

	if err := s.SaveFilterID(ctx, user, "f1"); err != nil {
		t.Fatalf("SaveFilterID: %v", err)
	}
	if v, err := s.LoadFilterID(ctx, user); err != nil || v != "f1" {
		t.Errorf("LoadFilterID = %q, %v; want f1", v, err)
	}
	if v, err := s.LoadFilterID(ctx, id.UserID("@other:example.org")); err != nil || v != "" {
		t.Errorf("LoadFilterID(other user) = %q, %v; want empty", v, err)
	}
}
