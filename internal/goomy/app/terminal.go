package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bdobrica/goomy/common/trace"
	"github.com/bdobrica/goomy/internal/goomy/session"
)

const (
	terminalCommandPrefix = "/"
	terminalGreeting      = "Goomy: ¡Hola! Escribe algo, /temas para ver los temas o /salir para terminar."
)

// Chat runs an interactive conversation with sess, reading lines from in and
// writing replies to out, until in is exhausted, the user types /salir or
// ctx is cancelled.
func Chat(ctx context.Context, sess *session.Session, topicIDs []string, in io.Reader, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	say := func(text string) {
		fmt.Fprintf(w, "Goomy: %s\n", text)
		w.Flush()
	}

	fmt.Fprintln(w, terminalGreeting)
	w.Flush()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == terminalCommandPrefix+"salir" {
			say("¡Hasta pronto! 👋")
			return nil
		}

		kind, arg := parseCommand(line, terminalCommandPrefix)
		switch kind {
		case cmdQuick:
			qr, err := sess.QuickTopic(ctx, arg)
			if errors.Is(err, session.ErrUnknownTopic) {
				say(formatTopics(topicIDs, terminalCommandPrefix))
				continue
			}
			if err != nil {
				return fmt.Errorf("chat: quick topic: %w", err)
			}
			say(formatQuickReply(qr))

		case cmdStats:
			say(formatStats(sess.Stats()))

		case cmdTopics:
			say(formatTopics(topicIDs, terminalCommandPrefix))

		default:
			reply, err := sess.Turn(trace.WithTraceID(ctx, trace.GenerateID()), line)
			if err != nil {
				return fmt.Errorf("chat: turn: %w", err)
			}
			say(reply.Text)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("chat: read input: %w", err)
	}
	return nil
}
