package app

import (
	"fmt"
	"strings"

	"github.com/bdobrica/goomy/internal/goomy/session"
)

// commandKind classifies an incoming line.
type commandKind int

const (
	cmdTurn   commandKind = iota // free text
	cmdQuick                     // tema <id>
	cmdStats                     // stats
	cmdTopics                    // temas
)

// parseCommand recognises the chat commands introduced by prefix ("!" on
// Matrix, "/" in the terminal). Anything else is a conversational turn.
func parseCommand(line, prefix string) (commandKind, string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, prefix) {
		return cmdTurn, line
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(trimmed, prefix), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "tema":
		return cmdQuick, strings.ToLower(arg)
	case "stats":
		return cmdStats, ""
	case "temas":
		return cmdTopics, ""
	default:
		return cmdTurn, line
	}
}

// formatQuickReply renders a quick-topic reply with its suggestions as a
// bullet list.
func formatQuickReply(qr session.QuickReply) string {
	var b strings.Builder
	b.WriteString(qr.Reply)
	if len(qr.Suggestions) > 0 {
		b.WriteString("\n\nSugerencias:")
		for _, s := range qr.Suggestions {
			b.WriteString("\n• ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func formatStats(st session.Stats) string {
	topicsLine := "ninguno"
	if len(st.TopicsDiscussed) > 0 {
		topicsLine = strings.Join(st.TopicsDiscussed, ", ")
	}
	return fmt.Sprintf("📊 Mensajes: %d\nTemas: %s\nÁnimo: %s\nProfundidad: %d",
		st.TotalMessages, topicsLine, st.Mood, st.ConversationDepth)
}

func formatTopics(ids []string, prefix string) string {
	return fmt.Sprintf("Temas disponibles: %s\nUsa %stema <id> para empezar.", strings.Join(ids, ", "), prefix)
}
