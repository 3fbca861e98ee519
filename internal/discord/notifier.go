package discord

import (
	"context"
	"strings"

	"partybot/internal/game"

	"go.uber.org/zap"
)

// maxMessageLength is Discord's limit for one message.
const maxMessageLength = 2000

// Notifier posts game announcements to text channels.
type Notifier struct {
	session session
	logger  *zap.Logger
}

var _ game.Notifier = (*Notifier)(nil)

// Notify sends text to channel, split into several messages when it is too
// long for one. Failures are logged and dropped.
func (n *Notifier) Notify(_ context.Context, channel game.ChannelRef, text string) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if _, err := n.session.ChannelMessageSend(string(channel), chunk); err != nil {
			n.logger.Warn("failed to send message", zap.String("channel", string(channel)), zap.Error(err))
			return
		}
	}
}

// splitMessage cuts text into pieces of at most limit bytes, preferring line
// breaks. Empty text yields nothing.
func splitMessage(text string, limit int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			// don't split a multi-byte rune
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
