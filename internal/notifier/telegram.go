package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/telegram"
)

// MessageSender delivers one formatted message. *telegram.Client implements it.
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// TelegramNotifier posts a venue-grouped digest of new records to a chat.
type TelegramNotifier struct {
	sender MessageSender
}

// NewTelegramNotifier creates a notifier sending through sender.
func NewTelegramNotifier(sender MessageSender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

// Notify announces a single record on its own and several as a digest,
// split into as many messages as the API needs.
func (n *TelegramNotifier) Notify(ctx context.Context, records []*event.Record) error {
	var messages []string
	if len(records) == 1 {
		messages = []string{telegram.FormatRecord(records[0])}
	} else {
		messages = telegram.FormatDigest(records)
	}
	for i, msg := range messages {
		if err := n.sender.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to send digest part %d/%d: %w", i+1, len(messages), err)
		}
	}
	logger.Info("Sent Telegram digest", logger.Fields{"records": len(records), "messages": len(messages)})
	return nil
}

// WriterSender prints messages instead of sending them.
type WriterSender struct {
	out   io.Writer
	count int
}

// NewWriterSender creates a sender writing to out, or stdout when out is nil.
func NewWriterSender(out io.Writer) *WriterSender {
	if out == nil {
		out = os.Stdout
	}
	return &WriterSender{out: out}
}

// SendMessage writes text under a numbered header.
func (s *WriterSender) SendMessage(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.count++
	_, err := fmt.Fprintf(s.out, "--- Telegram message %d ---\n%s\n\n(Length: %d bytes)\n\n", s.count, text, len(text))
	return err
}
