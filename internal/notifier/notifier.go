package notifier

import (
	"context"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// Notifier defines the interface for announcing newly added records
type Notifier interface {
	// Notify posts one notification per record
	Notify(ctx context.Context, records []*event.Record) error
}
