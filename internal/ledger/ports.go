package ledger

import (
	"context"

	"voicebook/internal/core"
)

// Ports for outbound adapters.
type (
	// Store is the durable record collection. Identifiers are assigned on
	// Insert; the ID field of the record passed in is ignored.
	Store interface {
		Insert(ctx context.Context, r core.Record) (id int64, err error)
		// Update replaces every field of the record with the same ID.
		// Returns core.ErrRecordNotFound for an unknown ID.
		Update(ctx context.Context, r core.Record) error
		// Delete removes a record. Deleting an unknown ID is not an error.
		Delete(ctx context.Context, id int64) error
		ScanAll(ctx context.Context) ([]core.Record, error)
		Clear(ctx context.Context) error
		Close() error
	}

	// Notifier is told about every successful mutation.
	Notifier interface {
		PublishLedgerChange(ctx context.Context, op string, recordID int64, period string) error
	}
)

// Change operations carried by notifications.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpImport = "import"
	OpClear  = "clear"
)
