// Package store persists canonical leads, the per-user delivery ledger, and
// skip cursors. Two drivers implement the same interface: postgres for
// production and sqlite for local work.
package store

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/leadflow/internal/model"
)

// Store is the persistence collaborator for the acquisition pipeline. All
// insert operations carry upsert/no-op-on-conflict semantics: re-persisting
// an existing row is never an error.
type Store interface {
	// Properties and owners
	InsertPropertyIfAbsent(ctx context.Context, fingerprint string, p model.CanonicalProperty) (bool, error)
	InsertOwnerIfAbsent(ctx context.Context, o model.Owner) (bool, error)
	InsertContact(ctx context.Context, fingerprint string, c model.Contact) error

	// Delivery ledger
	InsertLeadDelivery(ctx context.Context, userID, fingerprint string) error
	IsDelivered(ctx context.Context, userID, fingerprint string) (bool, error)
	ListDeliveredFingerprints(ctx context.Context, userID string) ([]string, error)
	ResetDeliveries(ctx context.Context, userID string) (int64, error)

	// Skip cursors
	GetSkipCursor(ctx context.Context, userID, criteriaKey string) (int, error)
	AdvanceSkipCursor(ctx context.Context, userID, criteriaKey string, by int) error
	ResetSkipCursor(ctx context.Context, userID, criteriaKey string) error
	ListSkipCursors(ctx context.Context, userID string) ([]model.SkipCursor, error)

	// Audit
	RecordAcquisition(ctx context.Context, a model.Acquisition) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var ownerKeyChars = regexp.MustCompile(`[^\w\s|]+`)

// ownerKey derives the dedup key for an owner from name plus mailing
// address, normalized the same way property fingerprints are.
func ownerKey(o model.Owner) string {
	parts := make([]string, 0, 2)
	for _, f := range []string{o.Name, o.MailingAddress} {
		f = strings.ToLower(f)
		f = ownerKeyChars.ReplaceAllString(f, "")
		parts = append(parts, strings.Join(strings.Fields(f), " "))
	}
	return strings.Join(parts, "|")
}
