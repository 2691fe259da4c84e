package repository

import (
	"context"

	"github.com/jonmsawyer/cmdb/internal/model"
)

// ConfigRepository provides revisioned access to tracked configurations.
// Path arguments are expected pre-normalized (case-folded when the
// configuration is not case sensitive).
type ConfigRepository interface {
	// Create tracks a new path and writes revision 1 atomically; if the
	// revision insert fails the configuration row is rolled back.
	Create(ctx context.Context, clientID int64, req model.AddRequest) error

	// Delete removes a tracked path and cascades its revision history.
	Delete(ctx context.Context, clientID int64, filePath string) error

	// ListSummaries returns one entry per tracked path. Disabled entries
	// carry only path and flag; enabled entries include latest revision
	// metadata but never content.
	ListSummaries(ctx context.Context, clientID int64) ([]model.ConfigSummary, error)

	// Count returns the number of tracked paths for a client.
	Count(ctx context.Context, clientID int64) (int64, error)

	// GetLatest returns the latest revision view for one path. A disabled
	// configuration yields a view with IsDisabled set and no revision data.
	GetLatest(ctx context.Context, clientID int64, filePath string) (*model.RevisionView, error)

	// Push validates and commits a new revision in a single transaction:
	// path resolution, disabled gate, checksum verification, then the
	// mtime comparison against the latest revision under a row lock.
	Push(ctx context.Context, clientID int64, req model.PushRequest) (*model.RevisionView, error)
}
