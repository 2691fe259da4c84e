// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/jonmsawyer/cmdb/internal/model"
)

// ClientRepository provides access to registered clients.
type ClientRepository interface {
	// Create inserts a new client record.
	Create(ctx context.Context, c *model.Client) error
	// GetByName loads a client by its normalized name.
	GetByName(ctx context.Context, name string) (*model.Client, error)
	// GetByAPIKey loads a client by its bearer key.
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Client, error)
	// SetDisabled flips the disabled flag.
	SetDisabled(ctx context.Context, id int64, disabled bool) error
}
