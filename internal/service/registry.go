// Package service contains application services for client registration,
// the configuration catalog, and the revision store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/jonmsawyer/cmdb/internal/checksum"
	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
	"github.com/jonmsawyer/cmdb/internal/repository"
)

// Registry defines client identity operations.
type Registry interface {
	// Register creates a client for the name, or re-enables a disabled one.
	Register(ctx context.Context, fqdn string) (*model.Client, error)
	// Disable sets the client's disabled flag (the unregister verb).
	Disable(ctx context.Context, apiKey string) (*model.Client, error)
	// Lookup resolves a bearer key to a client with no state gating.
	Lookup(ctx context.Context, apiKey string) (*model.Client, error)
	// Authorize resolves a bearer key and enforces blacklist/disabled state.
	Authorize(ctx context.Context, apiKey string) (*model.Client, error)
}

type RegistryImpl struct {
	clients repository.ClientRepository
}

// NewRegistry constructs a Registry over the client repository.
func NewRegistry(clients repository.ClientRepository) *RegistryImpl {
	return &RegistryImpl{clients: clients}
}

// NewAPIKey generates a fresh bearer key: sha1 over a v4 UUID and the
// current time, rendered as 40 lowercase hex characters.
func NewAPIKey() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return checksum.Bytes([]byte(id.String() + time.Now().UTC().Format(time.RFC3339Nano))), nil
}

// Register registers a host name. Names are case-folded. Re-registering a
// disabled client re-enables it; an enabled client is an error; a
// blacklisted client is permanently rejected.
func (s *RegistryImpl) Register(ctx context.Context, fqdn string) (*model.Client, error) {
	name := strings.ToLower(strings.TrimSpace(fqdn))
	if name == "" {
		return nil, errors.New("validation: empty fqdn")
	}

	c, err := s.clients.GetByName(ctx, name)
	switch {
	case err == nil:
		if c.IsBlacklisted {
			return nil, fmt.Errorf("client %q: %w", name, errs.ErrBlacklisted)
		}
		if !c.IsDisabled {
			return nil, fmt.Errorf("client %q: %w", name, errs.ErrAlreadyRegistered)
		}
		if err := s.clients.SetDisabled(ctx, c.ID, false); err != nil {
			return nil, err
		}
		c.IsDisabled = false
		return c, nil
	case errors.Is(err, errs.ErrUnknownClient):
		key, err := NewAPIKey()
		if err != nil {
			return nil, err
		}
		// new clients default to disabled; registration enables on save
		c := &model.Client{Name: name, APIKey: key, IsDisabled: false}
		if err := s.clients.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, err
	}
}

// Disable flips the client's disabled flag off the sync surface.
func (s *RegistryImpl) Disable(ctx context.Context, apiKey string) (*model.Client, error) {
	c, err := s.Lookup(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if err := s.clients.SetDisabled(ctx, c.ID, true); err != nil {
		return nil, err
	}
	c.IsDisabled = true
	return c, nil
}

// Lookup resolves a bearer key. Keys that are not 40 lowercase hex are
// rejected before any storage access.
func (s *RegistryImpl) Lookup(ctx context.Context, apiKey string) (*model.Client, error) {
	if !checksum.Valid(apiKey) {
		return nil, errs.ErrInvalidAPIKey
	}
	return s.clients.GetByAPIKey(ctx, apiKey)
}

// Authorize gates catalog and sync operations. State is re-checked on
// every call; it is never cached across requests.
func (s *RegistryImpl) Authorize(ctx context.Context, apiKey string) (*model.Client, error) {
	c, err := s.Lookup(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if c.IsBlacklisted {
		return nil, fmt.Errorf("client %q: %w", c.Name, errs.ErrBlacklisted)
	}
	if c.IsDisabled {
		return nil, fmt.Errorf("client %q: %w", c.Name, errs.ErrClientDisabled)
	}
	return c, nil
}
