package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
	"github.com/jonmsawyer/cmdb/internal/repository"
)

// Catalog defines operations over the set of tracked paths for a client.
type Catalog interface {
	// Add begins tracking a path and records its first revision.
	Add(ctx context.Context, client *model.Client, req model.AddRequest) error
	// Remove stops tracking a path and deletes its revision history.
	Remove(ctx context.Context, client *model.Client, filePath string, caseSensitive bool) error
	// Snapshot lists every tracked path with latest revision metadata.
	Snapshot(ctx context.Context, client *model.Client) ([]model.ConfigSummary, error)
	// Count reports how many paths are tracked.
	Count(ctx context.Context, client *model.Client) (int64, error)
}

type CatalogImpl struct {
	configs repository.ConfigRepository
}

// NewCatalog constructs a Catalog over the configuration repository.
func NewCatalog(configs repository.ConfigRepository) *CatalogImpl {
	return &CatalogImpl{configs: configs}
}

// NormalizePath case-folds a path unless the configuration is case sensitive.
func NormalizePath(filePath string, caseSensitive bool) string {
	if caseSensitive {
		return filePath
	}
	return strings.ToLower(filePath)
}

// Add validates and tracks a new path. The first revision is written
// atomically with the configuration; a revision failure rolls both back.
func (s *CatalogImpl) Add(ctx context.Context, client *model.Client, req model.AddRequest) error {
	if client == nil {
		return errors.New("validation: nil client")
	}
	if req.FilePath == "" {
		return errors.New("validation: empty file_path")
	}
	if req.Mtime < 0 {
		return errors.New("validation: negative mtime")
	}
	if !req.IsBinary && !utf8.ValidString(req.Payload) {
		return errs.ErrEncoding
	}
	req.FilePath = NormalizePath(req.FilePath, req.CaseSensitive)
	return s.configs.Create(ctx, client.ID, req)
}

// Remove deletes a tracked path and cascades its revisions.
func (s *CatalogImpl) Remove(ctx context.Context, client *model.Client, filePath string, caseSensitive bool) error {
	if client == nil {
		return errors.New("validation: nil client")
	}
	if filePath == "" {
		return errors.New("validation: empty file_path")
	}
	return s.configs.Delete(ctx, client.ID, NormalizePath(filePath, caseSensitive))
}

// Snapshot lists tracked paths. Content never rides in a snapshot; it is
// only returned by a targeted fetch.
func (s *CatalogImpl) Snapshot(ctx context.Context, client *model.Client) ([]model.ConfigSummary, error) {
	if client == nil {
		return nil, errors.New("validation: nil client")
	}
	return s.configs.ListSummaries(ctx, client.ID)
}

// Count reports the number of tracked paths.
func (s *CatalogImpl) Count(ctx context.Context, client *model.Client) (int64, error) {
	if client == nil {
		return 0, errors.New("validation: nil client")
	}
	return s.configs.Count(ctx, client.ID)
}
