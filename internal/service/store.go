package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonmsawyer/cmdb/internal/checksum"
	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
	"github.com/jonmsawyer/cmdb/internal/repository"
)

// Store defines the authoritative revision store surface used by sync.
type Store interface {
	// FetchLatest returns the latest revision of one tracked path.
	FetchLatest(ctx context.Context, client *model.Client, filePath string) (*model.RevisionView, error)
	// Push validates and commits a new revision. A successful push is the
	// only way revision numbers advance.
	Push(ctx context.Context, client *model.Client, req model.PushRequest) (*model.RevisionView, error)
}

type StoreImpl struct {
	configs repository.ConfigRepository
}

// NewStore constructs a Store over the configuration repository.
func NewStore(configs repository.ConfigRepository) *StoreImpl {
	return &StoreImpl{configs: configs}
}

// FetchLatest resolves the path exactly as tracked; fetch carries no
// case-sensitivity hint on the wire, so no folding happens here.
func (s *StoreImpl) FetchLatest(ctx context.Context, client *model.Client, filePath string) (*model.RevisionView, error) {
	if client == nil {
		return nil, errors.New("validation: nil client")
	}
	if filePath == "" {
		return nil, errors.New("validation: empty file_path")
	}
	return s.configs.GetLatest(ctx, client.ID, filePath)
}

// Push validates the request shape, normalizes the path, and delegates the
// transactional commit to the repository.
func (s *StoreImpl) Push(ctx context.Context, client *model.Client, req model.PushRequest) (*model.RevisionView, error) {
	if client == nil {
		return nil, errors.New("validation: nil client")
	}
	if req.FilePath == "" {
		return nil, errors.New("validation: empty file_path")
	}
	if req.Mtime < 0 {
		return nil, errors.New("validation: negative mtime")
	}
	if !checksum.Valid(req.SHA1Checksum) {
		return nil, fmt.Errorf("%s: %w", req.FilePath, errs.ErrChecksumMismatch)
	}
	req.FilePath = NormalizePath(req.FilePath, req.CaseSensitive)
	return s.configs.Push(ctx, client.ID, req)
}
