package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
)

// fakeClientRepo keeps clients in a map keyed by name.
type fakeClientRepo struct {
	nextID  int64
	byName  map[string]*model.Client
	created []string
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{byName: map[string]*model.Client{}}
}

func (f *fakeClientRepo) Create(_ context.Context, c *model.Client) error {
	if _, ok := f.byName[c.Name]; ok {
		return errs.ErrAlreadyRegistered
	}
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.byName[c.Name] = &cp
	f.created = append(f.created, c.Name)
	return nil
}

func (f *fakeClientRepo) GetByName(_ context.Context, name string) (*model.Client, error) {
	c, ok := f.byName[name]
	if !ok {
		return nil, errs.ErrUnknownClient
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClientRepo) GetByAPIKey(_ context.Context, apiKey string) (*model.Client, error) {
	for _, c := range f.byName {
		if c.APIKey == apiKey {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errs.ErrUnknownClient
}

func (f *fakeClientRepo) SetDisabled(_ context.Context, id int64, disabled bool) error {
	for _, c := range f.byName {
		if c.ID == id {
			c.IsDisabled = disabled
			return nil
		}
	}
	return errs.ErrUnknownClient
}

// fakeConfigRepo records calls and serves canned revisions per path.
type fakeConfigRepo struct {
	added     []model.AddRequest
	deleted   []string
	summaries []model.ConfigSummary
	latest    map[string]*model.RevisionView
	pushed    []model.PushRequest
	pushView  *model.RevisionView
	err       error
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{latest: map[string]*model.RevisionView{}}
}

func (f *fakeConfigRepo) Create(_ context.Context, _ int64, req model.AddRequest) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, req)
	return nil
}

func (f *fakeConfigRepo) Delete(_ context.Context, _ int64, filePath string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, filePath)
	return nil
}

func (f *fakeConfigRepo) ListSummaries(_ context.Context, _ int64) ([]model.ConfigSummary, error) {
	return f.summaries, f.err
}

func (f *fakeConfigRepo) Count(_ context.Context, _ int64) (int64, error) {
	return int64(len(f.summaries)), f.err
}

func (f *fakeConfigRepo) GetLatest(_ context.Context, _ int64, filePath string) (*model.RevisionView, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.latest[filePath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filePath, errs.ErrNotTracked)
	}
	cp := *v
	return &cp, nil
}

func (f *fakeConfigRepo) Push(_ context.Context, _ int64, req model.PushRequest) (*model.RevisionView, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pushed = append(f.pushed, req)
	if f.pushView != nil {
		return f.pushView, nil
	}
	return &model.RevisionView{FilePath: req.FilePath, Revision: 1, Mtime: req.Mtime,
		SHA1Checksum: req.SHA1Checksum, Content: req.Content}, nil
}

func lowerHex(s string) bool {
	return s == strings.ToLower(s)
}
