package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonmsawyer/cmdb/internal/checksum"
	"github.com/jonmsawyer/cmdb/internal/crypto/envelope"
	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/protocol"
)

// Outcome classifies what one sync pass did with one tracked path.
type Outcome int

const (
	// OutcomeFetched means remote content was written to the local path.
	OutcomeFetched Outcome = iota
	// OutcomePushed means local content was accepted as a new revision.
	OutcomePushed
	// OutcomeIgnored means local and remote have converged.
	OutcomeIgnored
	// OutcomeDisabled means the remote marks the path disabled; skipped.
	OutcomeDisabled
	// OutcomeAmbiguous means equal mtimes with differing digests; no action.
	OutcomeAmbiguous
	// OutcomeError means the path failed; the error is attached.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetch"
	case OutcomePushed:
		return "push"
	case OutcomeIgnored:
		return "ignore"
	case OutcomeDisabled:
		return "disabled"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "error"
	}
}

// Result records the outcome of one tracked path in one sync pass.
type Result struct {
	FilePath string
	Outcome  Outcome
	Line     string // five-column status line
	Err      error
}

// Reconciler converges local files with the authoritative store. One
// pass polls the snapshot and processes tracked files strictly
// sequentially; a failure on one file never aborts the rest.
type Reconciler struct {
	api           *APIClient
	env           *envelope.Envelope
	caseSensitive bool
	log           *zap.Logger
}

// NewReconciler wires the reconciler. env may be nil when no encryption
// key is configured.
func NewReconciler(api *APIClient, env *envelope.Envelope, log *zap.Logger) *Reconciler {
	return &Reconciler{api: api, env: env, caseSensitive: FilesystemCaseSensitive(), log: log}
}

// Sync runs one reconciliation pass and returns one Result per enabled
// or disabled tracked path. Conflicts are surfaced, never retried; the
// next poll cycle re-evaluates them.
func (r *Reconciler) Sync(ctx context.Context) ([]Result, error) {
	poll, err := r.api.Poll(ctx)
	if err != nil {
		return nil, err
	}
	if poll.IsDisabled || poll.IsBlacklisted {
		return nil, fmt.Errorf("host %s: %w", poll.ClientName, errs.ErrClientDisabled)
	}
	if poll.ConfigurationCount == 0 {
		r.log.Info("nothing to sync: no configurations tracked")
		return nil, nil
	}
	if int64(len(poll.Configurations)) != poll.ConfigurationCount {
		return nil, fmt.Errorf("poll returned %d configurations, expected %d",
			len(poll.Configurations), poll.ConfigurationCount)
	}

	results := make([]Result, 0, len(poll.Configurations))
	for _, entry := range poll.Configurations {
		res := r.reconcileEntry(ctx, entry)
		if res.Err != nil {
			r.log.Warn("sync", zap.String("file", res.FilePath),
				zap.String("outcome", res.Outcome.String()), zap.Error(res.Err))
		} else {
			r.log.Info("sync", zap.String("file", res.FilePath),
				zap.String("outcome", res.Outcome.String()), zap.String("status", res.Line))
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Reconciler) reconcileEntry(ctx context.Context, entry protocol.ConfigEntry) Result {
	remote := RemoteFromEntry(entry)
	res := Result{FilePath: remote.FilePath}

	if remote.IsDisabled {
		res.Outcome = OutcomeDisabled
		res.Line = StatusLine(&LocalFile{Path: remote.FilePath}, remote)
		return res
	}

	local, err := ResolveLocal(remote.FilePath)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("resolve local: %w", err)
		return res
	}
	res.Line = StatusLine(local, remote)

	switch CompareAge(local.Mtime, local.SHA1Checksum, remote.Mtime, remote.SHA1Checksum) {
	case AgeOlder:
		if err := r.fetch(ctx, remote); err != nil {
			res.Outcome = OutcomeError
			res.Err = err
			return res
		}
		res.Outcome = OutcomeFetched
	case AgeSame:
		res.Outcome = OutcomeIgnored
	case AgeAmbiguous:
		res.Outcome = OutcomeAmbiguous
		res.Err = fmt.Errorf("%s: same mtime, different content", remote.FilePath)
	case AgeNewer:
		if err := r.push(ctx, local); err != nil {
			res.Outcome = OutcomeError
			res.Err = err
			return res
		}
		res.Outcome = OutcomePushed
	}
	return res
}

// fetch pulls the latest revision, opens it if sealed, verifies the
// plaintext digest, writes the file, and stamps it with the remote mtime.
func (r *Reconciler) fetch(ctx context.Context, remote RemoteState) error {
	resp, err := r.api.Fetch(ctx, remote.FilePath)
	if err != nil {
		return err
	}
	if resp.IsDisabled || resp.Content == nil || resp.Mtime == nil {
		return fmt.Errorf("%s: %w", remote.FilePath, errs.ErrConfigDisabled)
	}

	content := *resp.Content
	isBinary := resp.IsBinary != nil && *resp.IsBinary
	if resp.IsEncrypted != nil && *resp.IsEncrypted {
		if content, err = r.env.Open(content); err != nil {
			return fmt.Errorf("%s: %w", remote.FilePath, err)
		}
	}

	if resp.SHA1Checksum != nil {
		digest, err := checksum.Payload(content, isBinary)
		if err != nil {
			return fmt.Errorf("%s: %w", remote.FilePath, err)
		}
		if digest != *resp.SHA1Checksum {
			return fmt.Errorf("%s: fetched content: %w", remote.FilePath, errs.ErrChecksumMismatch)
		}
	}

	return WriteLocal(remote.FilePath, content, isBinary, *resp.Mtime)
}

// push submits local content as a new revision, sealing it first when an
// encryption key is configured. The digest always covers the plaintext.
func (r *Reconciler) push(ctx context.Context, local *LocalFile) error {
	content := local.Content
	isEncrypted := false
	if r.env != nil {
		var err error
		if content, err = r.env.Seal(content); err != nil {
			return fmt.Errorf("%s: %w", local.Path, err)
		}
		isEncrypted = true
	}

	_, err := r.api.Push(ctx, protocol.PushRequest{
		FilePath:      local.Path,
		Mtime:         local.Mtime,
		SHA1Checksum:  local.SHA1Checksum,
		Content:       content,
		CaseSensitive: r.caseSensitive,
		IsBinary:      local.IsBinary,
		IsEncrypted:   isEncrypted,
	})
	if err != nil {
		// conflicts (stale write, same age) surface here for the operator;
		// the next poll cycle re-evaluates, nothing retries
		return fmt.Errorf("push %s: %w", local.Path, err)
	}
	return nil
}
