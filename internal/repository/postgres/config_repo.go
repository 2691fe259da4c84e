package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonmsawyer/cmdb/internal/checksum"
	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
)

// ConfigRepo implements ConfigRepository using PostgreSQL.
type ConfigRepo struct{ db *DB }

// NewConfigRepo constructs a configuration repository.
func NewConfigRepo(db *DB) *ConfigRepo { return &ConfigRepo{db: db} }

// Create tracks a new path and writes revision 1 in one transaction. If
// the revision insert fails, the configuration row rolls back with it.
func (r *ConfigRepo) Create(ctx context.Context, clientID int64, req model.AddRequest) (err error) {
	digest, err := checksum.Payload(req.Payload, req.IsBinary)
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const insConf = `
INSERT INTO configurations (client_id, file_path, is_case_sensitive)
VALUES ($1,$2,$3)
RETURNING id`
	var confID int64
	if err = tx.QueryRow(ctx, insConf, clientID, req.FilePath, req.CaseSensitive).Scan(&confID); err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyTracked
		}
		return err
	}

	const insRev = `
INSERT INTO configuration_files (configuration_id, revision, sha1_checksum, mtime, content, is_binary, is_encrypted)
VALUES ($1,1,$2,$3,$4,$5,$6)`
	if _, err = tx.Exec(ctx, insRev, confID, digest, req.Mtime, req.Payload, req.IsBinary, req.IsEncrypted); err != nil {
		return err
	}
	return nil
}

// Delete removes a tracked path; revision history cascades via FK.
func (r *ConfigRepo) Delete(ctx context.Context, clientID int64, filePath string) error {
	const q = `DELETE FROM configurations WHERE client_id=$1 AND file_path=$2`
	tag, err := r.db.Pool.Exec(ctx, q, clientID, filePath)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotTracked
	}
	return nil
}

// ListSummaries returns one entry per tracked path with latest revision
// metadata for enabled entries.
func (r *ConfigRepo) ListSummaries(ctx context.Context, clientID int64) ([]model.ConfigSummary, error) {
	const q = `
SELECT c.file_path, c.is_disabled,
       COALESCE(f.revision,0), COALESCE(f.sha1_checksum,''), COALESCE(f.mtime,0),
       COALESCE(length(f.content),0), COALESCE(f.is_binary,false), COALESCE(f.is_encrypted,false)
FROM configurations c
LEFT JOIN LATERAL (
    SELECT revision, sha1_checksum, mtime, content, is_binary, is_encrypted
    FROM configuration_files
    WHERE configuration_id=c.id
    ORDER BY revision DESC
    LIMIT 1
) f ON true
WHERE c.client_id=$1
ORDER BY c.file_path`
	rows, err := r.db.Pool.Query(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ConfigSummary
	for rows.Next() {
		var s model.ConfigSummary
		if err = rows.Scan(&s.FilePath, &s.IsDisabled, &s.Revision, &s.SHA1Checksum,
			&s.Mtime, &s.ContentLength, &s.IsBinary, &s.IsEncrypted); err != nil {
			return nil, err
		}
		if s.IsDisabled {
			// disabled entries surface only path and flag
			s = model.ConfigSummary{FilePath: s.FilePath, IsDisabled: true}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of tracked paths for a client.
func (r *ConfigRepo) Count(ctx context.Context, clientID int64) (int64, error) {
	const q = `SELECT COUNT(*) FROM configurations WHERE client_id=$1`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, clientID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

const selConf = `SELECT id, file_path, is_disabled FROM configurations WHERE client_id=$1 AND file_path=$2`

const selLatest = `
SELECT revision, sha1_checksum, mtime, content, is_binary, is_encrypted
FROM configuration_files
WHERE configuration_id=$1
ORDER BY revision DESC
LIMIT 1`

// GetLatest returns the latest revision view for one path.
func (r *ConfigRepo) GetLatest(ctx context.Context, clientID int64, filePath string) (*model.RevisionView, error) {
	confID, view, err := r.resolveConf(ctx, r.db.Pool, clientID, filePath)
	if err != nil {
		return nil, err
	}
	if view.IsDisabled {
		return view, nil
	}
	err = r.db.Pool.QueryRow(ctx, selLatest, confID).
		Scan(&view.Revision, &view.SHA1Checksum, &view.Mtime, &view.Content, &view.IsBinary, &view.IsEncrypted)
	if errors.Is(err, pgx.ErrNoRows) {
		// no revision rows yet; surface the zero view
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Push commits a new revision. The whole sequence runs in one transaction
// with the configuration row locked, so two concurrent pushes against the
// same path serialize and cannot both observe the same latest revision.
func (r *ConfigRepo) Push(ctx context.Context, clientID int64, req model.PushRequest) (view *model.RevisionView, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	confID, view, err := r.resolveConfLocked(ctx, tx, clientID, req.FilePath)
	if err != nil {
		return nil, err
	}
	if view.IsDisabled {
		return nil, fmt.Errorf("%s: %w", req.FilePath, errs.ErrConfigDisabled)
	}

	// Sealed content is integrity-protected by its AEAD tag; the claimed
	// digest is over the pre-seal plaintext and cannot be recomputed here.
	if !req.IsEncrypted {
		var digest string
		if digest, err = checksum.Payload(req.Content, req.IsBinary); err != nil {
			return nil, err
		}
		if digest != req.SHA1Checksum {
			return nil, fmt.Errorf("%s: %w", req.FilePath, errs.ErrChecksumMismatch)
		}
	}

	var latestRev, latestMtime int64
	err = tx.QueryRow(ctx, `SELECT revision, mtime FROM configuration_files WHERE configuration_id=$1 ORDER BY revision DESC LIMIT 1`, confID).
		Scan(&latestRev, &latestMtime)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	err = nil

	if req.Mtime < latestMtime {
		return nil, fmt.Errorf("%s: %w", req.FilePath, errs.ErrStaleWrite)
	}
	if req.Mtime == latestMtime && latestRev > 0 {
		return nil, fmt.Errorf("%s: %w", req.FilePath, errs.ErrSameAge)
	}

	const ins = `
INSERT INTO configuration_files (configuration_id, revision, sha1_checksum, mtime, content, is_binary, is_encrypted)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	newRev := latestRev + 1
	if _, err = tx.Exec(ctx, ins, confID, newRev, req.SHA1Checksum, req.Mtime,
		req.Content, req.IsBinary, req.IsEncrypted); err != nil {
		return nil, err
	}

	return &model.RevisionView{
		FilePath:     view.FilePath,
		Revision:     newRev,
		SHA1Checksum: req.SHA1Checksum,
		Mtime:        req.Mtime,
		Content:      req.Content,
		IsBinary:     req.IsBinary,
		IsEncrypted:  req.IsEncrypted,
	}, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// resolveConf maps a normalized path to exactly one configuration row.
// Zero matches is ErrNotTracked; more than one violates the uniqueness
// invariant and is reported as ErrAmbiguous rather than picking a row.
func (r *ConfigRepo) resolveConf(ctx context.Context, q querier, clientID int64, filePath string) (int64, *model.RevisionView, error) {
	return scanConf(ctx, q, selConf, clientID, filePath)
}

func (r *ConfigRepo) resolveConfLocked(ctx context.Context, q querier, clientID int64, filePath string) (int64, *model.RevisionView, error) {
	return scanConf(ctx, q, selConf+` FOR UPDATE`, clientID, filePath)
}

func scanConf(ctx context.Context, q querier, sql string, clientID int64, filePath string) (int64, *model.RevisionView, error) {
	rows, err := q.Query(ctx, sql, clientID, filePath)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var (
		matches int
		confID  int64
		view    model.RevisionView
	)
	for rows.Next() {
		matches++
		if matches > 1 {
			return 0, nil, fmt.Errorf("%s: %w", filePath, errs.ErrAmbiguous)
		}
		if err = rows.Scan(&confID, &view.FilePath, &view.IsDisabled); err != nil {
			return 0, nil, err
		}
	}
	if err = rows.Err(); err != nil {
		return 0, nil, err
	}
	if matches == 0 {
		return 0, nil, fmt.Errorf("%s: %w", filePath, errs.ErrNotTracked)
	}
	return confID, &view, nil
}
