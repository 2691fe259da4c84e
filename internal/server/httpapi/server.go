// Package httpapi exposes the sync wire protocol: JSON over HTTP, one
// resource per verb. Error responses are {"error": "<message>"} carried
// on HTTP 200; the agent treats non-200 as a transport failure.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/limiter"
	"github.com/jonmsawyer/cmdb/internal/model"
	"github.com/jonmsawyer/cmdb/internal/protocol"
	"github.com/jonmsawyer/cmdb/internal/service"
)

// maxBodyBytes caps request bodies; configuration files are small.
const maxBodyBytes = 16 << 20

// Server holds the services behind the wire protocol.
type Server struct {
	registry service.Registry
	catalog  service.Catalog
	store    service.Store
	lim      limiter.Limiter
	log      *zap.Logger
}

// New constructs the API server.
func New(registry service.Registry, catalog service.Catalog, store service.Store, lim limiter.Limiter, log *zap.Logger) *Server {
	return &Server{registry: registry, catalog: catalog, store: store, lim: lim, log: log}
}

// Handler returns the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/clients/register/", s.handleRegister)
	mux.HandleFunc("/clients/unregister/", s.handleUnregister)
	mux.HandleFunc("/clients/status/", s.handleStatus)
	mux.HandleFunc("/clients/info/", s.handleInfo)
	mux.HandleFunc("/clients/config_status/", s.handleConfigStatus)
	mux.HandleFunc("/clients/add/", s.handleAdd)
	mux.HandleFunc("/clients/remove/", s.handleRemove)
	mux.HandleFunc("/clients/poll/", s.handlePoll)
	mux.HandleFunc("/clients/fetch/", s.handleFetch)
	mux.HandleFunc("/clients/push/", s.handlePush)
	return Recover(s.log, Logging(s.log, mux))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req protocol.RegisterRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	ctx := r.Context()

	ipHash := limiter.HashIP(remoteIP(r))
	if s.lim != nil {
		allowed, _, err := s.lim.Allow(ctx, req.FQDN, ipHash)
		if err != nil {
			s.fail(w, err)
			return
		}
		if !allowed {
			s.fail(w, errs.ErrRateLimited)
			return
		}
	}

	c, err := s.registry.Register(ctx, req.FQDN)
	if err != nil {
		if s.lim != nil {
			// record the failure; a block placed here gates the next
			// attempt, the caller still sees why this one failed
			_, _, _ = s.lim.Failure(ctx, req.FQDN, ipHash)
		}
		s.fail(w, err)
		return
	}
	if s.lim != nil {
		_ = s.lim.Success(ctx, req.FQDN, ipHash)
	}

	writeJSON(w, statusResponse(c, true))
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	var req protocol.UnregisterRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	c, err := s.registry.Disable(r.Context(), req.APIKey)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, protocol.UnregisterResponse{FQDN: c.Name, IsDisabled: c.IsDisabled})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, statusResponse(c, false))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupQuery(w, r)
	if !ok {
		return
	}
	n, err := s.catalog.Count(r.Context(), c)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, protocol.InfoResponse{
		Name:                   c.Name,
		DateCreated:            c.DateCreated.Format("2006-01-02"),
		APIKey:                 c.APIKey,
		IsDisabled:             c.IsDisabled,
		IsBlacklisted:          c.IsBlacklisted,
		ConfigurationsTracking: n,
	})
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupQuery(w, r)
	if !ok {
		return
	}
	resp := protocol.ConfigStatusResponse{
		Name:           c.Name,
		IsDisabled:     c.IsDisabled,
		IsBlacklisted:  c.IsBlacklisted,
		Configurations: []protocol.ConfigEntry{},
	}
	if c.IsDisabled || c.IsBlacklisted {
		writeJSON(w, resp)
		return
	}
	sums, err := s.catalog.Snapshot(r.Context(), c)
	if err != nil {
		s.fail(w, err)
		return
	}
	for _, sum := range sums {
		resp.Configurations = append(resp.Configurations, configEntry(sum, true))
	}
	writeJSON(w, resp)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	req, c, ok := s.readAddRemove(w, r)
	if !ok {
		return
	}
	add := model.AddRequest{
		FilePath:      req.Configuration.FilePath,
		CaseSensitive: req.Configuration.CaseSensitive,
		Mtime:         req.Configuration.Mtime,
		Payload:       req.Configuration.Payload,
	}
	if err := s.catalog.Add(r.Context(), c, add); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, echoResponse(req))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	req, c, ok := s.readAddRemove(w, r)
	if !ok {
		return
	}
	if err := s.catalog.Remove(r.Context(), c, req.Configuration.FilePath, req.Configuration.CaseSensitive); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, echoResponse(req))
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupQuery(w, r)
	if !ok {
		return
	}
	// blacklist is permanent: the sync surface never answers
	if c.IsBlacklisted {
		s.fail(w, errs.ErrBlacklisted)
		return
	}
	resp := protocol.PollResponse{
		ClientName:     c.Name,
		DateCreated:    c.DateCreated.Format("2006-01-02"),
		IsDisabled:     c.IsDisabled,
		IsBlacklisted:  c.IsBlacklisted,
		Configurations: []protocol.ConfigEntry{},
	}
	if c.IsDisabled {
		writeJSON(w, resp)
		return
	}
	sums, err := s.catalog.Snapshot(r.Context(), c)
	if err != nil {
		s.fail(w, err)
		return
	}
	for _, sum := range sums {
		resp.Configurations = append(resp.Configurations, configEntry(sum, false))
	}
	resp.ConfigurationCount = int64(len(sums))
	writeJSON(w, resp)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")
	if filePath == "" {
		writeError(w, "Invalid `file_path`.")
		return
	}
	c, err := s.registry.Authorize(r.Context(), r.URL.Query().Get("api_key"))
	if err != nil {
		s.fail(w, err)
		return
	}
	view, err := s.store.FetchLatest(r.Context(), c, filePath)
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := protocol.FetchResponse{FilePath: view.FilePath, IsDisabled: view.IsDisabled}
	if !view.IsDisabled {
		resp.Revision = &view.Revision
		resp.Mtime = &view.Mtime
		resp.SHA1Checksum = &view.SHA1Checksum
		resp.Content = &view.Content
		resp.IsBinary = &view.IsBinary
		resp.IsEncrypted = &view.IsEncrypted
	}
	writeJSON(w, resp)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req protocol.PushRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	c, err := s.registry.Authorize(r.Context(), req.APIKey)
	if err != nil {
		s.fail(w, err)
		return
	}
	view, err := s.store.Push(r.Context(), c, model.PushRequest{
		FilePath:      req.FilePath,
		CaseSensitive: req.CaseSensitive,
		Mtime:         req.Mtime,
		SHA1Checksum:  req.SHA1Checksum,
		Content:       req.Content,
		IsBinary:      req.IsBinary,
		IsEncrypted:   req.IsEncrypted,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, protocol.PushResponse{OK: "Success!", Revision: view.Revision})
}

// ---- helpers ----

// lookupQuery resolves api_key from the query string with no state gating.
func (s *Server) lookupQuery(w http.ResponseWriter, r *http.Request) (*model.Client, bool) {
	if r.Method != http.MethodGet {
		writeError(w, "Invalid method.")
		return nil, false
	}
	c, err := s.registry.Lookup(r.Context(), r.URL.Query().Get("api_key"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return c, true
}

// readAddRemove decodes and authorizes an add/remove body.
func (s *Server) readAddRemove(w http.ResponseWriter, r *http.Request) (*protocol.AddRemoveRequest, *model.Client, bool) {
	var req protocol.AddRemoveRequest
	if !s.readJSON(w, r, &req) {
		return nil, nil, false
	}
	if req.Type != "configuration" {
		writeError(w, "Could not understand the type: `"+req.Type+"`.")
		return nil, nil, false
	}
	c, err := s.registry.Authorize(r.Context(), req.APIKey)
	if err != nil {
		s.fail(w, err)
		return nil, nil, false
	}
	return &req, c, true
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, "Invalid method.")
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, "Could not read request body.")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, "Could not parse request body.")
		return false
	}
	return true
}

// fail maps a service error to its wire message. Classified errors get
// their stable message; anything else is logged and reported generically.
func (s *Server) fail(w http.ResponseWriter, err error) {
	msg, known := errorMessage(err)
	if !known {
		s.log.Error("request failed", zap.Error(err))
	}
	writeError(w, msg)
}

func errorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, errs.ErrInvalidAPIKey):
		return "Invalid `api_key`.", true
	case errors.Is(err, errs.ErrUnknownClient):
		return "Client for `api_key` doesn't exist.", true
	case errors.Is(err, errs.ErrClientDisabled):
		return "Client for `api_key` is currently disabled.", true
	case errors.Is(err, errs.ErrBlacklisted):
		return "Client is blacklisted.", true
	case errors.Is(err, errs.ErrAlreadyRegistered):
		return "Client is already registered.", true
	case errors.Is(err, errs.ErrRateLimited):
		return "Too many registration attempts, try again later.", true
	case errors.Is(err, errs.ErrAlreadyTracked):
		return "Configuration already exists.", true
	case errors.Is(err, errs.ErrNotTracked):
		return "File not found.", true
	case errors.Is(err, errs.ErrAmbiguous):
		return "Multiple files found.", true
	case errors.Is(err, errs.ErrConfigDisabled):
		return "Configuration file is disabled.", true
	case errors.Is(err, errs.ErrChecksumMismatch):
		return "Checksum mismatch, aborting.", true
	case errors.Is(err, errs.ErrStaleWrite):
		return "Modified timestamp of pushed file is older than configuration, aborting.", true
	case errors.Is(err, errs.ErrSameAge):
		return "Files are the same age, aborting.", true
	case errors.Is(err, errs.ErrEncoding):
		return "Payload is not valid text.", true
	default:
		return err.Error(), false
	}
}

func statusResponse(c *model.Client, withKey bool) protocol.StatusResponse {
	resp := protocol.StatusResponse{
		Name:          c.Name,
		DateCreated:   c.DateCreated.Format("2006-01-02"),
		IsDisabled:    c.IsDisabled,
		IsBlacklisted: c.IsBlacklisted,
	}
	if withKey {
		resp.APIKey = c.APIKey
	}
	return resp
}

func echoResponse(req *protocol.AddRemoveRequest) protocol.AddRemoveResponse {
	return protocol.AddRemoveResponse{
		FilePath:      req.Configuration.FilePath,
		Mtime:         req.Configuration.Mtime,
		Payload:       req.Configuration.Payload,
		CaseSensitive: req.Configuration.CaseSensitive,
	}
}

// configEntry renders a snapshot row; content length rides only on
// config_status, never on poll.
func configEntry(sum model.ConfigSummary, withLength bool) protocol.ConfigEntry {
	e := protocol.ConfigEntry{FilePath: sum.FilePath, IsDisabled: sum.IsDisabled}
	if sum.IsDisabled {
		return e
	}
	rev, digest, mtime := sum.Revision, sum.SHA1Checksum, sum.Mtime
	bin, enc := sum.IsBinary, sum.IsEncrypted
	e.Revision = &rev
	e.SHA1Checksum = &digest
	e.Mtime = &mtime
	e.IsBinary = &bin
	e.IsEncrypted = &enc
	if withLength {
		n := sum.ContentLength
		e.ContentLength = &n
	}
	return e
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, protocol.ErrorResponse{Error: msg})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ListenAndServe runs the handler until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
