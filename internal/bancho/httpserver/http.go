// Package httpserver exposes the bancho core over the single HTTP
// endpoint the client protocol expects: `GET /` is a liveness probe,
// `POST /` carries either a login blob (no token) or a framed packet
// batch (with one).
package httpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"banchogate/internal/bancho/dispatch"
	"banchogate/internal/bancho/login"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/registry"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
	"banchogate/internal/geolocation"
)

// toSessionGeo adapts the geolocation package's resolved origin into
// the bancho session package's own Geolocation type — identical
// fields, kept as separate types so session stays free of a dependency
// on the HTTP-facing resolver.
func toSessionGeo(g geolocation.Geolocation) session.Geolocation {
	return session.Geolocation{
		CountryCode: g.CountryCode,
		Long:        g.Long,
		Lat:         g.Lat,
		IP:          g.IP,
	}
}

// Config holds the listener address.
type Config struct {
	Address string
	Port    int
}

// Server is the bancho HTTP front door: login.Dependencies handles the
// tokenless path, dispatch.Deps/registry.Table the tokened one.
type Server struct {
	config   Config
	login    login.Dependencies
	dispatch *dispatch.Deps
	table    *registry.Table
	sessions *session.Store
	logger   *slog.Logger

	server *http.Server
}

// New wires a Server from its already-constructed collaborators.
func New(cfg Config, loginDeps login.Dependencies, dispatchDeps *dispatch.Deps, table *registry.Table, sessions *session.Store, logger *slog.Logger) *Server {
	return &Server{
		config:   cfg,
		login:    loginDeps,
		dispatch: dispatchDeps,
		table:    table,
		sessions: sessions,
		logger:   logger,
	}
}

// Start runs the HTTP server until it is shut down or a fatal listener
// error occurs; ctx is used only for logging, so cancelling it does not
// stop the server. It always returns a non-nil error
// (http.ErrServerClosed on a clean shutdown).
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)

	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	s.server = &http.Server{Addr: addr, Handler: mux}

	s.logger.InfoContext(ctx, "bancho http server starting", "address", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.InfoContext(ctx, "bancho http server stopping")
	return s.server.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		fmt.Fprint(w, "herbe.rt")
		return
	}

	if r.Header.Get("User-Agent") != "osu!" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token := r.Header.Get("osu-token")
	if token == "" {
		s.handleLogin(w, r, body)
		return
	}
	s.handleDispatch(w, r, token, body)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, body []byte) {
	geo := toSessionGeo(geolocation.FromHeaders(r.Header))

	resp, token, err := s.login.Handle(r.Context(), body, geo)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "login handshake failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if token != "" {
		w.Header().Set("cho-token", token)
	}
	w.Write(resp)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request, token string, body []byte) {
	sess, err := s.sessions.FetchByToken(r.Context(), token)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "session lookup failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if sess == nil {
		w.Write(wire.Frame(uint16(packets.Restart), encodeI32(0)))
		return
	}

	resp, err := s.dispatch.HandleRequest(r.Context(), s.table, sess, body)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "dispatch failed", "error", err, "session", sess.Account.ID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write(resp)
}

func encodeI32(v int32) []byte {
	wr := wire.NewWriter()
	wr.WriteI32(v)
	return wr.Bytes()
}
