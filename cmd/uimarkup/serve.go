package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/config"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/schema"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
)

// serverShutdownTimeout bounds the drain of in-flight requests.
const serverShutdownTimeout = 10 * time.Second

// ErrShuttingDown is reported by /readyz once shutdown has begun.
var ErrShuttingDown = errors.New("server is shutting down")

// CompileRequest is the body of POST /api/transform and POST /api/check.
type CompileRequest struct {
	Source string `json:"source"`
	FileID int    `json:"fileId,omitempty"`
}

// TransformResponse is the body answered by POST /api/transform.
type TransformResponse struct {
	Definition *compdef.Definition `json:"definition,omitempty"`
	Cached     bool                `json:"cached"`
	Problems   []diag.Diagnostic   `json:"problems"`
}

// CheckResponse is the body answered by POST /api/check.
type CheckResponse struct {
	OK       bool              `json:"ok"`
	Problems []diag.Diagnostic `json:"problems"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP compile service",
		Long: `Serve markup compilation over HTTP.

Endpoints:
  POST /api/transform  {"source": "..."} -> definition and problems
  POST /api/check      {"source": "..."} -> problems
  GET  /api/schema     definition JSON schema
  GET  /healthz        liveness
  GET  /readyz         readiness
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")

	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, addr string) error {
	a, err := setup(flags, setupOptions{mode: observability.ModeServe, prometheus: true})
	if err != nil {
		return err
	}

	defer func() { _ = a.close() }()

	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	srv, err := newHTTPServer(a, addr)
	if err != nil {
		return err
	}

	var shuttingDown atomic.Bool

	srv.Handler = newServeHandler(a, func(context.Context) error {
		if shuttingDown.Load() {
			return ErrShuttingDown
		}

		return nil
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	a.logger.Info("serving", "http.addr", listener.Addr().String())

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shuttingDown.Store(true)
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func newHTTPServer(a *app, addr string) (*http.Server, error) {
	read, err := config.ParseTimeout(a.cfg.Server.ReadTimeout)
	if err != nil {
		return nil, err
	}

	write, err := config.ParseTimeout(a.cfg.Server.WriteTimeout)
	if err != nil {
		return nil, err
	}

	idle, err := config.ParseTimeout(a.cfg.Server.IdleTimeout)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              addr,
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}, nil
}

// newServeHandler builds the routed, instrumented handler tree.
func newServeHandler(a *app, ready observability.ReadyCheck) http.Handler {
	api := &compileAPI{compiler: a.compiler, maxBody: a.cfg.MaxBodySizeBytes()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transform", api.handleTransform)
	mux.HandleFunc("POST /api/check", api.handleCheck)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(ready))

	if a.providers.MetricsHandler != nil {
		mux.Handle("GET /metrics", a.providers.MetricsHandler)
	}

	return observability.HTTPMiddleware(a.providers.Tracer, a.red, mux)
}

type compileAPI struct {
	compiler *markup.Compiler
	maxBody  int64
}

// decode reads a CompileRequest, answering the error itself when it fails.
func (api *compileAPI) decode(rw http.ResponseWriter, hr *http.Request) (CompileRequest, bool) {
	var req CompileRequest

	body := hr.Body
	if api.maxBody > 0 {
		body = http.MaxBytesReader(rw, hr.Body, api.maxBody)
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(rw, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})

			return req, false
		}

		writeJSON(rw, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})

		return req, false
	}

	return req, true
}

func (api *compileAPI) compile(hr *http.Request, req CompileRequest) (*markup.Result, []diag.Diagnostic, error) {
	res, err := api.compiler.Compile(hr.Context(), req.FileID, []byte(req.Source))

	problems := markup.Problems(req.Source, res, err)
	if problems == nil {
		problems = []diag.Diagnostic{}
	}

	return res, problems, err
}

// handleTransform answers 200 with the definition, or 422 with the
// problems when the source does not compile.
func (api *compileAPI) handleTransform(rw http.ResponseWriter, hr *http.Request) {
	req, ok := api.decode(rw, hr)
	if !ok {
		return
	}

	res, problems, err := api.compile(hr, req)
	if err != nil {
		writeJSON(rw, http.StatusUnprocessableEntity, TransformResponse{Problems: problems})

		return
	}

	writeJSON(rw, http.StatusOK, TransformResponse{Definition: &res.Definition, Cached: res.Cached, Problems: problems})
}

func (api *compileAPI) handleCheck(rw http.ResponseWriter, hr *http.Request) {
	req, ok := api.decode(rw, hr)
	if !ok {
		return
	}

	_, problems, err := api.compile(hr, req)

	writeJSON(rw, http.StatusOK, CheckResponse{OK: err == nil, Problems: problems})
}

func handleSchema(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "application/schema+json")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(schema.Bytes())
}

func writeJSON(rw http.ResponseWriter, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(body)
}
