package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/api"
	"anonymizer/internal/config"
	"anonymizer/internal/logging"
	"anonymizer/internal/services"
)

const maxRequestBody = 10 << 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	svc     *api.AnonymizerService
	metrics *serverMetrics
	limiter *ipRateLimiter

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, svc *api.AnonymizerService, metrics *serverMetrics, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("api server requires config and service")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("api server requires a bind address")
	}
	if metrics == nil {
		metrics = newServerMetrics()
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		svc:     svc,
		metrics: metrics,
		limiter: newIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}
	srv.handler = srv.routes(cfg.Server.APIToken, cfg.Server.AllowedOrigins)
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string, origins []string) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	guarded := func(h http.HandlerFunc) http.Handler {
		return rateLimitMiddleware(s.limiter, s.metrics.rateLimited.Inc, authMiddleware(token, h))
	}
	open := func(h http.HandlerFunc) http.Handler {
		return rateLimitMiddleware(s.limiter, s.metrics.rateLimited.Inc, h)
	}

	for _, prefix := range []string{"", "/api"} {
		router.Handle(prefix+"/health", open(s.handleHealth)).Methods(http.MethodGet)
		router.Handle(prefix+"/encode", guarded(s.handleEncode)).Methods(http.MethodPost)
		router.Handle(prefix+"/decode", guarded(s.handleDecode)).Methods(http.MethodPost)
	}
	router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	return requestIDMiddleware(s.instrument(corsMiddleware(origins, router)))
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Health(r.Context()))
}

func (s *apiServer) handleEncode(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(services.WithOperation(r.Context(), "encode"))
	in, ok := s.decodeTextIn(w, r)
	if !ok {
		return
	}
	out, err := s.svc.Encode(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleDecode(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(services.WithOperation(r.Context(), "decode"))
	in, ok := s.decodeTextIn(w, r)
	if !ok {
		return
	}
	out, err := s.svc.Decode(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type textInBody struct {
	Text    *string           `json:"text"`
	Mapping map[string]string `json:"mapping"`
}

func (s *apiServer) decodeTextIn(w http.ResponseWriter, r *http.Request) (api.TextIn, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var body textInBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, r, http.StatusRequestEntityTooLarge, "request body too large", err)
			return api.TextIn{}, false
		}
		s.reject(w, r, http.StatusBadRequest, "invalid JSON body", err)
		return api.TextIn{}, false
	}
	if body.Text == nil {
		s.reject(w, r, http.StatusBadRequest, `field "text" is required`, nil)
		return api.TextIn{}, false
	}
	if err := anonymize.CheckEntries(body.Mapping); err != nil {
		s.reject(w, r, http.StatusBadRequest, `field "mapping" has an entry that cannot be stored`, err)
		return api.TextIn{}, false
	}
	return api.TextIn{Text: *body.Text, Mapping: body.Mapping}, true
}

func (s *apiServer) reject(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	attrs := []logging.Attr{logging.Int("status", status), logging.String("reason", message)}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	s.requestLogger(r).Warn("request rejected", logging.Args(attrs...)...)
	writeError(w, status, message)
}

// writeServiceError maps service errors to HTTP statuses. Details stay in
// the log; clients get the status text.
func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	s.requestLogger(r).Error("request failed", logging.Int("status", status), logging.Error(err))
	writeError(w, status, http.StatusText(status))
}

func (s *apiServer) requestLogger(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), s.log())
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
