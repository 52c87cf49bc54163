package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	log "github.com/go-pkgz/lgr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/metrics"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
	"github.com/ipkit/royaltydemo/pkg/theme"
	"github.com/ipkit/royaltydemo/pkg/wizard"
)

//go:embed templates static
var content embed.FS

// Controller is the wizard as driven by the dashboard.
type Controller interface {
	Upload(name string, r io.Reader) error
	SelectLicense(id string) error
	SetRevShare(pct int) error
	Protect() (string, error)
	Claim() error
	Reset()
	View() wizard.View
}

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Port          int                 // port to listen on
	MaxUpload     int64               // upload body limit, 0 uses wizard.DefaultMaxUpload
	RateLimit     int                 // mutating requests per minute per IP, 0 uses 120
	Gatherer      prometheus.Gatherer // metrics source for /metrics, nil uses the default gatherer
	Metrics       *metrics.Metrics    // claim counters, may be nil
	ShutdownAfter time.Duration       // graceful shutdown timeout, 0 uses 5s
}

// Server provides HTTP server for the demo dashboard.
type Server struct {
	cfg   ServerConfig
	ctrl  Controller
	theme *theme.Provider
	pub   *Publisher
	srv   *http.Server
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig, ctrl Controller, themes *theme.Provider, pub *Publisher) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = wizard.DefaultMaxUpload
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 120
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.ShutdownAfter <= 0 {
		cfg.ShutdownAfter = 5 * time.Second
	}
	if themes == nil {
		themes = theme.NewProvider("")
	}
	return &Server{cfg: cfg, ctrl: ctrl, theme: themes, pub: pub}
}

// Routes returns the dashboard router.
func (s *Server) Routes() (http.Handler, error) {
	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		return nil, fmt.Errorf("static filesystem: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex(false))
	r.Get("/iframe", s.handleIndex(true))
	r.Get("/events", s.handleEvents)
	r.Get("/api/state", s.handleState)
	r.Get("/api/licenses", s.handleLicenses)
	r.Get("/api/history", s.handleHistory)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/license", s.handleLicense)
		r.Post("/api/protect", s.handleProtect)
		r.Post("/api/claim", s.handleClaim)
		r.Post("/api/reset", s.handleReset)
		r.Post("/api/theme", s.handleTheme)
	})
	return r, nil
}

// Start begins listening for HTTP requests.
// blocks until ctx is canceled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.Routes()
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if stopErr := s.Stop(); stopErr != nil {
			log.Printf("[WARN] %v", stopErr)
		}
	}()

	log.Printf("[INFO] dashboard listening on :%d", s.cfg.Port)
	err = s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	// open event streams never finish on their own, closing the hub ends them
	s.pub.Hub().Close()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownAfter)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// rateLimit limits mutating requests per client IP.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.cfg.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		}),
	)
}

// templateData holds data for the dashboard template.
type templateData struct {
	Theme    theme.Theme
	Iframe   bool
	View     wizard.View
	Licenses []catalog.License
	RevShare string
	Image    template.URL // data: URL built from a sniffed image
}

// handleIndex serves the dashboard page. iframe mode ignores and never stores theme preferences.
func (s *Server) handleIndex(iframe bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := template.ParseFS(content, "templates/base.html")
		if err != nil {
			log.Printf("[WARN] parse template: %v", err)
			http.Error(w, "template error", http.StatusInternalServerError)
			return
		}

		view := s.ctrl.View()
		data := templateData{
			Theme:    s.theme.Resolve(theme.RequestFrom(r, iframe)),
			Iframe:   iframe,
			View:     view,
			Licenses: catalog.Licenses(),
			RevShare: strconv.Itoa(view.RevShare),
			Image:    template.URL(view.Image), //nolint:gosec // data URL of a sniffed image upload
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
		if err := tmpl.Execute(w, data); err != nil {
			log.Printf("[WARN] execute template: %v", err)
			http.Error(w, "template execution error", http.StatusInternalServerError)
		}
	}
}

// stateResponse is the payload of /api/state.
type stateResponse struct {
	wizard.View
	Theme theme.Theme `json:"theme"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	iframe := r.URL.Query().Get("iframe") == "1"
	writeJSON(w, http.StatusOK, stateResponse{
		View:  s.ctrl.View(),
		Theme: s.theme.Resolve(theme.RequestFrom(r, iframe)),
	})
}

// handleHistory returns the buffered events of the current run, optionally only one phase.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events := s.pub.Buffer().All()
	if p := r.URL.Query().Get("phase"); p != "" {
		phase := status.Phase(p)
		if !phase.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown phase %q", p))
			return
		}
		events = s.pub.Buffer().ByPhase(phase)
	}
	if events == nil {
		events = []Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleLicenses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Licenses())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// multipart framing needs some room above the image itself
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	defer file.Close()

	if err := s.ctrl.Upload(header.Filename, file); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctrl.View())
}

// licenseRequest selects a license and optionally the revenue share.
type licenseRequest struct {
	License  string `json:"license"`
	RevShare *int   `json:"rev_share,omitempty"`
}

func (s *Server) handleLicense(w http.ResponseWriter, r *http.Request) {
	var req licenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.License != "" {
		if _, ok := status.ParseLicense(req.License); !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown license %q", req.License))
			return
		}
		if err := s.ctrl.SelectLicense(req.License); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
	}
	if req.RevShare != nil {
		if *req.RevShare < 0 || *req.RevShare > 100 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("revenue share %d out of range 0..100", *req.RevShare))
			return
		}
		if err := s.ctrl.SetRevShare(*req.RevShare); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.ctrl.View())
}

func (s *Server) handleProtect(w http.ResponseWriter, _ *http.Request) {
	run, err := s.ctrl.Protect()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"run_id": run})
}

func (s *Server) handleClaim(w http.ResponseWriter, _ *http.Request) {
	err := s.ctrl.Claim()
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveClaim(err)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.View())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Reset()
	writeJSON(w, http.StatusOK, s.ctrl.View())
}

// themeRequest sets a theme, or toggles the current one when Theme is empty.
type themeRequest struct {
	Theme  string `json:"theme"`
	Iframe bool   `json:"iframe"`
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Theme == "" {
		next, err := s.theme.Toggle(theme.RequestFrom(r, req.Iframe))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]theme.Theme{"theme": next})
		return
	}

	t, ok := theme.Parse(req.Theme)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown theme %q", req.Theme))
		return
	}
	if err := s.theme.Save(t, req.Iframe); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]theme.Theme{"theme": t})
}

// handleEvents serves the SSE stream: the buffered history of the current run, then live events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	eventCh := s.pub.Subscribe()
	defer s.pub.Unsubscribe(eventCh)
	defer func() {
		if n := s.pub.Hub().Dropped(eventCh); n > 0 {
			log.Printf("[DEBUG] sse client %s missed %d events", r.RemoteAddr, n)
		}
	}()
	flusher.Flush()

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			writeSSE(w, event)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w io.Writer, e Event) {
	data, err := e.JSON()
	if err != nil {
		log.Printf("[WARN] %v", err)
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

// errorResponse is the JSON body of failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps wizard and sequencer errors to http status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrWrongStep), errors.Is(err, wizard.ErrNoLicense),
		errors.Is(err, sequencer.ErrNotClaimable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		log.Printf("[WARN] request failed: %v", err)
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}
