package httpserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	appai "github.com/bryanwahyu/exploitsearch/internal/application/ai"
	appexploits "github.com/bryanwahyu/exploitsearch/internal/application/exploits"
	domai "github.com/bryanwahyu/exploitsearch/internal/domain/ai"
	"github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/infra/export"
	"github.com/bryanwahyu/exploitsearch/internal/middleware"
)

const maxSearchLimit = 1000

// errInvalidInput marks request validation failures (400)
var errInvalidInput = errors.New("invalid input")

// Options tunes the router; zero values disable the feature.
type Options struct {
	Auth        middleware.AuthConfig
	CORSOrigins []string
	// analysis endpoint only
	RateCapacity int
	RateRefill   int
	Checkers     map[string]middleware.HealthChecker
}

type Router struct {
	exploitsSvc *appexploits.Service
	aiSvc       *appai.Service
	metrics     *middleware.Metrics
}

func NewRouter(exploitsSvc *appexploits.Service, aiSvc *appai.Service, opts Options) http.Handler {
	r := &Router{exploitsSvc: exploitsSvc, aiSvc: aiSvc, metrics: middleware.Global()}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition", "X-Report-URL"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.BearerAuth(opts.Auth))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	analysisLimit := func(next http.Handler) http.Handler { return next }
	if opts.RateCapacity > 0 {
		analysisLimit = middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill)
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/exploits", r.wrap(r.handleSearch))
		rt.Route("/exploits/{id}", func(ex chi.Router) {
			ex.Get("/", r.wrap(r.handleGet))
			ex.Get("/source", r.wrap(r.handleSource))
			ex.With(analysisLimit).Post("/analysis", r.wrap(r.handleAnalyze))
			ex.Get("/analysis/latest", r.wrap(r.handleLatestFor))
		})
		rt.Get("/analysis", r.wrap(r.handleAnalysisList))
		rt.Get("/analysis/current", r.wrap(r.handleCurrent))
		rt.Get("/analysis/current/export", r.wrap(r.handleExport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type errResponse struct {
	Error string `json:"error"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Printf("handler error: method=%s path=%s status=%d err=%v", req.Method, req.URL.Path, status, err)
		}
		render.Status(req, status)
		render.JSON(w, req, errResponse{Error: err.Error()})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, exploits.ErrNotFound), errors.Is(err, analyst.ErrNotFound), errors.Is(err, appai.ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNothingToExport):
		return http.StatusConflict
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domai.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func invalid(err error) error { return fmt.Errorf("%w: %v", errInvalidInput, err) }

func intParam(req *http.Request, name string) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(fmt.Errorf("%s must be an integer", name))
	}
	return n, nil
}

func (r *Router) record(req *http.Request) (exploits.Record, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateExploitID(id); err != nil {
		return exploits.Record{}, invalid(err)
	}
	return r.exploitsSvc.Get(id)
}

// GET /v1/exploits?q=&limit=
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) error {
	q, err := middleware.ValidateQuery(req.URL.Query().Get("q"))
	if err != nil {
		return invalid(err)
	}
	limit, err := intParam(req, "limit")
	if err != nil {
		return err
	}
	r.metrics.SearchesTotal.Add(1)
	render.JSON(w, req, r.exploitsSvc.Search(q, middleware.ValidateLimit(limit, maxSearchLimit)))
	return nil
}

// GET /v1/exploits/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	render.JSON(w, req, exploits.NewView(rec))
	return nil
}

// GET /v1/exploits/{id}/source[?format=json]
func (r *Router) handleSource(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	src := r.exploitsSvc.Source(rec)
	if strings.EqualFold(req.URL.Query().Get("format"), "json") {
		render.JSON(w, req, src)
		return nil
	}
	if src.Notice != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err = w.Write([]byte(src.Notice))
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write([]byte(src.HTML))
	return err
}

// POST /v1/exploits/{id}/analysis
// Responds right away; the result shows up in /v1/analysis/current.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	ar, err := r.aiSvc.Analyze(req.Context(), rec)
	if err != nil {
		return err
	}
	r.metrics.AnalysisDispatched()

	render.Status(req, http.StatusAccepted)
	render.JSON(w, req, map[string]any{
		"request_id": ar.ID,
		"exploit_id": rec.ID,
		"status":     "queued",
	})
	return nil
}

// GET /v1/exploits/{id}/analysis/latest
func (r *Router) handleLatestFor(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	a, err := r.aiSvc.LatestFor(req.Context(), rec.ID)
	if err != nil {
		return err
	}
	if a == nil {
		return analyst.ErrNotFound
	}
	render.JSON(w, req, a)
	return nil
}

// GET /v1/analysis?page=&page_size=
func (r *Router) handleAnalysisList(w http.ResponseWriter, req *http.Request) error {
	page, err := intParam(req, "page")
	if err != nil {
		return err
	}
	size, err := intParam(req, "page_size")
	if err != nil {
		return err
	}
	list, err := r.aiSvc.ListAnalyses(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size, 100))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*analyst.Analysis{}
	}
	render.JSON(w, req, list)
	return nil
}

// GET /v1/analysis/current
func (r *Router) handleCurrent(w http.ResponseWriter, req *http.Request) error {
	render.JSON(w, req, r.aiSvc.Current())
	return nil
}

// GET /v1/analysis/current/export?format=pdf|docx[&upload=true]
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	format, err := middleware.ValidateFormat(req.URL.Query().Get("format"))
	if err != nil {
		return invalid(err)
	}
	cur := r.aiSvc.Current()
	if cur.Status != appai.StatusReady {
		return export.ErrNothingToExport
	}
	upload, _ := strconv.ParseBool(req.URL.Query().Get("upload"))

	res, err := r.exploitsSvc.ExportAnalysis(req.Context(), appexploits.ExportCommand{
		Format:    format,
		ExploitID: cur.ExploitID,
		HTML:      cur.Text,
		Upload:    upload,
	})
	if err != nil {
		return err
	}
	r.metrics.ExportsTotal.Add(1)

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(res.Size))
	if res.URL != "" {
		w.Header().Set("X-Report-URL", res.URL)
	}
	_, err = w.Write(res.Data)
	return err
}
