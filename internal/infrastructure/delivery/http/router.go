// Package httprouter wires the HTTP surface: live-progress streaming,
// one-shot downloads, synchronous fetches and the operational endpoints.
package httprouter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ytmp3d/internal/config"
	"ytmp3d/internal/errs"
	"ytmp3d/internal/infrastructure/delivery/http/middleware"
	"ytmp3d/internal/infrastructure/delivery/http/request"
	"ytmp3d/internal/infrastructure/delivery/http/response"
	"ytmp3d/internal/jobstore"
	"ytmp3d/internal/observability"
	"ytmp3d/internal/progress"
	"ytmp3d/internal/service"
)

type chain []func(http.Handler) http.Handler

func (c chain) thenFunc(h http.HandlerFunc) http.Handler {
	return c.then(h)
}

func (c chain) then(h http.Handler) http.Handler {
	for _, mw := range slices.Backward(c) {
		h = mw(h)
	}
	return h
}

type Router struct {
	*http.ServeMux
	log         *slog.Logger
	cfg         *config.Config
	globalChain chain
	svc         service.Converter
	store       *jobstore.Store
	metrics     *observability.Metrics
}

func New(log *slog.Logger, cfg *config.Config, svc service.Converter, store *jobstore.Store, metrics *observability.Metrics) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log.With(slog.String("package", "httprouter")),
		cfg:      cfg,
		svc:      svc,
		store:    store,
		metrics:  metrics,
	}

	r.globalChain = chain{
		middleware.Recoverer,
		middleware.RequestID,
		middleware.Logger,
	}

	r.SetRoutes()

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.globalChain.then(r.ServeMux).ServeHTTP(w, req)
}

func (r *Router) SetRoutes() {
	// metrics run per-route so the pattern label is set by the mux.
	ops := chain{middleware.Metrics(r.metrics)}
	api := append(chain{middleware.APIKey(r.cfg.App.APIKey)}, ops...)

	r.Handle("GET /readyz", ops.thenFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	r.Handle("GET /metrics", r.metrics.Handler())

	r.Handle("GET /progress", api.thenFunc(r.Progress))
	r.Handle("GET /download/{token}", api.thenFunc(r.Download))
	r.Handle("GET /fetch", api.thenFunc(r.Fetch))
}

// Progress starts a conversion and streams its events over SSE. The worker is
// detached from the request: a client that disconnects mid-stream does not
// abort the conversion.
func (ro *Router) Progress(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With(slog.String("handler", "Progress"))
	ctx := r.Context()

	in, err := request.ParseConvert(r)
	if err != nil {
		log.ErrorContext(ctx, "invalid conversion request", slog.Any("error", err))
		response.BadRequest(w, err.Error())

		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.ErrorContext(ctx, "response writer does not support streaming")
		response.InternalServerError(w, "streaming unsupported")

		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	disconnect := ro.metrics.StreamClientConnected()
	defer disconnect()

	feed := ro.svc.Stream(ctx, in.URL)

	for {
		ev, ok := feed.TryPop()
		if ok {
			if err := writeEvent(w, ev); err != nil {
				log.DebugContext(ctx, "client gone, stopping stream", slog.Any("error", err))

				return
			}

			flusher.Flush()

			continue
		}

		if feed.Drained() {
			return
		}

		// Idle: comment line keeps intermediaries from timing out the
		// connection while the worker is busy.
		if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
			log.DebugContext(ctx, "client gone, stopping stream", slog.Any("error", err))

			return
		}

		flusher.Flush()

		select {
		case <-ctx.Done():
			log.DebugContext(ctx, "client disconnected, worker continues")

			return
		case <-time.After(ro.cfg.Job.PollInterval):
		}
	}
}

func writeEvent(w http.ResponseWriter, ev progress.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// Download serves a finished job's output exactly once and deletes its files.
func (ro *Router) Download(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With(slog.String("handler", "Download"))
	ctx := r.Context()

	token := r.PathValue("token")

	job, ok := ro.store.TakeIfPresent(token)
	if !ok {
		log.DebugContext(ctx, "token not found", slog.String("token", token))
		response.NotFound(w, errs.ErrTokenNotFound.Error())

		return
	}

	// The claim already removed the job; files go with the response.
	defer func() {
		if err := os.RemoveAll(filepath.Dir(job.Path)); err != nil {
			log.ErrorContext(ctx, "failed to remove job directory", slog.Any("error", err))
		}
	}()

	log.InfoContext(ctx, "serving download", slog.Any("job", job))

	serveAttachment(w, r, job.Path, job.Filename)
}

// Fetch converts synchronously and serves the output in the same response.
func (ro *Router) Fetch(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With(slog.String("handler", "Fetch"))
	ctx := r.Context()

	in, err := request.ParseConvert(r)
	if err != nil {
		log.ErrorContext(ctx, "invalid conversion request", slog.Any("error", err))
		response.BadRequest(w, err.Error())

		return
	}

	deliv, err := ro.svc.Convert(ctx, in.URL)
	if err != nil {
		log.ErrorContext(ctx, "conversion failed", slog.Any("error", err))

		if errors.Is(err, errs.ErrOutputNotFound) {
			response.NotFound(w, err.Error())

			return
		}

		response.InternalServerError(w, err.Error())

		return
	}

	defer func() {
		if err := os.RemoveAll(deliv.Dir); err != nil {
			log.ErrorContext(ctx, "failed to remove job directory", slog.Any("error", err))
		}
	}()

	log.InfoContext(ctx, "serving fetched file", slog.String("filename", deliv.Filename))

	serveAttachment(w, r, deliv.Path, deliv.Filename)
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, filename string) {
	if strings.HasSuffix(strings.ToLower(filename), ".zip") {
		w.Header().Set("Content-Type", "application/zip")
	} else {
		w.Header().Set("Content-Type", "audio/mpeg")
	}

	// Sanitized names carry no quotes, so plain quoting is safe.
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	http.ServeFile(w, r, path)
}
