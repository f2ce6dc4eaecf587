// Package server exposes captures over HTTP: POST /scrape returns the
// snapshot archive of a page as application/zip.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/archive"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 30 * time.Second

	msgInvalidURL  = "Invalid URL. Please include http:// or https://"
	msgUnreachable = "Failed to reach the website: "
	msgInternal    = "An internal error occurred: "
)

// Capturer produces a snapshot archive for a URL.
type Capturer interface {
	Capture(ctx context.Context, rawURL string) (*core.Result, error)
}

// Options configures the front door.
type Options struct {
	AllowedOrigins []string
}

// Server is the HTTP front door.
type Server struct {
	capturer Capturer
	log      logrus.FieldLogger
	router   chi.Router
}

// New builds a Server and its routes.
func New(c Capturer, opts Options, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{capturer: c, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Capture-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/scrape", s.handleScrape)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// handleScrape captures the requested page and streams back its archive.
// POST /scrape {"url": "https://example.com"}
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if _, err := core.ValidateURL(req.URL); err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidURL)
		return
	}

	result, err := s.capturer.Capture(r.Context(), req.URL)
	if err != nil {
		s.writeCaptureError(w, err)
		return
	}
	s.sendArchive(w, result)
}

func (s *Server) writeCaptureError(w http.ResponseWriter, err error) {
	cause := err
	var ce *core.CaptureError
	if errors.As(err, &ce) && ce.Err != nil {
		cause = ce.Err
	}
	if errors.Is(err, core.ErrUnreachable) {
		writeDetail(w, http.StatusBadRequest, msgUnreachable+cause.Error())
		return
	}
	writeDetail(w, http.StatusInternalServerError, msgInternal+cause.Error())
}

// sendArchive streams the archive and then discards it with its per-capture
// directory; the capture hands ownership of both to the caller.
func (s *Server) sendArchive(w http.ResponseWriter, result *core.Result) {
	log := s.log.WithFields(logrus.Fields{"capture_id": result.ID, "archive": result.ArchivePath})
	defer func() {
		if err := archive.Discard(result.ArchivePath); err != nil {
			log.WithField("error", err).Warn("removing served archive")
		}
	}()

	f, err := os.Open(result.ArchivePath)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, msgInternal+err.Error())
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filepath.Base(result.ArchivePath),
	}))
	h.Set("X-Capture-ID", result.ID)
	if fi, err := f.Stat(); err == nil {
		h.Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.WithField("error", err).Warn("streaming archive")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// requestLogger logs one line per request with logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"remote":     r.RemoteAddr,
				"elapsed":    time.Since(start).Round(time.Millisecond).String(),
			}).Info("request")
		})
	}
}
