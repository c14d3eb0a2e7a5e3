// Package server implements the local REST surface: thin CRUD handlers
// over the Store plus the manual /sync endpoint, the entry point that
// marks records pending.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coursesync/syncengine/internal/metrics"
	"github.com/coursesync/syncengine/internal/middleware"
	"github.com/coursesync/syncengine/internal/store"
	"github.com/coursesync/syncengine/internal/sync"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is the thin HTTP Surface. It holds shared, concurrent-safe
// references to the Store and Reconciler; the Scheduler runs independently
// against the same Store.
type Server struct {
	store      *store.Store
	reconciler *sync.Reconciler
	metrics    *metrics.Manager
	httpServer *http.Server
	log        *logrus.Entry
}

// New builds a Server bound to listenAddr, a Store, a Reconciler, and a
// metrics Manager.
func New(listenAddr string, s *store.Store, reconciler *sync.Reconciler, m *metrics.Manager) *Server {
	srv := &Server{
		store:      s,
		reconciler: reconciler,
		metrics:    m,
		log:        logrus.WithField("component", "http-surface"),
	}

	router := srv.routes()
	srv.httpServer = &http.Server{
		Addr:         listenAddr,
		Handler:      handlers.RecoveryHandler()(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return srv
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	// A nil *metrics.Manager must reach the middleware as a nil interface,
	// not as a non-nil interface holding a nil pointer.
	var recorder middleware.MetricsRecorder
	if s.metrics != nil {
		recorder = s.metrics
	}
	r.Use(middleware.Logging(recorder))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/courses", s.handleListCourses).Methods(http.MethodGet)
	r.HandleFunc("/courses", s.handleCreateCourse).Methods(http.MethodPost)
	r.HandleFunc("/todos", s.handleListTodos).Methods(http.MethodGet)
	r.HandleFunc("/todos", s.handleCreateTodo).Methods(http.MethodPost)
	r.HandleFunc("/todos/{id}", s.handleUpdateTodo).Methods(http.MethodPatch)
	r.HandleFunc("/todos/{id}/archive", s.handleArchiveTodo).Methods(http.MethodPatch)
	r.HandleFunc("/todos/{id}/unarchive", s.handleUnarchiveTodo).Methods(http.MethodPatch)
	r.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return r
}

// Start begins serving and blocks until the listener stops or ctx is
// cancelled, at which point it shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("http surface listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
