// Package server exposes the reorder engine over HTTP so that a browser can
// act as the list UI.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/handiism/mp3order/internal/config"
	"github.com/handiism/mp3order/internal/engine"
	"github.com/handiism/mp3order/internal/model"
)

// Server owns one Engine. Requests that touch the engine are serialised,
// since an Engine is not safe for concurrent use.
type Server struct {
	settings *config.Settings
	engine   *engine.Engine
	hub      *Hub
	upgrader websocket.Upgrader

	mu     sync.Mutex
	folder *model.Folder
}

// New creates a Server for settings.WorkDir. Engine events are logged and
// broadcast to websocket clients.
func New(settings *config.Settings, opts ...engine.Option) *Server {
	s := &Server{
		settings: settings,
		hub:      NewHub(),
		upgrader: newUpgrader(settings.AllowedOrigins),
	}
	s.engine = engine.New(settings, s.onProgress, opts...)
	return s
}

func (s *Server) onProgress(ev engine.ProgressEvent) {
	if ev.Level != engine.LevelVerbose {
		log.Printf("[%s] %s", ev.Level, ev.Message)
	}
	s.hub.Broadcast(ev)
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(s.settings.AllowedOrigins))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/tracks", s.listTracks)
		api.POST("/reload", s.reload)
		api.PUT("/order", s.applyOrder)
		api.PATCH("/tracks/:name", s.renameTrack)
		api.GET("/tracks/:name/metadata", s.trackMetadata)
		api.GET("/tracks/:name/stream", s.streamTrack)
		api.POST("/mirror", s.syncMirror)
		api.POST("/player/play", s.play)
		api.POST("/player/stop", s.stop)
		api.GET("/ws", s.events)
	}

	return r
}

// Run syncs the mirror, as opening a medium does, then serves HTTP until
// ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.engine.Sync(ctx); err != nil {
		log.Printf("startup mirror sync failed: %v", err)
	}

	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("mp3order server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.engine.Stop()
		return srv.Shutdown(shutdownCtx)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type"}
	return cors.New(cfg)
}

// loadedFolder returns the cached folder, listing the directory on first
// use. Callers hold s.mu.
func (s *Server) loadedFolder() (*model.Folder, error) {
	if s.folder != nil {
		return s.folder, nil
	}
	return s.reloadLocked()
}

func (s *Server) reloadLocked() (*model.Folder, error) {
	folder, err := s.engine.Load()
	if err != nil {
		return nil, err
	}
	s.folder = folder
	return folder, nil
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNameCollision):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEmptyName), errors.Is(err, engine.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
