package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RichGutz/Scraper.Neoauto/internal/config"
	"github.com/RichGutz/Scraper.Neoauto/internal/harvester"
	"github.com/RichGutz/Scraper.Neoauto/internal/storage"
)

// Server exposes run progress and health to the orchestrator. It is glue
// around the core, not part of it; the core only returns outcomes.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	harvester  *harvester.Harvester
	pgStore    *storage.PostgresStore
	redisStore *storage.RedisStore
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, h *harvester.Harvester, ps *storage.PostgresStore, rs *storage.RedisStore, l *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		harvester:  h,
		pgStore:    ps,
		redisStore: rs,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
