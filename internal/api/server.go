package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/quiz"
)

const (
	maxUploadMemory        = 32 << 20
	defaultShutdownTimeout = 5 * time.Second
)

// QuizGenerator is the pipeline behind POST /api/quiz.
type QuizGenerator interface {
	Generate(ctx context.Context, req quiz.Request) quiz.Result
}

type Server struct {
	cfg    *config.Config
	gen    QuizGenerator
	router *gin.Engine
}

func NewServer(cfg *config.Config, gen QuizGenerator) *Server {
	router := gin.New()
	router.MaxMultipartMemory = maxUploadMemory
	router.Use(gin.Recovery(), RequestLogger())

	s := &Server{cfg: cfg, gen: gen, router: router}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/quiz", s.handleGenerateQuiz)
		api.GET("/files/:name", s.handleDownload)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
