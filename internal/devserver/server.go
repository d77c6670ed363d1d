package devserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/campus-portal/internal/devserver/biz"
	"github.com/kart-io/campus-portal/internal/devserver/handler"
	"github.com/kart-io/campus-portal/internal/devserver/middleware"
	"github.com/kart-io/campus-portal/internal/devserver/router"
	"github.com/kart-io/campus-portal/internal/devserver/store"
	"github.com/kart-io/campus-portal/pkg/auth/jwt"
	"github.com/kart-io/campus-portal/pkg/component/database"
	"github.com/kart-io/campus-portal/pkg/component/storage"
	"github.com/kart-io/campus-portal/pkg/infra/tracing"
)

// Server is the assembled dev backend.
type Server struct {
	opts     *Options
	engine   *gin.Engine
	storage  *storage.Manager
	revoked  *jwt.MemoryStore
	provider *tracing.Provider
}

// NewServer opens the database, seeds the admin account and builds the
// router. opts must be completed and validated.
func NewServer(ctx context.Context, opts *Options) (*Server, error) {
	provider, err := tracing.NewProvider(opts.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	db, err := database.Open(ctx, opts.Database, opts.MySQL, opts.Postgres)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	mgr := storage.NewManager()
	if err := mgr.Register(db.Name(), db); err != nil {
		_ = db.Close()
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	logger.Infow("Database connected", "driver", opts.Database.Driver)

	s := &Server{opts: opts, storage: mgr, provider: provider, revoked: jwt.NewMemoryStore()}
	if err := s.init(ctx, store.NewFactory(db.DB())); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context, factory store.Factory) error {
	if s.opts.Database.AutoMigrate {
		if err := factory.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database migration completed")
	}

	tokens, err := jwt.New(s.opts.JWT, s.revoked)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt: %w", err)
	}
	authSvc := biz.NewAuthService(tokens, factory)
	if err := authSvc.Seed(ctx, s.opts.Admin.Email, s.opts.Admin.Password); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	dialects, err := handler.ParseDialects(s.opts.Dialects)
	if err != nil {
		return err
	}

	gin.SetMode(s.opts.HTTP.Mode)
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger("/healthz"),
		middleware.Recovery(),
	)
	router.Register(engine, s.opts.HTTP.APIPrefix, &router.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Records: handler.NewRecordHandler(biz.NewRecordService(factory), dialects),
		Storage: s.storage,
	})
	s.engine = engine
	return nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.HTTP.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.HTTP.ReadTimeout,
		WriteTimeout: s.opts.HTTP.WriteTimeout,
		IdleTimeout:  s.opts.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", srv.Addr, "prefix", s.opts.HTTP.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Close releases the database, the revocation list and the tracer.
func (s *Server) Close(ctx context.Context) error {
	return stderrors.Join(
		s.storage.CloseAll(),
		s.revoked.Close(),
		s.provider.Shutdown(ctx),
	)
}
