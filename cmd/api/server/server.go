package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"user-service/cmd/api/di"
	ginrouter "user-service/internal/adapter/gin/router"
	"user-service/internal/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Gin    *http.Server
}

// New creates a new server instance. The gRPC server is only built when GRPC_ENABLED is set.
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	s := &Server{
		Config: cfg,
		Logger: l,
	}

	s.Gin = SetupGinServer(c.GinHandler, ginrouter.Options{
		ServiceName:   cfg.Logger.ServiceName,
		AllowedOrigin: cfg.CORS.AllowedOrigin,
		CORSMaxAge:    cfg.CORS.MaxAge(),
	}, s.httpAddress(), l)

	if cfg.App.GRPCEnabled {
		s.GRPC = SetupGRPC(c.GRPCService, l)
	}

	return s
}

// Run serves HTTP and gRPC until ctx is canceled or either server fails,
// then shuts both down within SHUTDOWN_TIMEOUT_SECONDS.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}

	ginLis, err := lc.Listen(ctx, "tcp", s.httpAddress())
	if err != nil {
		return fmt.Errorf("failed to start Gin server: %w", err)
	}

	var grpcLis net.Listener
	if s.GRPC != nil {
		grpcLis, err = lc.Listen(ctx, "tcp", s.grpcAddress())
		if err != nil {
			_ = ginLis.Close()
			return fmt.Errorf("failed to start gRPC server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", ginLis.Addr().String()))
		if err := s.Gin.Serve(ginLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})

	if s.GRPC != nil {
		g.Go(func() error {
			s.Logger.Info("gRPC server running", zap.String("address", grpcLis.Addr().String()))
			if err := s.GRPC.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

// shutdown stops both servers, forcing gRPC closed if draining outlives the timeout.
func (s *Server) shutdown() error {
	timeout := time.Duration(s.Config.App.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.Logger.Info("starting graceful shutdown",
		zap.Int("timeout_seconds", s.Config.App.ShutdownTimeoutSeconds),
	)

	var errs []error

	s.Logger.Info("shutting down Gin server...")
	if err := s.Gin.Shutdown(ctx); err != nil {
		s.Logger.Error("failed to shutdown Gin server", zap.Error(err))
		errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		done := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.Logger.Warn("gRPC graceful stop timed out, forcing stop")
			s.GRPC.Stop()
		}
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}

// httpAddress returns the HTTP server address
func (s *Server) httpAddress() string {
	return ":" + s.Config.App.HTTPPort
}
