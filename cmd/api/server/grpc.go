package server

import (
	grpcadapter "user-service/internal/adapter/grpc"
	"user-service/pkg/logger"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(svc grpcadapter.UserService, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
		),
	)
	grpcadapter.RegisterUserServiceServer(grpcServer, svc)

	l.Info("gRPC service registered", zap.String("service", grpcadapter.ServiceName))

	return grpcServer
}
