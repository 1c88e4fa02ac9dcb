// Package health exposes daemon readiness over the standard gRPC health
// protocol so doctor, status, and external supervisors can probe it.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service names reported by the daemon. The empty name is overall liveness.
const (
	ServiceDaemon = ""
	ServiceBridge = "dictaform.bridge"
	ServiceEngine = "dictaform.recognition"
)

// Server serves grpc.health.v1.Health.
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
	logger *slog.Logger
}

// NewServer registers the health service with every known component
// initially not serving except the daemon itself.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		grpc:   grpc.NewServer(),
		health: grpchealth.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceDaemon, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceBridge, healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceEngine, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetServing updates one component's status.
func (s *Server) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Serve accepts probes on lis until ctx is canceled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(lis)
	}()
	s.logger.Info("health server listening", "addr", lis.Addr().String())

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
