// Package probe serves the standard gRPC health checking protocol so
// orchestrators with gRPC probes can watch the service alongside the HTTP
// health endpoints.
package probe

import (
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/SyedDaiam9101/algosvc/internal/middleware"
)

// Server is a gRPC server exposing grpc.health.v1.Health for one service name.
type Server struct {
	service string
	grpc    *grpc.Server
	health  *health.Server
}

// New creates a probe server reporting on service. With tracing enabled the
// otelgrpc interceptor is added to the chain.
func New(service string, tracing bool) *Server {
	interceptors := []grpc.UnaryServerInterceptor{
		middleware.UnaryRequestIDInterceptor(),
		middleware.UnaryMetricsInterceptor(),
	}
	if tracing {
		interceptors = append(interceptors, otelgrpc.UnaryServerInterceptor())
	}

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{service: service, grpc: gs, health: hs}
	s.SetServing(false)
	return s
}

// SetServing flips both the named service and the overall ("") status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(s.service, st)
	s.health.SetServingStatus("", st)
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
