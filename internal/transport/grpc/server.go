// Package grpc exposes the standard gRPC health service for shopfront.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported to health checks for the session service.
const ServiceName = "shopfront.v1.SessionService"

// Readiness reports whether the session service accepts new sessions.
type Readiness interface {
	Ready() bool
}

// Health publishes the readiness of the session service through grpc.health.v1.
type Health struct {
	server    *health.Server
	readiness Readiness
}

func NewHealth(readiness Readiness) *Health {
	h := &Health{server: health.NewServer(), readiness: readiness}
	h.Update()
	return h
}

// Register adds the health service to s.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Update copies the current readiness into the served status.
func (h *Health) Update() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if h.readiness.Ready() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Shutdown reports NOT_SERVING for every service and ignores later updates.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}
