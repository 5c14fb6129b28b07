// Package grpcserver runs the operational gRPC endpoint: standard health
// checking driven by store reachability, plus reflection in dev mode.
package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// UserService is the health service name reported for the user API.
const UserService = "passlocker.v1.UserResource"

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewOps builds a gRPC server with health checking, logging and panic recovery.
// Every service starts NOT_SERVING until WatchStore or SetServing flips it.
func NewOps(log *zap.Logger, dev bool, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		LoggingUnary(log),
	))
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(UserService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	if dev {
		reflection.Register(s)
	}
	return s, hs
}

// SetServing updates the overall and user API status together.
func SetServing(hs *health.Server, ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus("", st)
	hs.SetServingStatus(UserService, st)
}

// WatchStore pings the store every interval and mirrors the result into hs
// until ctx is done. Status changes are logged; steady state is not.
func WatchStore(ctx context.Context, hs *health.Server, p Pinger, interval time.Duration, log *zap.Logger) {
	var last *bool
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		err := p.Ping(pctx)
		cancel()

		ok := err == nil
		if last == nil || *last != ok {
			if ok {
				log.Info("store reachable")
			} else {
				log.Warn("store unreachable", zap.Error(err))
			}
		}
		last = &ok
		SetServing(hs, ok)
	}

	probe()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			probe()
		}
	}
}
