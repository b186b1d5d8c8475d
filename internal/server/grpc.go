package server

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// GRPCService serves a grpc.Server on a TCP address as a lifecycle Service.
type GRPCService struct {
	addr   string
	srv    *grpc.Server
	drain  time.Duration
	logger *zap.Logger

	mu  sync.Mutex
	lis net.Listener
}

// NewGRPCService returns a Service that listens on addr and serves srv.
// Stop drains in-flight RPCs for up to drain before forcing close.
//
// Precondition: srv and logger must be non-nil.
func NewGRPCService(addr string, srv *grpc.Server, drain time.Duration, logger *zap.Logger) *GRPCService {
	return &GRPCService{addr: addr, srv: srv, drain: drain, logger: logger}
}

// Start listens and blocks serving until Stop.
func (g *GRPCService) Start() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.addr, err)
	}
	g.mu.Lock()
	g.lis = lis
	g.mu.Unlock()
	g.logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	if err := g.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("serving grpc: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start has begun listening, or the
// configured address before that.
func (g *GRPCService) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lis != nil {
		return g.lis.Addr().String()
	}
	return g.addr
}

// Stop gracefully stops the server, forcing it after the drain timeout.
func (g *GRPCService) Stop() {
	done := make(chan struct{})
	go func() {
		g.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(g.drain):
		g.logger.Warn("grpc drain timed out, forcing stop", zap.Duration("drain", g.drain))
		g.srv.Stop()
		<-done
	}
}
