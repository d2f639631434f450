// Package server accepts TLS connections and hands each handshake the
// engine selected for its SNI name.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/netutil"

	"tlsvhost/internal/config"
	"tlsvhost/internal/engine"
	"tlsvhost/internal/logger"
	"tlsvhost/internal/registry"
	"tlsvhost/internal/tlsctx"
)

// Server terminates TLS for every configured host on one listener.
type Server struct {
	Config   config.ServerConfig
	Registry *registry.Registry
	Factory  *engine.Factory
	http     *http.Server
}

func New(cfg config.ServerConfig, r *registry.Registry, f *engine.Factory) *Server {
	s := &Server{Config: cfg, Registry: r, Factory: f}
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StdLog("http"),
	}
	return s
}

// TLSConfig returns the listener configuration. It carries no identity of
// its own; every handshake gets the engine for its server name.
func (s *Server) TLSConfig() *tls.Config {
	return &tls.Config{GetConfigForClient: s.configForClient}
}

func (s *Server) configForClient(hello *tls.ClientHelloInfo) (*tls.Config, error) {
	name := NormalizeServerName(hello.ServerName)
	e, err := s.Factory.NewEngine(name)
	if err != nil {
		if errors.Is(err, registry.ErrNoDefaultContext) || errors.Is(err, registry.ErrNotInitialized) {
			logger.Error("TLS registry fault while serving %q: %v", name, err)
		} else {
			logger.Warn("Cannot create TLS engine for %q: %v", name, err)
		}
		return nil, err
	}
	logger.Debug("Handshake from %s: SNI %q -> host %s", remoteAddr(hello), name, e.Pattern())
	return e.Config(), nil
}

// NormalizeServerName lower-cases name and drops a trailing dot.
func NormalizeServerName(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".")
}

func remoteAddr(hello *tls.ClientHelloInfo) string {
	if hello.Conn == nil {
		return "unknown"
	}
	return hello.Conn.RemoteAddr().String()
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.Config.Address, fmt.Sprint(s.Config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.Config.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.Config.MaxConns)
	}
	logger.Info("Serving TLS on %s", ln.Addr())
	return s.http.Serve(tls.NewListener(ln, s.TLSConfig()))
}

// Shutdown stops accepting connections, waits for active ones, then tears
// the registry down.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.Registry.Shutdown()
	return err
}

// ServeHTTP reports which host served the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := r.TLS
	if state == nil {
		http.Error(w, "TLS required", http.StatusBadRequest)
		return
	}

	pattern := "unknown"
	if entry, err := s.Registry.Lookup(NormalizeServerName(state.ServerName)); err == nil {
		pattern = entry.Pattern()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "sni: %s\n", state.ServerName)
	fmt.Fprintf(w, "host: %s\n", pattern)
	fmt.Fprintf(w, "protocol: %s\n", tlsctx.ProtocolName(state.Version))
	fmt.Fprintf(w, "cipher: %s\n", tls.CipherSuiteName(state.CipherSuite))
	if len(state.PeerCertificates) > 0 {
		fmt.Fprintf(w, "client: %s\n", state.PeerCertificates[0].Subject.CommonName)
	}
}
