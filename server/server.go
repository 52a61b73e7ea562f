package server

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/typeir/rvm/rvm"
)

// Server is RVM's Connect server: the ResolveType and ResolveTypeOf RPCs
// exposed over HTTP/JSON (and, since Connect handlers speak both, gRPC
// binary too), mirroring the way the teacher's MaggieServer multiplexes
// several services onto one *http.ServeMux.
type Server struct {
	mux   *http.ServeMux
	cache *rvm.ResultCache
}

// New creates a Server. cfg.Cache.Enabled controls whether ResolveType and
// ResolveTypeOf calls also read and write the on-disk result cache; with it
// disabled, or with a nil cfg, the Server still keeps an in-memory cache, so
// a repeated request carrying the same cacheKey is answered from memory.
func New(cfg *rvm.Config) (*Server, error) {
	var cache *rvm.ResultCache
	if cfg != nil && cfg.Cache.Enabled {
		cache = rvm.NewResultCache(cfg.CachePath())
		if err := cache.LoadPersisted(); err != nil {
			return nil, fmt.Errorf("server: load result cache: %w", err)
		}
	} else {
		cache = rvm.NewResultCache("")
	}

	svc := NewResolveService(cache)
	resolveHandler := connect.NewUnaryHandler(resolveProcedure, svc.ResolveType)
	resolveOfHandler := connect.NewUnaryHandler(resolveOfProcedure, svc.ResolveTypeOf)

	mux := http.NewServeMux()
	mux.Handle(resolveProcedure, resolveHandler)
	mux.Handle(resolveOfProcedure, resolveOfHandler)

	return &Server{mux: mux, cache: cache}, nil
}

// ListenAndServe starts the HTTP server on addr, blocking until it exits.
func (s *Server) ListenAndServe(addr string) error {
	fmt.Printf("rvm server listening on %s\n", addr)
	fmt.Printf("  Connect (HTTP/JSON): http://%s%s\n", addr, resolveProcedure)
	fmt.Printf("  Connect (HTTP/JSON): http://%s%s\n", addr, resolveOfProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Handler exposes the underlying mux for hosts that want to embed RVM's
// endpoint inside a larger mux rather than calling ListenAndServe.
func (s *Server) Handler() http.Handler { return s.mux }
