// Package nntp implements the wire-level ingestion subset of NNTP:
// CAPABILITIES/AUTHINFO boundary commands plus IHAVE/POST article
// transfer, dispatching validated articles into the ingestion queue.
// The listener/connection shape is grounded on the donor's
// internal/nntp/nntp-server.go and nntp-server-cliconns.go.
package nntp

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/filters"
	"github.com/go-while/nntp-ingestd/internal/queue"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// submitTimeout bounds how long a connection blocks offering an
// article to a saturated queue before failing the command with a
// transient response, per spec.md §4.3's caller-imposed-timeout
// backpressure contract.
const submitTimeout = 5 * time.Second

// Server is the NNTP ingestion listener: it accepts connections and
// wires each one to storage, auth, config and the validation chain and
// ingestion queue.
type Server struct {
	storage storage.Storage
	auth    auth.Auth
	config  *config.Store
	filters filters.Chain
	queue   *queue.ArticleQueue

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	closing  bool
}

// NewServer builds a Server. auth may be nil to run without
// authentication gating (POST accepts any client).
func NewServer(st storage.Storage, a auth.Auth, cfg *config.Store, chain filters.Chain, q *queue.ArticleQueue) *Server {
	return &Server{storage: st, auth: a, config: cfg, filters: chain, queue: q}
}

// ListenAndServe binds addr and accepts connections until Stop is
// called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("nntp: listen: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	log.Printf("nntp: listening on %s", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return nil
			}
			log.Printf("nntp: accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			newConn(conn, s).serve()
		}()
	}
}

// Stop closes the listener and waits for every open connection to end.
// It does not close open connections: each one runs until its client
// quits, a read or write fails, or its idle deadline passes.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closing = true
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
	s.wg.Wait()
}
