// Command nntp-ingestd runs the NNTP article ingestion core: it
// accepts IHAVE/POST connections, validates articles against a
// pluggable filter chain, and persists them through a bounded queue
// drained by a worker pool.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/filters"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/nntp"
	"github.com/go-while/nntp-ingestd/internal/queue"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

func main() {
	configPath := flag.String("config", "nntp-ingestd.toml", "path to TOML configuration")
	dbPath := flag.String("db", "nntp-ingestd.db", "path to the SQLite database file")
	queueCapacity := flag.Int("queue-capacity", 1024, "ingestion queue capacity")
	workers := flag.Int("workers", 4, "number of ingestion worker goroutines")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("nntp-ingestd: %v", err)
	}
	cfgStore := config.NewStore(cfg)

	st, err := storage.OpenSQLiteStorage(*dbPath)
	if err != nil {
		log.Fatalf("nntp-ingestd: storage: %v", err)
	}
	defer st.Close()

	authMgr := auth.NewManager()

	chain := filters.Chain{
		filters.SizeFilter{},
		filters.GroupExistenceFilter{},
		filters.ModerationFilter{},
		filters.CancelLockFilter{},
	}

	q := queue.NewArticleQueue(*queueCapacity)
	pool := queue.NewPool(q, *workers, func(_ context.Context, a models.QueuedArticle) error {
		return st.StoreArticle(&a.Message)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := pool.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("nntp-ingestd: worker pool: %v", err)
		}
	}()

	server := nntp.NewServer(st, authMgr, cfgStore, chain, q)

	go func() {
		if err := server.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("nntp-ingestd: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("nntp-ingestd: shutting down")
	server.Stop()
	cancel()
}

func loadConfig(path string) (config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Config{Addr: ":1190"}, nil
		}
		return config.Config{}, err
	}
	return config.Parse(data)
}
