package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/export"
	"github.com/ourlineintime/lineintime/logging"
	"github.com/ourlineintime/lineintime/media"
	"github.com/ourlineintime/lineintime/server"
	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/state"
	"github.com/ourlineintime/lineintime/storage/db"
	"github.com/ourlineintime/lineintime/storage/mediadb"
	"github.com/ourlineintime/lineintime/storage/memorydb"
	"github.com/ourlineintime/lineintime/storage/object/s3"
)

func main() {
	configFile := flag.String("config", "config.yml", "Path to the configuration file (i.e., /etc/lineintime.yaml)")
	flag.Parse()

	if len(strings.Trim(*configFile, " ")) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	logger.Info("running database migrations...")
	if err := db.Migrate(cfg.Database.DSN); err != nil {
		logger.Fatalw("failed to migrate database", "error", err)
	}

	conn, err := db.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer conn.Close()

	objects, err := s3.NewStore(ctx, &cfg.Storage)
	if err != nil {
		logger.Fatalw("failed to connect to object storage", "error", err)
	}

	reg := prometheus.NewRegistry()

	mediaStore := mediadb.NewStore(conn)
	memoryStore := memorydb.NewStore(conn)

	presignTTL := time.Duration(cfg.Storage.PresignTTLSeconds) * time.Second
	pipeline := media.NewPipeline(objects, mediaStore, logger, media.NewMetrics(reg), cfg.Media, presignTTL)

	st := &state.State{
		Cfg:      cfg,
		Log:      logger,
		Memories: memoryStore,
		Media:    mediaStore,
		Objects:  objects,
		Pipeline: pipeline,
		Exporter: export.New(conn, objects, logger, cfg.Database.DSN, cfg.Export),
	}

	verifier := auth.NewRemoteVerifier(cfg.Auth.VerifyUrl)
	handler := server.Routes(st, verifier, reg)

	if err := server.Start(st, handler); err != nil {
		logger.Fatalw("http server stopped", "error", err)
	}
}
