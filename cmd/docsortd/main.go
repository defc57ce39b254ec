package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/adapters/llm"
	miniostore "docsort/internal/adapters/minio"
	"docsort/internal/adapters/sqlite"
	"docsort/internal/application/commands"
	"docsort/internal/config"
	"docsort/internal/crawler"
	"docsort/internal/ports"
	"docsort/internal/rollback"
	"docsort/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := sqlite.Open(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	index := sqlite.NewHashIndex(store)
	review := sqlite.NewReviewStore(store)
	documents := sqlite.NewDocumentStore(store)
	batches := sqlite.NewBatchStore(store)
	snapshots := sqlite.NewSnapshotStore(store)
	feedback := filesystem.NewFeedbackLog(cfg.FeedbackLogPath())

	var objects ports.ObjectStore
	if cfg.S3.Enabled {
		client, err := miniostore.New(cfg.S3)
		if err != nil {
			log.Fatalf("connect object storage: %v", err)
		}
		objects = client
	}

	var backups *filesystem.BackupManager
	if cfg.Backup.Enabled {
		backups = filesystem.NewBackupManager(cfg.Backup.Dir, cfg.Backup.RetentionDays)
	}

	classifier := llm.NewClassifier(cfg.Classifier)
	rollbacks := rollback.New(snapshots, documents, batches, objects, cfg.Snapshots.RetentionDays)
	cr := crawler.New(cfg, index)
	orch := commands.NewOrchestrator(cfg, documents, index, review, classifier, rollbacks, backups, objects)

	if removed, err := rollbacks.Cleanup(); err != nil {
		log.Printf("snapshot cleanup: %v", err)
	} else if removed > 0 {
		log.Printf("snapshot cleanup: removed %d expired snapshots", removed)
	}
	if backups != nil {
		if removed, err := backups.Cleanup(); err != nil {
			log.Printf("backup cleanup: %v", err)
		} else if removed > 0 {
			log.Printf("backup cleanup: removed %d expired backups", removed)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, cr, review, documents, index, batches, feedback, rollbacks, orch)
	log.Printf("listening on %s", cfg.Listen)
	if err := srv.Start(ctx, cfg.Listen); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
