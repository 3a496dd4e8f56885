package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"animalzone/site/internal/config"
	"animalzone/site/internal/relay"
	"animalzone/site/internal/storage"
)

// openMedium connects the configured storage backend. The returned close
// function is never nil.
func openMedium(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Medium, func(), error) {
	noop := func() {}
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; collections are lost on restart")
		return storage.NewMemory(), noop, nil

	case config.StorageRedis:
		medium, err := storage.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("redis connection failed: %w", err)
		}
		return medium, func() { _ = medium.Close() }, nil

	case config.StoragePostgres:
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("database connection failed: %w", err)
		}
		applied, err := storage.ApplyMigrations(ctx, db, cfg.MigrationsDir)
		if err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("migrations failed: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", zap.Strings("versions", applied))
		}
		return storage.NewPostgres(db), func() { _ = db.Close() }, nil

	case config.StorageS3:
		medium, err := storage.NewObject(ctx, storage.ObjectConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("s3 connection failed: %w", err)
		}
		return medium, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}

// newRelay prefers the form endpoint, then SMTP, then nothing.
func newRelay(cfg config.Config) relay.Relay {
	if cfg.FormEndpoint != "" {
		return relay.NewFormRelay(cfg.FormEndpoint, cfg.RelayTimeout)
	}
	smtpRelay := relay.NewSMTPRelay(relay.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: "Animal Activity Zone",
		To:       cfg.SupportEmail,
	})
	if smtpRelay.IsConfigured() {
		return smtpRelay
	}
	return relay.Disabled{}
}
