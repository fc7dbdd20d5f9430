package storage

import (
	"context"
	"fmt"

	"recruitflow-go/internal/config"
	"recruitflow-go/internal/logger"
)

// Storage aggregates every persistence dependency of the service.
type Storage struct {
	// Relational database, the system of record.
	MySQL *MySQL

	// Key/value store for ingestion leases and refresh tokens.
	Redis *Redis

	// Object storage for archived intake-form CVs.
	MinIO *MinIO
}

// NewStorage initializes all configured backends. MySQL and Redis are
// mandatory: authentication and ingestion cannot run without them. MinIO is
// optional; without it intake submissions skip the archival copy.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	storage := &Storage{}
	var err error

	storage.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("initializing MySQL: %w", err)
	}
	logger.Info().Str("host", cfg.MySQL.Host).Str("database", cfg.MySQL.Database).Msg("MySQL initialized")

	storage.Redis, err = NewRedisAdapter(&cfg.Redis)
	if err != nil {
		storage.MySQL.Close()
		return nil, fmt.Errorf("initializing Redis: %w", err)
	}
	logger.Info().Str("address", cfg.Redis.Address).Msg("Redis initialized")

	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(&cfg.MinIO)
		if err != nil {
			logger.Warn().Err(err).Msg("MinIO initialization failed, CV archival disabled")
			storage.MinIO = nil
		}
	} else {
		logger.Info().Msg("MinIO not configured, CV archival disabled")
	}

	return storage, nil
}

// Close releases every backend connection.
func (s *Storage) Close() error {
	var firstErr error
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
