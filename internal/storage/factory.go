package storage

import (
	"fmt"

	"github.com/gestao-concessionaria-api/internal/config"
)

// NewStorageDriver creates a storage driver based on configuration
func NewStorageDriver(cfg *config.StorageConfig) (StorageDriver, error) {
	switch cfg.Driver {
	case "local", "":
		uploadsPath := cfg.UploadsPath
		if uploadsPath == "" {
			uploadsPath = "./uploads"
		}
		return NewLocalStorage(uploadsPath), nil

	case "s3":
		return NewS3Storage(cfg)

	case "r2":
		return NewR2Storage(cfg)

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
