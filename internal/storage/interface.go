package storage

import (
	"context"
	"io"
	"strings"

	"github.com/juju/errors"
)

// StorageDriver é o armazenamento de arquivos do backend (fotos de veículos)
type StorageDriver interface {
	// Upload grava o arquivo e devolve o caminho e a URL pública
	Upload(ctx context.Context, file io.Reader, path string) (storagePath string, publicURL string, err error)

	// Delete remove o arquivo; remover algo inexistente não é erro
	Delete(ctx context.Context, path string) error

	// GetPublicURL monta a URL pública. Local devolve /uploads/{path},
	// S3/R2 devolvem a URL completa.
	GetPublicURL(path string) string

	Exists(ctx context.Context, path string) (bool, error)

	// GetReader abre o arquivo para leitura (download, geração de miniaturas)
	GetReader(ctx context.Context, path string) (io.ReadCloser, error)

	// List devolve os caminhos sob o prefixo (uma "pasta"), em ordem
	List(ctx context.Context, prefix string) ([]string, error)
}

// CleanPath normaliza um caminho relativo e rejeita saídas da raiz
func CleanPath(path string) (string, error) {
	path = strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return "", errors.NotValidf("caminho %q", path)
		}
	}
	return path, nil
}

// contentType devolve o MIME pelo sufixo do arquivo
func contentType(path string) string {
	switch p := strings.ToLower(path); {
	case strings.HasSuffix(p, ".jpg"), strings.HasSuffix(p, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(p, ".png"):
		return "image/png"
	case strings.HasSuffix(p, ".webp"):
		return "image/webp"
	case strings.HasSuffix(p, ".gif"):
		return "image/gif"
	}
	return "application/octet-stream"
}
