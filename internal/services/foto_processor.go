package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/storage"
)

// FotoVariant é uma miniatura gerada a partir da foto original
type FotoVariant struct {
	Name   string
	Width  int
	Height int
}

var DefaultVariants = []FotoVariant{
	{Name: "medium", Width: 800, Height: 800},
	{Name: "small", Width: 400, Height: 400},
	{Name: "thumb", Width: 150, Height: 150},
}

// Dequeuer consome a fila de jobs (cache.Client)
type Dequeuer interface {
	Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

// FotoProcessor gera as miniaturas das fotos enviadas
type FotoProcessor struct {
	storage  storage.StorageDriver
	Variants []FotoVariant
	Quality  int
	log      *zap.Logger
}

func NewFotoProcessor(driver storage.StorageDriver) *FotoProcessor {
	return &FotoProcessor{
		storage:  driver,
		Variants: DefaultVariants,
		Quality:  85,
		log:      logger.Named("foto-worker"),
	}
}

// Process gera todas as variantes de uma foto original e devolve os caminhos
func (p *FotoProcessor) Process(ctx context.Context, job FotoJob) ([]string, error) {
	rc, err := p.storage.GetReader(ctx, job.Path)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	ext := strings.ToLower(path.Ext(job.Path))
	base := strings.TrimSuffix(strings.TrimSuffix(job.Path, path.Ext(job.Path)), originalSuffix)
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		// webp e afins viram jpeg
		format, ext = imaging.JPEG, ".jpg"
	}

	paths := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		out := fmt.Sprintf("%s_%s%s", base, v.Name, ext)
		if err := p.writeVariant(ctx, src, v, format, out); err != nil {
			return paths, fmt.Errorf("variant %s: %w", v.Name, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func (p *FotoProcessor) writeVariant(ctx context.Context, src image.Image, v FotoVariant, format imaging.Format, out string) error {
	// Fit mantém a proporção
	resized := imaging.Fit(src, v.Width, v.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(p.Quality)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	_, _, err := p.storage.Upload(ctx, &buf, out)
	return err
}

// Run consome a fila até o contexto ser cancelado
func (p *FotoProcessor) Run(ctx context.Context, queue Dequeuer) error {
	p.log.Info("foto worker started", zap.String("queue", FotoQueue))
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		payload, err := queue.Dequeue(ctx, FotoQueue, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Error("failed to dequeue", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if payload == nil {
			continue
		}
		p.handle(ctx, payload)
	}
}

func (p *FotoProcessor) handle(ctx context.Context, payload []byte) {
	var job FotoJob
	if err := json.Unmarshal(payload, &job); err != nil {
		p.log.Error("invalid foto job", zap.ByteString("payload", payload), zap.Error(err))
		return
	}
	log := p.log.With(zap.String("tenant_id", job.TenantID.String()), zap.String("path", job.Path))
	start := time.Now()
	paths, err := p.Process(ctx, job)
	if err != nil {
		log.Error("failed to process foto", zap.Error(err))
		return
	}
	log.Info("foto processed", zap.Strings("variants", paths), zap.Duration("took", time.Since(start)))
}
