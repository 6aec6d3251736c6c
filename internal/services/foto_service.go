package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/storage"
)

// FotoQueue é a fila Redis consumida pelo worker de miniaturas
const FotoQueue = "fotos:process:queue"

const (
	DefaultMaxFotoSize = 10 << 20 // 10MB
	originalSuffix     = "_original"
)

var DefaultFotoTypes = []string{".jpg", ".jpeg", ".png", ".webp"}

// Vitrine é o acesso aos veículos em loja usado pelo serviço de fotos.
// *hooks.VitrineHooks implementa esta interface.
type Vitrine interface {
	Get(ctx context.Context, id uuid.UUID) (*models.VeiculoLoja, error)
	Update(ctx context.Context, id uuid.UUID, in models.UpdateVeiculoLojaRequest) (*models.VeiculoLoja, error)
}

// Enqueuer publica jobs na fila (cache.Client)
type Enqueuer interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
}

// FotoJob é o job de geração de miniaturas de uma foto
type FotoJob struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	VeiculoLojaID uuid.UUID `json:"veiculo_loja_id"`
	Path          string    `json:"path"`
}

// Foto é um arquivo da pasta de fotos
type Foto struct {
	Nome    string `json:"nome"`
	Path    string `json:"path"`
	URL     string `json:"url"`
	Variant string `json:"variant"`
}

type FotoService struct {
	storage      storage.StorageDriver
	queue        Enqueuer
	MaxFileSize  int64
	AllowedTypes []string
	log          *zap.Logger
}

// NewFotoService cria o serviço; queue nil desliga a geração de miniaturas
func NewFotoService(driver storage.StorageDriver, queue Enqueuer) *FotoService {
	return &FotoService{
		storage:      driver,
		queue:        queue,
		MaxFileSize:  DefaultMaxFotoSize,
		AllowedTypes: DefaultFotoTypes,
		log:          logger.Named("fotos"),
	}
}

// PastaFotos é a pasta das fotos de um veículo em uma loja
func PastaFotos(tenantID, veiculoID, lojaID uuid.UUID) string {
	return fmt.Sprintf("%s/veiculos/%s/%s", tenantID, veiculoID, lojaID)
}

// ValidateFile verifica tamanho e extensão antes do upload
func (s *FotoService) ValidateFile(file *multipart.FileHeader) error {
	if s.MaxFileSize > 0 && file.Size > s.MaxFileSize {
		return errors.NotValidf("arquivo %s maior que %d bytes", file.Filename, s.MaxFileSize)
	}
	ext := strings.ToLower(path.Ext(file.Filename))
	for _, allowed := range s.AllowedTypes {
		if ext == allowed {
			return nil
		}
	}
	return errors.NotValidf("tipo de arquivo %q", ext)
}

// Upload grava a foto na pasta do veículo em loja, preenche pasta_fotos na
// primeira foto e agenda as miniaturas.
func (s *FotoService) Upload(ctx context.Context, vitrine Vitrine, veiculoLojaID uuid.UUID, file *multipart.FileHeader) (*Foto, error) {
	if err := s.ValidateFile(file); err != nil {
		return nil, err
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()
	return s.Save(ctx, vitrine, veiculoLojaID, file.Filename, src)
}

// Save é o Upload a partir de um reader
func (s *FotoService) Save(ctx context.Context, vitrine Vitrine, veiculoLojaID uuid.UUID, filename string, src io.Reader) (*Foto, error) {
	vl, err := s.veiculoLoja(ctx, vitrine, veiculoLojaID)
	if err != nil {
		return nil, err
	}
	pasta := PastaFotos(vl.TenantID, vl.VeiculoID, vl.LojaID)

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	nome := uuid.New().String() + originalSuffix + ext
	storagePath, publicURL, err := s.storage.Upload(ctx, src, pasta+"/"+nome)
	if err != nil {
		return nil, fmt.Errorf("failed to upload foto: %w", err)
	}

	if vl.PastaFotos == nil || *vl.PastaFotos != pasta {
		if _, err := vitrine.Update(ctx, vl.ID, models.UpdateVeiculoLojaRequest{PastaFotos: &pasta}); err != nil {
			// sem compensação: o arquivo fica na pasta e será listado no próximo acesso
			return nil, fmt.Errorf("failed to set pasta_fotos: %w", err)
		}
	}

	s.enqueue(ctx, FotoJob{TenantID: vl.TenantID, VeiculoLojaID: vl.ID, Path: storagePath})
	return &Foto{Nome: nome, Path: storagePath, URL: publicURL, Variant: "original"}, nil
}

func (s *FotoService) enqueue(ctx context.Context, job FotoJob) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(job)
	if err == nil {
		err = s.queue.Enqueue(ctx, FotoQueue, payload)
	}
	if err != nil {
		// a foto original já está salva; só as miniaturas ficam faltando
		s.log.Warn("failed to enqueue foto job", zap.String("path", job.Path), zap.Error(err))
	}
}

// List lista as fotos do veículo em loja, originais e miniaturas
func (s *FotoService) List(ctx context.Context, vitrine Vitrine, veiculoLojaID uuid.UUID) ([]Foto, error) {
	vl, err := s.veiculoLoja(ctx, vitrine, veiculoLojaID)
	if err != nil {
		return nil, err
	}
	if vl.PastaFotos == nil {
		return []Foto{}, nil
	}
	paths, err := s.storage.List(ctx, *vl.PastaFotos)
	if err != nil {
		return nil, err
	}
	fotos := make([]Foto, 0, len(paths))
	for _, p := range paths {
		nome := path.Base(p)
		fotos = append(fotos, Foto{Nome: nome, Path: p, URL: s.storage.GetPublicURL(p), Variant: variantOf(nome)})
	}
	return fotos, nil
}

// Remove apaga a foto original e as miniaturas derivadas dela
func (s *FotoService) Remove(ctx context.Context, vitrine Vitrine, veiculoLojaID uuid.UUID, nome string) error {
	if nome == "" || strings.ContainsAny(nome, "/\\") {
		return errors.NotValidf("nome de foto %q", nome)
	}
	vl, err := s.veiculoLoja(ctx, vitrine, veiculoLojaID)
	if err != nil {
		return err
	}
	if vl.PastaFotos == nil {
		return errors.NotFoundf("foto %s", nome)
	}
	paths, err := s.storage.List(ctx, *vl.PastaFotos)
	if err != nil {
		return err
	}

	base := baseName(nome)
	removed := 0
	for _, p := range paths {
		if baseName(path.Base(p)) != base {
			continue
		}
		if err := s.storage.Delete(ctx, p); err != nil {
			return fmt.Errorf("failed to delete foto: %w", err)
		}
		removed++
	}
	if removed == 0 {
		return errors.NotFoundf("foto %s", nome)
	}
	return nil
}

func (s *FotoService) veiculoLoja(ctx context.Context, vitrine Vitrine, id uuid.UUID) (*models.VeiculoLoja, error) {
	vl, err := vitrine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if vl == nil {
		return nil, errors.NotFoundf("veículo em loja %s", id)
	}
	return vl, nil
}

// {id}_{variante}.{ext} -> {id}
func baseName(nome string) string {
	nome = strings.TrimSuffix(nome, path.Ext(nome))
	if i := strings.LastIndex(nome, "_"); i > 0 {
		return nome[:i]
	}
	return nome
}

func variantOf(nome string) string {
	nome = strings.TrimSuffix(nome, path.Ext(nome))
	if i := strings.LastIndex(nome, "_"); i > 0 {
		return nome[i+1:]
	}
	return "original"
}
