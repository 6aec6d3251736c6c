package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"path"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gestao-concessionaria-api/internal/backend/memory"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/services"
	"github.com/gestao-concessionaria-api/internal/storage"
)

type scope struct {
	tenant uuid.UUID
	loja   uuid.UUID
}

func (s *scope) TenantID() (uuid.UUID, bool)       { return s.tenant, s.tenant != uuid.Nil }
func (s *scope) SelectedLojaID() (uuid.UUID, bool) { return s.loja, s.loja != uuid.Nil }

type env struct {
	scope *scope
	hooks *hooks.Set
	store *storage.LocalStorage
	redis *cache.Client
	mr    *miniredis.Miniredis
}

func newEnv(c *qt.C) *env {
	mr := miniredis.RunT(c.TB)
	client := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	c.Cleanup(func() { client.Close() })

	sc := &scope{tenant: uuid.New()}
	return &env{
		scope: sc,
		hooks: hooks.NewSet(memory.New(), querycache.New(querycache.Options{}), sc),
		store: storage.NewLocalStorage(c.TempDir()),
		redis: client,
		mr:    mr,
	}
}

func (e *env) veiculoNaLoja(c *qt.C) *models.VeiculoLoja {
	ctx := context.Background()
	loja, err := e.hooks.Lojas.Create(ctx, models.CreateLojaRequest{Nome: "Matriz"})
	c.Assert(err, qt.IsNil)
	v, err := e.hooks.Veiculos.Create(ctx, models.CreateVeiculoRequest{
		Placa:         "ABC1D23",
		Cor:           "Prata",
		ModeloID:      uuid.New(),
		AnoFabricacao: 2021,
		AnoModelo:     2022,
		EstadoVeiculo: models.EstadoVeiculoSeminovo,
	})
	c.Assert(err, qt.IsNil)
	vl, err := e.hooks.Vitrine.Create(ctx, models.CreateVeiculoLojaRequest{VeiculoID: v.ID, LojaID: loja.ID})
	c.Assert(err, qt.IsNil)
	return vl
}

func pngImage(c *qt.C, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, img), qt.IsNil)
	return buf.Bytes()
}

func TestValidateFile(t *testing.T) {
	svc := services.NewFotoService(storage.NewLocalStorage(t.TempDir()), nil)
	tests := []struct {
		name    string
		file    multipart.FileHeader
		wantErr bool
	}{
		{"jpeg", multipart.FileHeader{Filename: "frente.JPG", Size: 1024}, false},
		{"webp", multipart.FileHeader{Filename: "lateral.webp", Size: 1024}, false},
		{"pdf", multipart.FileHeader{Filename: "documento.pdf", Size: 1024}, true},
		{"grande demais", multipart.FileHeader{Filename: "frente.png", Size: services.DefaultMaxFotoSize + 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			err := svc.ValidateFile(&tt.file)
			if !tt.wantErr {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(errors.Is(err, errors.NotValid), qt.IsTrue)
		})
	}
}

func TestFotoLifecycle(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	e := newEnv(c)
	vl := e.veiculoNaLoja(c)
	svc := services.NewFotoService(e.store, e.redis)

	foto, err := svc.Save(ctx, e.hooks.Vitrine, vl.ID, "frente.png", bytes.NewReader(pngImage(c, 1200, 900)))
	c.Assert(err, qt.IsNil)
	pasta := services.PastaFotos(e.scope.tenant, vl.VeiculoID, vl.LojaID)
	c.Assert(path.Dir(foto.Path), qt.Equals, pasta)
	c.Assert(foto.URL, qt.Equals, "/uploads/"+foto.Path)
	c.Assert(foto.Variant, qt.Equals, "original")

	// pasta_fotos foi preenchida e o detalhe em cache reflete isso
	atual, err := e.hooks.Vitrine.Get(ctx, vl.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(atual.PastaFotos, qt.IsNotNil)
	c.Assert(*atual.PastaFotos, qt.Equals, pasta)

	payload, err := e.redis.Dequeue(ctx, services.FotoQueue, time.Second)
	c.Assert(err, qt.IsNil)
	var job services.FotoJob
	c.Assert(json.Unmarshal(payload, &job), qt.IsNil)
	c.Assert(job, qt.Equals, services.FotoJob{TenantID: e.scope.tenant, VeiculoLojaID: vl.ID, Path: foto.Path})

	variants, err := services.NewFotoProcessor(e.store).Process(ctx, job)
	c.Assert(err, qt.IsNil)
	c.Assert(variants, qt.HasLen, 3)

	r, err := e.store.GetReader(ctx, variants[0])
	c.Assert(err, qt.IsNil)
	medium, _, err := image.Decode(r)
	r.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(medium.Bounds().Dx(), qt.Equals, 800)
	c.Assert(medium.Bounds().Dy(), qt.Equals, 600)

	fotos, err := svc.List(ctx, e.hooks.Vitrine, vl.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(fotos, qt.HasLen, 4)
	got := map[string]bool{}
	for _, f := range fotos {
		got[f.Variant] = true
	}
	c.Assert(got, qt.DeepEquals, map[string]bool{"original": true, "medium": true, "small": true, "thumb": true})

	c.Assert(svc.Remove(ctx, e.hooks.Vitrine, vl.ID, foto.Nome), qt.IsNil)
	fotos, err = svc.List(ctx, e.hooks.Vitrine, vl.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(fotos, qt.HasLen, 0)

	err = svc.Remove(ctx, e.hooks.Vitrine, vl.ID, foto.Nome)
	c.Assert(errors.Is(err, errors.NotFound), qt.IsTrue)
}

func TestFotoRemoveRejectsPaths(t *testing.T) {
	c := qt.New(t)
	e := newEnv(c)
	vl := e.veiculoNaLoja(c)
	svc := services.NewFotoService(e.store, nil)

	for _, nome := range []string{"", "../outro/foto.jpg", "a/b.jpg"} {
		err := svc.Remove(context.Background(), e.hooks.Vitrine, vl.ID, nome)
		c.Assert(errors.Is(err, errors.NotValid), qt.IsTrue, qt.Commentf("nome %q", nome))
	}
}

func TestFotoListWithoutPasta(t *testing.T) {
	c := qt.New(t)
	e := newEnv(c)
	vl := e.veiculoNaLoja(c)
	svc := services.NewFotoService(e.store, nil)

	fotos, err := svc.List(context.Background(), e.hooks.Vitrine, vl.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(fotos, qt.HasLen, 0)

	_, err = svc.List(context.Background(), e.hooks.Vitrine, uuid.New())
	c.Assert(errors.Is(err, errors.NotFound), qt.IsTrue)
}

func TestFotoWorkerConsumesQueue(t *testing.T) {
	c := qt.New(t)
	e := newEnv(c)
	vl := e.veiculoNaLoja(c)
	svc := services.NewFotoService(e.store, e.redis)

	foto, err := svc.Save(context.Background(), e.hooks.Vitrine, vl.ID, "frente.png", bytes.NewReader(pngImage(c, 300, 200)))
	c.Assert(err, qt.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- services.NewFotoProcessor(e.store).Run(ctx, e.redis) }()

	thumb := path.Dir(foto.Path) + "/" + foto.Nome[:len(foto.Nome)-len("_original.png")] + "_thumb.png"
	deadline := time.Now().Add(5 * time.Second)
	for {
		ok, err := e.store.Exists(context.Background(), thumb)
		c.Assert(err, qt.IsNil)
		if ok {
			break
		}
		if time.Now().After(deadline) {
			c.Fatalf("miniatura %s não foi gerada", thumb)
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	c.Assert(<-done, qt.IsNil)
}

func TestDashboardResumo(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	e := newEnv(c)
	vl := e.veiculoNaLoja(c)

	vendido := models.EstadoVendaVendido
	_, err := e.hooks.Veiculos.Create(ctx, models.CreateVeiculoRequest{
		Placa:         "XYZ9A87",
		Cor:           "Preto",
		ModeloID:      uuid.New(),
		AnoFabricacao: 2019,
		AnoModelo:     2019,
		EstadoVeiculo: models.EstadoVeiculoUsado,
		EstadoVenda:   vendido,
	})
	c.Assert(err, qt.IsNil)

	dash := services.NewDashboardService(e.hooks, e.scope)
	r, err := dash.Resumo(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(r.TotalVeiculos, qt.Equals, 2)
	c.Assert(r.Estoque[models.EstadoVendaDisponivel], qt.Equals, 1)
	c.Assert(r.Estoque[models.EstadoVendaVendido], qt.Equals, 1)
	c.Assert(r.Lojas, qt.Equals, 1)
	c.Assert(r.LojaID, qt.IsNil)
	c.Assert(r.NaVitrine, qt.IsNil)

	e.scope.loja = vl.LojaID
	r, err = dash.Resumo(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(*r.LojaID, qt.Equals, vl.LojaID)
	c.Assert(*r.NaVitrine, qt.Equals, 1)

	e.scope.tenant = uuid.Nil
	_, err = dash.Resumo(ctx)
	c.Assert(errors.Is(err, hooks.ErrDisabled), qt.IsTrue)
}
