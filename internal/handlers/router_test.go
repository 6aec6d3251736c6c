package handlers_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"github.com/juju/clock"

	"github.com/gestao-concessionaria-api/internal/auth"
	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/backend/memory"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/handlers"
	"github.com/gestao-concessionaria-api/internal/realtime"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/services"
	"github.com/gestao-concessionaria-api/internal/session"
	"github.com/gestao-concessionaria-api/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	c      *qt.C
	router *gin.Engine
}

func newAPI(c *qt.C) *api {
	client := backend.NewClient(memory.New(), realtime.NewHub())
	client.Auth = auth.NewService(client.Tables, "anon-key", time.Hour, clock.WallClock)
	reg := session.NewRegistry(session.Deps{
		Backend:   client,
		Persister: func(string) cache.Persister { return cache.NewMemoryPersister() },
	}, time.Hour)
	c.Cleanup(reg.Close)

	return &api{c: c, router: handlers.NewRouter(handlers.RouterDeps{
		ServiceName: "concessionaria-api-test",
		Registry:    reg,
		Tenants:     repository.NewTenantRepository(client.Tables),
		Fotos:       services.NewFotoService(storage.NewLocalStorage(c.TempDir()), nil),
	})}
}

type client struct {
	api    *api
	device string
	token  string
	path   string
}

func (a *api) client(device string) *client {
	return &client{api: a, device: device}
}

func (cl *client) send(req *http.Request) *httptest.ResponseRecorder {
	if cl.device != "" {
		req.Header.Set("X-Device-ID", cl.device)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	if cl.path != "" {
		req.Header.Set("X-Client-Path", cl.path)
	}
	w := httptest.NewRecorder()
	cl.api.router.ServeHTTP(w, req)
	return w
}

func (cl *client) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		cl.api.c.Assert(err, qt.IsNil)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return cl.send(req)
}

func decode[T any](c *qt.C, w *httptest.ResponseRecorder) T {
	var v T
	c.Assert(json.Unmarshal(w.Body.Bytes(), &v), qt.IsNil, qt.Commentf("body: %s", w.Body.String()))
	return v
}

// signUp cadastra e guarda o token no cliente
func (cl *client) signUp(email string) {
	c := cl.api.c
	w := cl.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{"email": email, "password": "segredo123"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	cl.token = decode[map[string]any](c, w)["access_token"].(string)
}

// owner é um usuário com tenant e uma loja "Matriz"
func (a *api) owner(device, email string) (*client, string) {
	cl := a.client(device)
	cl.signUp(email)
	w := cl.do(http.MethodPost, "/api/v1/tenants", map[string]string{"nome": "Auto " + email})
	a.c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	w = cl.do(http.MethodPost, "/api/v1/lojas", map[string]string{"nome": "Matriz"})
	a.c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	return cl, decode[map[string]any](a.c, w)["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	cl := a.client("")

	w := cl.do(http.MethodGet, "/health", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	w = cl.do(http.MethodGet, "/metrics", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Contains, "http_requests_total")
}

func TestSessionAndAuthRequired(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)

	w := a.client("").do(http.MethodGet, "/api/v1/auth/session", nil)
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)

	w = a.client("device-1").do(http.MethodGet, "/api/v1/auth/session", nil)
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)

	cl := a.client("device-1")
	cl.token = "nao-e-um-jwt"
	w = cl.do(http.MethodGet, "/api/v1/auth/session", nil)
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(decode[map[string]any](c, w)["code"], qt.Equals, "unauthorized")

	w = cl.do(http.MethodPost, "/api/v1/auth/signin", map[string]string{"email": "ninguem@x.com", "password": "errada"})
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
}

func TestOnboardingAndLojaSelection(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	cl := a.client("tablet")
	cl.signUp("dono@auto.com")

	w := cl.do(http.MethodGet, "/api/v1/tenants/atual", nil)
	c.Assert(w.Code, qt.Equals, http.StatusConflict)
	c.Assert(decode[map[string]any](c, w)["code"], qt.Equals, "tenant_required")

	w = cl.do(http.MethodPost, "/api/v1/tenants", map[string]string{"nome": "Auto Center"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)

	w = cl.do(http.MethodGet, "/api/v1/tenants/atual", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	atual := decode[map[string]any](c, w)
	c.Assert(atual["lojas"], qt.HasLen, 0)
	c.Assert(atual["loja_selecionada"], qt.IsNil)

	w = cl.do(http.MethodPost, "/api/v1/lojas", map[string]string{"nome": "Matriz"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	matriz := decode[map[string]any](c, w)["id"].(string)

	// primeira loja é selecionada automaticamente
	w = cl.do(http.MethodGet, "/api/v1/tenants/atual", nil)
	c.Assert(decode[map[string]any](c, w)["loja_selecionada"], qt.Equals, matriz)

	w = cl.do(http.MethodPost, "/api/v1/lojas", map[string]string{"nome": "Filial"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	filial := decode[map[string]any](c, w)["id"].(string)

	cl.path = "/dashboard/vitrine"
	w = cl.do(http.MethodPost, "/api/v1/lojas/selecao", map[string]string{"loja_id": filial})
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(decode[map[string]any](c, w), qt.DeepEquals, map[string]any{"loja_id": filial, "reload_required": true})

	// mesma loja não recarrega
	w = cl.do(http.MethodPost, "/api/v1/lojas/selecao", map[string]string{"loja_id": filial})
	c.Assert(decode[map[string]any](c, w)["reload_required"], qt.Equals, false)

	cl.path = "/dashboard/anuncios"
	w = cl.do(http.MethodPost, "/api/v1/lojas/selecao", map[string]string{"loja_id": matriz})
	c.Assert(decode[map[string]any](c, w)["reload_required"], qt.Equals, false)

	w = cl.do(http.MethodPost, "/api/v1/lojas/selecao", map[string]string{"loja_id": "8c1d7f0e-0000-4000-8000-000000000000"})
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
}

func TestVeiculosCRUD(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	cl, _ := a.owner("pc", "dono@auto.com")

	w := cl.do(http.MethodPost, "/api/v1/veiculos", map[string]any{"placa": "ABC1D23"})
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(decode[map[string]any](c, w)["code"], qt.Equals, "validation_error")

	w = cl.do(http.MethodPost, "/api/v1/veiculos", map[string]any{
		"placa":          "abc-1d23",
		"cor":            "Prata",
		"modelo_id":      "0f8fad5b-d9cb-469f-a165-70867728950e",
		"ano_fabricacao": 2021,
		"ano_modelo":     2022,
		"estado_veiculo": "seminovo",
	})
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	veiculo := decode[map[string]any](c, w)
	id := veiculo["id"].(string)

	w = cl.do(http.MethodGet, "/api/v1/veiculos?estado_venda=disponivel&ano_modelo=2022", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	page := decode[map[string]any](c, w)
	c.Assert(page["total"], qt.Equals, float64(1))

	w = cl.do(http.MethodGet, "/api/v1/veiculos?ano_modelo=abc", nil)
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
	w = cl.do(http.MethodGet, "/api/v1/veiculos?sort=senha", nil)
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)

	w = cl.do(http.MethodGet, "/api/v1/veiculos/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	w = cl.do(http.MethodGet, "/api/v1/veiculos/nao-e-uuid", nil)
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
	w = cl.do(http.MethodGet, "/api/v1/veiculos/0f8fad5b-d9cb-469f-a165-70867728950e", nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)

	w = cl.do(http.MethodGet, "/api/v1/veiculos/placa/ABC1D23", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)

	w = cl.do(http.MethodPut, "/api/v1/veiculos/"+id, map[string]any{"cor": "Preto"},
		"If-Match", "2000-01-01T00:00:00Z")
	c.Assert(w.Code, qt.Equals, http.StatusConflict)

	w = cl.do(http.MethodPut, "/api/v1/veiculos/"+id, map[string]any{"cor": "Preto"},
		"If-Match", veiculo["updated_at"].(string))
	c.Assert(w.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", w.Body.String()))
	c.Assert(decode[map[string]any](c, w)["cor"], qt.Equals, "Preto")

	w = cl.do(http.MethodDelete, "/api/v1/veiculos/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusNoContent)
	w = cl.do(http.MethodDelete, "/api/v1/veiculos/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	ana, _ := a.owner("ana", "ana@auto.com")
	bia, _ := a.owner("bia", "bia@auto.com")

	w := ana.do(http.MethodPost, "/api/v1/plataformas", map[string]string{"nome": "Webmotors"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	id := decode[map[string]any](c, w)["id"].(string)

	w = bia.do(http.MethodGet, "/api/v1/plataformas/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
	w = bia.do(http.MethodDelete, "/api/v1/plataformas/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)

	w = bia.do(http.MethodGet, "/api/v1/plataformas", nil)
	c.Assert(decode[map[string]any](c, w)["total"], qt.Equals, float64(0))
}

func TestOtherUserOnSharedDevice(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	ana, _ := a.owner("balcao", "ana@auto.com")

	w := ana.do(http.MethodPost, "/api/v1/plataformas", map[string]string{"nome": "Webmotors"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	id := decode[map[string]any](c, w)["id"].(string)
	w = ana.do(http.MethodGet, "/api/v1/plataformas/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)

	// bia entra no mesmo aparelho depois de ana
	bia, _ := a.owner("bia", "bia@auto.com")
	bia.device = "balcao"
	w = bia.do(http.MethodGet, "/api/v1/plataformas/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
	w = bia.do(http.MethodGet, "/api/v1/plataformas", nil)
	c.Assert(decode[map[string]any](c, w)["total"], qt.Equals, float64(0))

	// ana volta e ainda vê a própria plataforma
	w = ana.do(http.MethodGet, "/api/v1/plataformas/"+id, nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
}

func TestSingleActiveTenant(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	ana, _ := a.owner("ana", "ana@auto.com")

	w := ana.do(http.MethodPost, "/api/v1/tenants", map[string]string{"nome": "Segundo Grupo"})
	c.Assert(w.Code, qt.Equals, http.StatusConflict, qt.Commentf("body: %s", w.Body.String()))
	w = ana.do(http.MethodGet, "/api/v1/veiculos", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)

	bia, _ := a.owner("bia", "bia@auto.com")
	w = bia.do(http.MethodPost, "/api/v1/tenants/convites", map[string]string{"email": "ana@auto.com"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	token := decode[map[string]any](c, w)["token"].(string)

	w = ana.do(http.MethodPost, "/api/v1/tenants/convites/aceitar", map[string]string{"token": token})
	c.Assert(w.Code, qt.Equals, http.StatusConflict, qt.Commentf("body: %s", w.Body.String()))
	w = ana.do(http.MethodGet, "/api/v1/tenants/atual", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
}

func TestReferencesFromOtherTenant(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	ana, _ := a.owner("ana", "ana@auto.com")
	bia, _ := a.owner("bia", "bia@auto.com")

	veiculo := map[string]any{
		"placa":          "DEF4G56",
		"cor":            "Azul",
		"modelo_id":      "0f8fad5b-d9cb-469f-a165-70867728950e",
		"ano_fabricacao": 2019,
		"ano_modelo":     2019,
		"estado_veiculo": "usado",
	}
	w := ana.do(http.MethodPost, "/api/v1/veiculos", veiculo)
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	doAna := decode[map[string]any](c, w)["id"].(string)
	w = ana.do(http.MethodPost, "/api/v1/plataformas", map[string]string{"nome": "OLX"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	plataformaAna := decode[map[string]any](c, w)["id"].(string)

	w = bia.do(http.MethodPost, "/api/v1/vitrine", map[string]any{"veiculo_id": doAna})
	c.Assert(w.Code, qt.Equals, http.StatusNotFound, qt.Commentf("body: %s", w.Body.String()))

	w = bia.do(http.MethodPost, "/api/v1/veiculos", veiculo)
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	w = bia.do(http.MethodPost, "/api/v1/vitrine", map[string]any{"veiculo_id": decode[map[string]any](c, w)["id"]})
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	vitrineBia := decode[map[string]any](c, w)["id"].(string)

	anuncio := map[string]any{"titulo": "Sedan 2019", "plataforma_id": plataformaAna, "veiculo_loja_id": vitrineBia}
	w = bia.do(http.MethodPost, "/api/v1/anuncios", anuncio)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound, qt.Commentf("body: %s", w.Body.String()))

	w = bia.do(http.MethodPost, "/api/v1/plataformas", map[string]string{"nome": "OLX"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	anuncio["plataforma_id"] = decode[map[string]any](c, w)["id"]
	w = bia.do(http.MethodPost, "/api/v1/anuncios", anuncio)
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))

	// ana não anuncia a vitrine de bia
	anuncio["plataforma_id"] = plataformaAna
	w = ana.do(http.MethodPost, "/api/v1/anuncios", anuncio)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
}

func TestInviteAndPapel(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dono, _ := a.owner("dono", "dono@auto.com")

	w := dono.do(http.MethodPost, "/api/v1/tenants/convites", map[string]string{"email": "Vendedor@Auto.com"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	convite := decode[map[string]any](c, w)
	c.Assert(convite["convite"].(map[string]any)["papel"], qt.Equals, "vendedor")
	token := convite["token"].(string)

	vendedor := a.client("celular")
	vendedor.signUp("vendedor@auto.com")
	w = vendedor.do(http.MethodPost, "/api/v1/tenants/convites/aceitar", map[string]string{"token": token})
	c.Assert(w.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", w.Body.String()))

	w = vendedor.do(http.MethodGet, "/api/v1/lojas", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(decode[map[string]any](c, w)["total"], qt.Equals, float64(1))

	w = vendedor.do(http.MethodPost, "/api/v1/lojas", map[string]string{"nome": "Filial"})
	c.Assert(w.Code, qt.Equals, http.StatusForbidden)
	w = vendedor.do(http.MethodPost, "/api/v1/tenants/convites", map[string]string{"email": "x@auto.com"})
	c.Assert(w.Code, qt.Equals, http.StatusForbidden)

	// token já usado
	w = vendedor.do(http.MethodPost, "/api/v1/tenants/convites/aceitar", map[string]string{"token": token})
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
}

func TestEmpresaUnica(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	cl, _ := a.owner("pc", "dono@auto.com")

	w := cl.do(http.MethodGet, "/api/v1/empresa", nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)

	w = cl.do(http.MethodPost, "/api/v1/empresa", map[string]string{"razao_social": "Auto Center LTDA"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	w = cl.do(http.MethodPost, "/api/v1/empresa", map[string]string{"razao_social": "Outra LTDA"})
	c.Assert(w.Code, qt.Equals, http.StatusConflict)

	w = cl.do(http.MethodGet, "/api/v1/empresa", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(decode[map[string]any](c, w)["razao_social"], qt.Equals, "Auto Center LTDA")
}

func pngBytes(c *qt.C) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, img), qt.IsNil)
	return buf.Bytes()
}

func TestVitrineEFotos(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	cl, lojaID := a.owner("pc", "dono@auto.com")

	w := cl.do(http.MethodPost, "/api/v1/veiculos", map[string]any{
		"placa":          "XYZ9A87",
		"cor":            "Branco",
		"modelo_id":      "0f8fad5b-d9cb-469f-a165-70867728950e",
		"ano_fabricacao": 2020,
		"ano_modelo":     2020,
		"estado_veiculo": "usado",
	})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)
	veiculoID := decode[map[string]any](c, w)["id"].(string)

	w = cl.do(http.MethodPost, "/api/v1/vitrine", map[string]any{"veiculo_id": veiculoID, "preco": 89900})
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	vl := decode[map[string]any](c, w)
	c.Assert(vl["loja_id"], qt.Equals, lojaID)
	vlID := vl["id"].(string)

	w = cl.do(http.MethodGet, "/api/v1/vitrine", nil)
	c.Assert(decode[map[string]any](c, w)["total"], qt.Equals, float64(1))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("foto", "frente.png")
	c.Assert(err, qt.IsNil)
	_, err = part.Write(pngBytes(c))
	c.Assert(err, qt.IsNil)
	c.Assert(mw.Close(), qt.IsNil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vitrine/"+vlID+"/fotos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = cl.send(req)
	c.Assert(w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	foto := decode[map[string]any](c, w)

	w = cl.do(http.MethodGet, "/api/v1/vitrine/"+vlID, nil)
	c.Assert(decode[map[string]any](c, w)["pasta_fotos"], qt.IsNotNil)

	w = cl.do(http.MethodGet, "/api/v1/vitrine/"+vlID+"/fotos", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(decode[[]map[string]any](c, w), qt.HasLen, 1)

	w = cl.do(http.MethodDelete, "/api/v1/vitrine/"+vlID+"/fotos/"+foto["nome"].(string), nil)
	c.Assert(w.Code, qt.Equals, http.StatusNoContent)

	w = cl.do(http.MethodGet, "/api/v1/dashboard", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	resumo := decode[map[string]any](c, w)
	c.Assert(resumo["total_veiculos"], qt.Equals, float64(1))
	c.Assert(resumo["na_vitrine"], qt.Equals, float64(1))
}

func TestVitrineRequiresLoja(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	cl := a.client("pc")
	cl.signUp("dono@auto.com")
	w := cl.do(http.MethodPost, "/api/v1/tenants", map[string]string{"nome": "Sem Lojas"})
	c.Assert(w.Code, qt.Equals, http.StatusCreated)

	w = cl.do(http.MethodGet, "/api/v1/vitrine", nil)
	c.Assert(w.Code, qt.Equals, http.StatusConflict)
	c.Assert(decode[map[string]any](c, w)["code"], qt.Equals, "loja_required")
}
