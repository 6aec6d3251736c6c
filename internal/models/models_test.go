package models_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/models"
)

func TestCreateAnuncioRequiresExactlyOneTarget(t *testing.T) {
	vl := uuid.New()
	rep := uuid.New()
	tests := []struct {
		name    string
		vl, rep *uuid.UUID
		wantErr bool
	}{
		{name: "nenhum alvo", wantErr: true},
		{name: "ambos", vl: &vl, rep: &rep, wantErr: true},
		{name: "veiculo loja", vl: &vl},
		{name: "repetido", rep: &rep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			req := models.CreateAnuncioRequest{
				PlataformaID:  uuid.New(),
				VeiculoLojaID: tt.vl,
				RepetidoID:    tt.rep,
				Titulo:        "Onix 2020",
			}
			err := req.Validate()
			if tt.wantErr {
				c.Assert(errors.Is(err, errors.NotValid), qt.IsTrue)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(req.Status, qt.Equals, models.StatusAnuncioAtivo)
		})
	}
}

func TestCreateVeiculoNormalizesPlaca(t *testing.T) {
	c := qt.New(t)
	req := models.CreateVeiculoRequest{
		Placa:         "abc-1d23",
		Cor:           "prata",
		ModeloID:      uuid.New(),
		AnoFabricacao: 2020,
		AnoModelo:     2021,
		EstadoVeiculo: models.EstadoVeiculoSeminovo,
	}
	c.Assert(req.Validate(), qt.IsNil)
	c.Assert(req.Placa, qt.Equals, "ABC1D23")
	c.Assert(req.EstadoVenda, qt.Equals, models.EstadoVendaDisponivel)

	req.Placa = "12ABC"
	c.Assert(req.Validate(), qt.ErrorMatches, `placa "12ABC" not valid`)
}

func TestCreateVeiculoAnoModelo(t *testing.T) {
	c := qt.New(t)
	req := models.CreateVeiculoRequest{
		Placa:         "ABC1234",
		Cor:           "preto",
		ModeloID:      uuid.New(),
		AnoFabricacao: 2020,
		AnoModelo:     2023,
		EstadoVeiculo: models.EstadoVeiculoUsado,
	}
	c.Assert(errors.Is(req.Validate(), errors.NotValid), qt.IsTrue)
}

func TestCreateEmpresaCNPJ(t *testing.T) {
	c := qt.New(t)
	cnpj := "12.345.678/0001-90"
	req := models.CreateEmpresaRequest{RazaoSocial: "Auto LTDA", CNPJ: &cnpj}
	c.Assert(req.Validate(), qt.IsNil)
	c.Assert(*req.CNPJ, qt.Equals, "12345678000190")

	bad := "123"
	req.CNPJ = &bad
	c.Assert(errors.Is(req.Validate(), errors.NotValid), qt.IsTrue)
}
