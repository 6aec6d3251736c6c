package models

// EstadoVenda representa a situação comercial do veículo
type EstadoVenda string

const (
	EstadoVendaDisponivel EstadoVenda = "disponivel"
	EstadoVendaReservado  EstadoVenda = "reservado"
	EstadoVendaVendido    EstadoVenda = "vendido"
)

// Valid indica se o valor pertence ao enum
func (e EstadoVenda) Valid() bool {
	switch e {
	case EstadoVendaDisponivel, EstadoVendaReservado, EstadoVendaVendido:
		return true
	}
	return false
}

// EstadoVeiculo representa a condição física do veículo
type EstadoVeiculo string

const (
	EstadoVeiculoNovo     EstadoVeiculo = "novo"
	EstadoVeiculoSeminovo EstadoVeiculo = "seminovo"
	EstadoVeiculoUsado    EstadoVeiculo = "usado"
	EstadoVeiculoRepasse  EstadoVeiculo = "repasse"
)

func (e EstadoVeiculo) Valid() bool {
	switch e {
	case EstadoVeiculoNovo, EstadoVeiculoSeminovo, EstadoVeiculoUsado, EstadoVeiculoRepasse:
		return true
	}
	return false
}

// StatusAnuncio representa o ciclo de vida de um anúncio
type StatusAnuncio string

const (
	StatusAnuncioAtivo     StatusAnuncio = "ativo"
	StatusAnuncioPausado   StatusAnuncio = "pausado"
	StatusAnuncioEncerrado StatusAnuncio = "encerrado"
)

func (s StatusAnuncio) Valid() bool {
	switch s {
	case StatusAnuncioAtivo, StatusAnuncioPausado, StatusAnuncioEncerrado:
		return true
	}
	return false
}

// StatusMembro representa a situação de um usuário dentro do tenant
type StatusMembro string

const (
	StatusMembroAtivo     StatusMembro = "ativo"
	StatusMembroInativo   StatusMembro = "inativo"
	StatusMembroConvidado StatusMembro = "convidado"
)

// PapelMembro é o papel do usuário no tenant
type PapelMembro string

const (
	PapelProprietario PapelMembro = "proprietario"
	PapelGerente      PapelMembro = "gerente"
	PapelVendedor     PapelMembro = "vendedor"
)
