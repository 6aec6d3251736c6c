package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/repository"
)

const (
	nomeFlag    = "nome"
	dominioFlag = "dominio"
	userFlag    = "user"
	tokenFlag   = "token"
)

var tenantFlags = map[string]cobraflags.Flag{
	nomeFlag: &cobraflags.StringFlag{
		Name:  nomeFlag,
		Usage: "Nome do tenant (obrigatório)",
	},
	dominioFlag: &cobraflags.StringFlag{
		Name:  dominioFlag,
		Usage: "Domínio do tenant",
	},
	userFlag: &cobraflags.StringFlag{
		Name:  userFlag,
		Usage: "ID do usuário proprietário (obrigatório)",
	},
}

var inviteFlags = map[string]cobraflags.Flag{
	tokenFlag: &cobraflags.StringFlag{
		Name:  tokenFlag,
		Usage: "Token do convite (obrigatório)",
	},
	userFlag: &cobraflags.StringFlag{
		Name:  userFlag,
		Usage: "ID do usuário que aceita o convite (obrigatório)",
	},
}

func newTenantCommand() *cobra.Command {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Gerencia tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Cria um tenant com o usuário como proprietário",
		Example: `  ctl tenant create --nome "Auto Center" --user 0b6f...
  ctl tenant create --nome "Auto Center" --dominio autocenter.com.br --user 0b6f...`,
		Args: cobra.NoArgs,
		RunE: tenantCreateCommand,
	}
	cobraflags.RegisterMap(createCmd, tenantFlags)

	tenantCmd.AddCommand(createCmd)
	return tenantCmd
}

func newInviteCommand() *cobra.Command {
	inviteCmd := &cobra.Command{
		Use:   "invite",
		Short: "Gerencia convites de tenant",
	}

	acceptCmd := &cobra.Command{
		Use:   "accept",
		Short: "Aceita um convite em nome de um usuário",
		Args:  cobra.NoArgs,
		RunE:  inviteAcceptCommand,
	}
	cobraflags.RegisterMap(acceptCmd, inviteFlags)

	inviteCmd.AddCommand(acceptCmd)
	return inviteCmd
}

func tenantCreateCommand(cmd *cobra.Command, _ []string) error {
	userID, err := parseUser(tenantFlags[userFlag].GetString())
	if err != nil {
		return err
	}
	req := models.CreateTenantRequest{Nome: tenantFlags[nomeFlag].GetString()}
	if d := tenantFlags[dominioFlag].GetString(); d != "" {
		req.Dominio = &d
	}

	return withTenants(cmd.Context(), func(tenants *repository.TenantRepository) error {
		id, err := tenants.CreateTenant(cmd.Context(), req, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tenant criado: %s\n", id)
		return nil
	})
}

func inviteAcceptCommand(cmd *cobra.Command, _ []string) error {
	userID, err := parseUser(inviteFlags[userFlag].GetString())
	if err != nil {
		return err
	}
	token := inviteFlags[tokenFlag].GetString()
	if token == "" {
		return errors.NotValidf("--%s vazio", tokenFlag)
	}

	return withTenants(cmd.Context(), func(tenants *repository.TenantRepository) error {
		id, err := tenants.AcceptInvite(cmd.Context(), token, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "convite aceito, tenant: %s\n", id)
		return nil
	})
}

func parseUser(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.NotValidf("--%s vazio", userFlag)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewNotValid(err, "--"+userFlag)
	}
	return id, nil
}
