package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/gestao-concessionaria-api/internal/backend/postgres"
	"github.com/gestao-concessionaria-api/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica o schema do backend (tabelas, RLS e funções RPC)",
		Long: `Aplica o schema embutido no banco apontado por BACKEND_URL.

O schema é idempotente: pode ser executado a cada deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			manager := database.GetManager(&cfg.Backend)
			defer manager.Close()
			if manager.IsMemory() {
				return errors.NotSupportedf("migrate com BACKEND_URL=%s", database.MemoryURL)
			}
			if err := manager.InitPool(cmd.Context()); err != nil {
				return err
			}
			if err := postgres.Migrate(cmd.Context(), manager.GetPool()); err != nil {
				return errors.Annotate(err, "migrate")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema aplicado")
			return nil
		},
	}
}
