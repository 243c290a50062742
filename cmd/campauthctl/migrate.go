package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/campauth/internal/store"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas (solo postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.store.Migrate(cmd.Context())
			if errors.Is(err, store.ErrMigrationsUnsupported) {
				return fmt.Errorf("migrate: storage.driver=%s has no schema", e.store.Driver)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "applied %d migration(s), %d already up to date\n", len(res.Applied), len(res.Skipped))
			return nil
		},
	}
}
