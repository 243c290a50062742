package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/campauth/internal/cache"
	"github.com/dropDatabas3/campauth/internal/config"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/security/secret"
	"github.com/dropDatabas3/campauth/internal/store"
)

// env es lo que reciben los subcomandos.
type env struct {
	cfg   *config.Config
	store *store.Store
	svc   *svc.Service
	out   io.Writer
	json  bool
}

// opener abre el store; los tests inyectan uno en memoria.
type opener func(ctx context.Context, cfg *config.Config) (*store.Store, error)

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg.Storage.Driver == "memory" {
		fmt.Fprintln(os.Stderr, "warning: storage.driver=memory; changes are lost when the command exits")
	}
	return store.Open(ctx, cfg)
}

func newRootCmd(open opener) *cobra.Command {
	var (
		configPath = os.Getenv("CONFIG_PATH")
		outJSON    bool
		bcryptCost = secret.DefaultCost
	)
	e := &env{}

	root := &cobra.Command{
		Use:           "campauthctl",
		Short:         "Administración de clients OAuth y tokens de campauth",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: "dev", Level: "warn"})

			st, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			e.cfg, e.store, e.out, e.json = cfg, st, cmd.OutOrStdout(), outJSON
			e.svc = svc.NewService(svc.Deps{
				Clients: st.Clients,
				Tokens:  st.Tokens,
				// la CLI no emite codes
				Codes:  cache.NewMemoryStore(cfg.OAuth.CodeTTL, 0),
				Hasher: secret.NewHasher(bcryptCost),
				Config: svc.Config{
					Issuer:     cfg.OAuth.Issuer,
					AccessTTL:  cfg.OAuth.AccessTTL,
					RefreshTTL: cfg.OAuth.RefreshTTL,
					CodeTTL:    cfg.OAuth.CodeTTL,
				},
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.store != nil {
				e.store.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Ruta al YAML de config (env CONFIG_PATH)")
	root.PersistentFlags().BoolVar(&outJSON, "json", false, "Salida JSON")
	root.PersistentFlags().IntVar(&bcryptCost, "bcrypt-cost", bcryptCost, "Costo bcrypt para secrets nuevos")
	_ = root.PersistentFlags().MarkHidden("bcrypt-cost")

	root.AddCommand(newClientCmd(e), newTokenCmd(e), newMigrateCmd(e))
	return root
}

// print escribe v como JSON indentado o como pares clave=valor.
func (e *env) print(v any, text func(w io.Writer)) error {
	if e.json {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(e.out)
	return nil
}
