package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Validar o revocar tokens",
	}

	validate := &cobra.Command{
		Use:   "validate <access_token>",
		Short: "Valida un access token como lo haría un resource server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.svc.ValidateAccessToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.print(res, func(w io.Writer) {
				fmt.Fprintf(w, "valid: %t\n", res.Valid)
				if res.Valid {
					fmt.Fprintf(w, "client_id: %s\ntenant_id: %s\nscopes: %s\n",
						res.ClientID, res.TenantID, strings.Join(res.Scopes, " "))
					if res.UserID != "" {
						fmt.Fprintf(w, "user_id: %s\n", res.UserID)
					}
				}
			})
		},
	}

	var hint string
	revoke := &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoca un access o refresh token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.svc.RevokeToken(cmd.Context(), args[0], hint); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "ok")
			return nil
		},
	}
	revoke.Flags().StringVar(&hint, "hint", "", "token_type_hint: access_token | refresh_token")

	cmd.AddCommand(validate, revoke)
	return cmd
}
