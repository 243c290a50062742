package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
)

func newClientCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Registrar y administrar clients OAuth",
	}
	cmd.AddCommand(
		newClientRegisterCmd(e),
		newClientRotateCmd(e),
		newClientActiveCmd(e, "disable", false),
		newClientActiveCmd(e, "enable", true),
		newClientShowCmd(e),
		newClientListCmd(e),
	)
	return cmd
}

func newClientRegisterCmd(e *env) *cobra.Command {
	var (
		tenant, name string
		redirects    []string
		scopes       []string
		grants       []string
		public       bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Registra un client; el secret se muestra una sola vez",
		RunE: func(cmd *cobra.Command, args []string) error {
			confidential := !public
			c, err := e.svc.RegisterClient(cmd.Context(), svc.RegisterClientInput{
				TenantID:       tenant,
				Name:           name,
				RedirectURIs:   redirects,
				Scopes:         scopes,
				GrantTypes:     grants,
				IsConfidential: &confidential,
			})
			if err != nil {
				return err
			}
			return e.print(c, func(w io.Writer) {
				fmt.Fprintf(w, "id:            %s\n", c.ID)
				fmt.Fprintf(w, "client_id:     %s\n", c.ClientID)
				if c.ClientSecret != "" {
					fmt.Fprintf(w, "client_secret: %s\n", c.ClientSecret)
					fmt.Fprintln(w, "(store the secret now; it cannot be shown again)")
				}
				fmt.Fprintf(w, "scopes:        %s\n", strings.Join(c.Scopes, " "))
				fmt.Fprintf(w, "grant_types:   %s\n", strings.Join(c.GrantTypes, " "))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&tenant, "tenant", "", "ID del campground (tenant)")
	f.StringVar(&name, "name", "", "Nombre visible del client")
	f.StringSliceVar(&redirects, "redirect-uri", nil, "Redirect URI (repetible)")
	f.StringSliceVar(&scopes, "scope", nil, "Scope permitido (repetible; default: todos)")
	f.StringSliceVar(&grants, "grant", nil, "Grant type permitido (repetible)")
	f.BoolVar(&public, "public", false, "Client público (sin secret, PKCE obligatorio)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newClientRotateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-secret <id|client_id>",
		Short: "Emite un secret nuevo y revoca todos los tokens vivos del client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.svc.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rot, err := e.svc.RotateClientSecret(cmd.Context(), c.ID)
			if err != nil {
				return err
			}
			return e.print(rot, func(w io.Writer) {
				fmt.Fprintf(w, "client_id:      %s\n", rot.ClientID)
				fmt.Fprintf(w, "client_secret:  %s\n", rot.ClientSecret)
				fmt.Fprintf(w, "revoked_tokens: %d\n", rot.RevokedTokens)
			})
		},
	}
}

func newClientActiveCmd(e *env, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|client_id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.svc.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := e.svc.SetClientActive(cmd.Context(), c.ID, active); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%s: active=%t\n", c.ClientID, active)
			return nil
		},
	}
}

func newClientShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|client_id>",
		Short: "Muestra un client (sin secret)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.svc.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := clientView{
				ID: c.ID, ClientID: c.ClientID, Name: c.Name, TenantID: c.TenantID,
				RedirectURIs: c.RedirectURIs, Scopes: c.Scopes, GrantTypes: c.GrantTypes,
				Confidential: c.IsConfidential, Active: c.IsActive,
			}
			return e.print(view, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "id\t%s\n", view.ID)
				fmt.Fprintf(tw, "client_id\t%s\n", view.ClientID)
				fmt.Fprintf(tw, "name\t%s\n", view.Name)
				fmt.Fprintf(tw, "tenant\t%s\n", view.TenantID)
				fmt.Fprintf(tw, "confidential\t%t\n", view.Confidential)
				fmt.Fprintf(tw, "active\t%t\n", view.Active)
				fmt.Fprintf(tw, "redirect_uris\t%s\n", strings.Join(view.RedirectURIs, " "))
				fmt.Fprintf(tw, "scopes\t%s\n", strings.Join(view.Scopes, " "))
				fmt.Fprintf(tw, "grant_types\t%s\n", strings.Join(view.GrantTypes, " "))
				_ = tw.Flush()
			})
		},
	}
}

func newClientListCmd(e *env) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista los clients de un tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.svc.ListClients(cmd.Context(), tenant)
			if err != nil {
				return err
			}
			views := make([]clientView, 0, len(list))
			for _, c := range list {
				views = append(views, clientView{
					ID: c.ID, ClientID: c.ClientID, Name: c.Name, TenantID: c.TenantID,
					Confidential: c.IsConfidential, Active: c.IsActive,
				})
			}
			return e.print(views, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CLIENT_ID\tNAME\tCONFIDENTIAL\tACTIVE")
				for _, v := range views {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", v.ClientID, v.Name, v.Confidential, v.Active)
				}
				_ = tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "ID del campground (tenant)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

type clientView struct {
	ID           string   `json:"id"`
	ClientID     string   `json:"client_id"`
	Name         string   `json:"name"`
	TenantID     string   `json:"tenant_id"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	GrantTypes   []string `json:"grant_types,omitempty"`
	Confidential bool     `json:"confidential"`
	Active       bool     `json:"active"`
}
