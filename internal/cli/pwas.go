package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pwaspark/pwagen/internal/client"
	"github.com/pwaspark/pwagen/internal/pwa"
)

func newPWAsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pwas",
		Short: "Manage apps saved on a pwagen server",
	}

	var appFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Save an app description on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			cfg := pwa.DefaultConfig()
			if err := decodeYAMLFile(appFile, &cfg); err != nil {
				return err
			}
			rec, err := c.CreatePWA(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	create.Flags().StringVar(&appFile, "app", "", "app description YAML")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your saved apps, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				recs, err := c.ListPWAs(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSHORT NAME\tCREATED")
				for _, r := range recs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.ShortName, r.CreatedAt.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Print a saved app as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				rec, err := c.GetPWA(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			},
		},
		create,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one of your saved apps",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				deleted, err := c.DeletePWA(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("app %s was not deleted: not found or not yours", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			},
		},
	)
	return cmd
}

// client builds an API client from --server, falling back to
// server.baseurl from settings.
func (o *globalOptions) client() (*client.Client, error) {
	server := o.server
	if server == "" {
		settings, err := o.loadSettings()
		if err != nil {
			return nil, err
		}
		server = settings.Server.BaseURL
	}
	return client.New(server, client.WithToken(o.token))
}
