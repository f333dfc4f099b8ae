package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/porthorian/jamfpro"
	"github.com/porthorian/jamfpro/pkg/auth"
)

// withSession runs fn with a client whose token is invalidated afterwards.
func withSession(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, client *jamfpro.Client) error) error {
	config, err := opts.clientConfig()
	if err != nil {
		return err
	}
	config.Logger = opts.logger(cmd.ErrOrStderr())
	return jamfpro.WithSession(cmd.Context(), config, fn)
}

func newTokenCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Acquire a bearer token and print it with its expiry",
		Long:  "Acquire a bearer token and print it with its expiry. The token stays valid until it expires or is passed to invalidate.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.clientConfig()
			if err != nil {
				return err
			}
			config.Logger = opts.logger(cmd.ErrOrStderr())

			client, err := jamfpro.New(cmd.Context(), config)
			if err != nil {
				return err
			}
			state := client.TokenState()
			cmd.Printf("%s\nexpires %s\n", state.Value, auth.FormatExpires(state.Expires, true))
			return client.Release()
		},
	}
}

func newInvalidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <token>",
		Short: "Invalidate a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.clientConfig()
			if err != nil {
				return err
			}

			httpClient := &http.Client{Timeout: config.Runtime.HTTP.Timeout}
			if httpClient.Timeout <= 0 {
				httpClient.Timeout = 30 * time.Second
			}
			ok, err := auth.InvalidateToken(cmd.Context(), httpClient, config.BaseURL, args[0])
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("server did not accept the invalidation")
				return nil
			}
			cmd.Println("token invalidated")
			return nil
		},
	}
}

func newGetCommand(opts *globalOptions) *cobra.Command {
	var dataType string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET an endpoint and print the response",
		Example: `  jamfctl get /api/v1/buildings
  jamfctl get /JSSResource/computers/id/1 --data-type xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, client *jamfpro.Client) error {
				result, err := client.Do(ctx, http.MethodGet, jamfpro.Request{
					Path:     args[0],
					DataType: jamfpro.DataType(dataType),
				})
				if err != nil {
					return err
				}

				if result.DataType == jamfpro.DataTypeJSON {
					var pretty bytes.Buffer
					if err := json.Indent(&pretty, result.Raw, "", "  "); err == nil {
						cmd.Println(pretty.String())
						return nil
					}
				}
				cmd.Println(result.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dataType, "data-type", string(jamfpro.DataTypeJSON), "Response type: json, xml, or none.")
	return cmd
}

func newDownloadCommand(opts *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Save an endpoint's response to a file",
		Long:  "Save an endpoint's response to a file. Existing files are never overwritten; a (n) suffix is added instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, client *jamfpro.Client) error {
				saved, err := client.Download(ctx, jamfpro.DownloadRequest{Path: args[0], Dir: dir})
				if err != nil {
					return err
				}
				cmd.Println(saved.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to save into. Defaults to the config file's download_dir, then ~/Downloads.")
	return cmd
}
