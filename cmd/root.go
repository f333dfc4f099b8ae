package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
)

var BuildVersion = "dev"

type globalOptions struct {
	ConfigPath string
	URL        string
	Username   string
	Password   string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:          "jamfctl",
		Short:        "Jamf Pro API CLI",
		Long:         "CLI for calling the Jamf Pro classic and JSON APIs with a managed bearer token.",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML config file.")
	flags.StringVar(&opts.URL, "url", "", "Server base URL. Overrides the config file.")
	flags.StringVar(&opts.Username, "username", "", "API username. Overrides the config file.")
	flags.StringVar(&opts.Password, "password", "", "API password. Overrides the config file.")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log requests and token refreshes to stderr.")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of jamfctl",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Printf("%s\n", BuildVersion)
			},
		},
		newTokenCommand(opts),
		newInvalidateCommand(opts),
		newGetCommand(opts),
		newDownloadCommand(opts),
	)
	return rootCmd
}

func (o *globalOptions) logger(w io.Writer) logr.Logger {
	if !o.Verbose {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: 1})
}

func Execute() error {
	rootCmd := newRootCommand()
	rootCmd.SetErr(os.Stderr)
	return rootCmd.Execute()
}
