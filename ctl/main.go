//go:build unix

// Command cmdctl sends commands to a running cmdserverd.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/Paranoid-AF/cmdserver"
	"github.com/Paranoid-AF/cmdserver/client"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
	pid        int // host to signal after each request, 0 to rely on polling

	// clientOpts are appended to the config-derived options.
	clientOpts []client.Option
}

func (o *rootOptions) config() (*cmdserver.Config, error) {
	if o.configPath == "" {
		return cmdserver.LoadConfig()
	}
	return cmdserver.LoadConfigFile(o.configPath)
}

func (o *rootOptions) client() (*client.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, w := range cmdserver.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}
	var opts []client.Option
	if o.pid > 0 {
		pid := o.pid
		opts = append(opts, client.WithTrigger(func(context.Context) error {
			return unix.Kill(pid, unix.SIGUSR1)
		}))
	}
	return client.FromConfig(cfg, append(opts, o.clientOpts...)...), nil
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cmdctl",
		Short:         "Send editor commands to cmdserverd",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+cmdserver.ConfigPath()+")")
	rootCmd.PersistentFlags().IntVar(&opts.pid, "pid", 0, "send SIGUSR1 to this cmdserverd after writing a request")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and responses")

	rootCmd.AddCommand(sendCmd(opts))
	rootCmd.AddCommand(runCmd(opts))
	rootCmd.AddCommand(dirCmd(opts))
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func main() {
	rootCmd := newRootCmd(&rootOptions{})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show cmdctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cmdctl %s\n", Version)
		},
	}
}

func dirCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Print the communication directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
			return nil
		},
	}
}
