package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"bookstore-ledger/bookstore"
	"bookstore-ledger/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd wires the environment configuration into cobra flags. Flags
// take precedence over the environment.
func newRootCmd() *cobra.Command {
	cfg, cfgErr := config.Load()

	root := &cobra.Command{
		Use:           "bookstore",
		Short:         "Inventory and sales ledger for a bookstore",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfgErr
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd, cfg)
			if err != nil {
				return err
			}
			interactive := false
			if f, ok := cmd.InOrStdin().(*os.File); ok {
				interactive = term.IsTerminal(int(f.Fd()))
			}
			newShell(cmd.InOrStdin(), cmd.OutOrStdout(), mgr, interactive).run()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Name, "name", cfg.Name, "store name for a new data file")
	flags.StringVar(&cfg.DataFile, "data", cfg.DataFile, "data file (.json, .xml or .db)")
	flags.StringVar(&cfg.Format, "format", cfg.Format, "data file format: json, xml or sqlite (default: by extension)")
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML seed file used when the data file does not exist")
	flags.BoolVar(&cfg.Demo, "demo", cfg.Demo, "seed demonstration data when the data file does not exist")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	root.AddCommand(newInfoCmd(&cfg), newConvertCmd(&cfg), newSeedCmd(&cfg))
	return root
}

func newLogger(w io.Writer, cfg config.Config) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func openManager(cmd *cobra.Command, cfg config.Config) (*bookstore.Manager, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, err
	}
	var format bookstore.Format
	if cfg.Format != "" {
		if format, err = bookstore.ParseFormat(cfg.Format); err != nil {
			return nil, err
		}
	}
	return bookstore.NewManager(bookstore.ManagerOptions{
		Name:     cfg.Name,
		DataFile: cfg.DataFile,
		Format:   format,
		SeedFile: cfg.SeedFile,
		Demo:     cfg.Demo,
		Logger:   logger,
	})
}

func newInfoCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print a summary of the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.DataFile); err != nil {
				return fmt.Errorf("no data file to summarize: %w", err)
			}
			infoCfg := *cfg
			infoCfg.Demo = false
			infoCfg.SeedFile = ""
			mgr, err := openManager(cmd, infoCfg)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), mgr.Summary())
			return nil
		},
	}
}

func newConvertCmd(cfg *config.Config) *cobra.Command {
	var to, toFormat string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Save the data file in another format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd, *cfg)
			if err != nil {
				return err
			}
			format, err := bookstore.FormatForPath(to)
			if toFormat != "" {
				format, err = bookstore.ParseFormat(toFormat)
			}
			if err != nil {
				return err
			}
			if err := mgr.Store().Save(to, format); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s to %s (%s)\n", mgr.DataFile(), to, format)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination file")
	cmd.Flags().StringVar(&toFormat, "to-format", "", "destination format (default: by extension)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a freshly seeded store to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seedCfg := *cfg
			seedCfg.DataFile = ""
			seedCfg.Format = ""
			if seedCfg.SeedFile == "" {
				seedCfg.Demo = true
			}
			mgr, err := openManager(cmd, seedCfg)
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.DataFile
			}
			format, err := bookstore.FormatForPath(out)
			if err != nil {
				return err
			}
			if err := mgr.Store().Save(out, format); err != nil {
				return err
			}
			s := mgr.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d items, %d staff, %d patrons\n", out, s.Items, s.Staff, s.Patrons)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "destination file (default: the data file)")
	return cmd
}
