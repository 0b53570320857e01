package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ovtracker/internal/config"
	"ovtracker/internal/identification/overrides"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set TMDB_API_KEY, TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID (or a .env file) before sending.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report what is ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, statErr := os.Stat(ctx.configPath); statErr != nil {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Cinema: %s (%s)\n", cfg.Schedule.CinemaName, cfg.Schedule.Timezone)
			fmt.Fprintf(out, "Schedule: %s\n", cfg.Schedule.URL)
			fmt.Fprintf(out, "TMDB API key: %s\n", yesNo(cfg.TMDB.APIKey != ""))
			if entries, err := overrides.NewCatalog(cfg.TMDB.OverridesPath, nil).Entries(); err != nil {
				fmt.Fprintf(out, "Overrides: unreadable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Overrides: %d entries\n", len(entries))
			}
			if cfg.Tickets.BaseURL == "" {
				fmt.Fprintln(out, "Ticket pages: disabled")
			} else {
				fmt.Fprintf(out, "Ticket pages: %s\n", cfg.Tickets.BaseURL)
			}
			if err := cfg.ValidateTransport(); err != nil {
				fmt.Fprintf(out, "Telegram: not ready (%v)\n", err)
			} else {
				fmt.Fprintln(out, "Telegram: ready")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
