package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"helios/internal/api"
	"helios/internal/auth"
	"helios/internal/config"
	"helios/internal/logging"
)

var (
	// Global flags
	configPath string
	apiURL     string
	tokenFlag  string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "helios",
	Short: "Helios console - conversational access to goal knowledge bases",
	Long: `helios is a terminal client for the Helios analytics backend.

It streams agent answers for goal-scoped questions, tracking the backend's
multi-agent pipeline (classification, retrieval, synthesis) live as the
response arrives.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			cfg.API.BaseURL = apiURL
		}
		if tokenFlag != "" {
			cfg.Auth.Token = tokenFlag
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logging.Init(level, cfg.Logging.Development); err != nil {
			return err
		}
		logger = logging.Get(logging.CategoryBoot)
		logger.Debug("configuration loaded", zap.String("base_url", cfg.API.BaseURL))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// newAPIClient builds the backend client from config and flags.
func newAPIClient() *api.Client {
	tokens := auth.Chain{
		auth.Static(cfg.Auth.Token),
		auth.Env(cfg.Auth.TokenEnv),
	}
	return api.NewClient(cfg.API.BaseURL, tokens,
		api.WithTimeout(cfg.API.TimeoutDuration()),
		api.WithLogger(logging.Get(logging.CategoryAPI)),
	)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(loginCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "helios.yaml"
	}
	return home + "/.helios/config.yaml"
}
