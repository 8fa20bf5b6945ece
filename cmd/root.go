package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skylark-im/skylark/core/config"
)

var (
	flagDebug bool
	flagUser  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skylark",
	Short: "Real-time chat coordination client",
	Long: `Skylark coordinates the real-time surfaces of a chat client:
typing presence over a shared replicated list, the voice session lifecycle,
and per-channel unread tracking with desktop notifications.`,
}

func init() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().BoolVarP(
		&flagDebug,
		"debug", "d",
		false,
		"displaying debug log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagUser,
		"user", "u",
		"",
		`local user name shown to peers --user <string> | example: --user="alice"`,
	)
}

// initEnvConfig loads configuration from environment variables. Flags win
// over environment, environment wins over defaults.
func initEnvConfig() {
	viper.AutomaticEnv()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	if viper.IsSet("app_debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if envUser := viper.GetString("app_user_name"); envUser != "" {
		cfg.App.UserName = envUser
	}

	if rootCmd.PersistentFlags().Changed("debug") {
		cfg.App.Debug = flagDebug
	}
	if rootCmd.PersistentFlags().Changed("user") {
		cfg.App.UserName = flagUser
	}
}

func initApp() {
	cfg := config.Global

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// preparing folder if not exist
	if err := os.MkdirAll(cfg.Paths.Cursors, 0o755); err != nil {
		logrus.Errorln(err)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
