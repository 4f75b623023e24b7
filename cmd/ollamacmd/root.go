package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/ollamacmd/config"
)

var rootCmd = &cobra.Command{
	Use:   "ollamacmd",
	Short: "Run /ollama chat commands against a local ollama binary",
	Long: `ollamacmd accepts chat-style commands such as "/ollama list" or
"/ollama model llama3", runs the ollama executable and streams its output
back as feedback lines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: cmd/ollamacmd/config.yml, config/config.yml or ./config.yml)")
	pf.String("env-file", "", ".env file to load before reading the environment")
	pf.String("locale", "", "feedback language: en or zh")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("ollama", "", "path to the ollama executable")
}

// loadConfig reads the config file, the environment and the persistent
// flags, in increasing precedence. quietLevel is the log level used when
// neither the config nor --log-level sets one.
func loadConfig(cmd *cobra.Command, quietLevel string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if path, _ := cmd.Flags().GetString("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}

	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("locale"); v != "" {
		cfg.Locale = v
	}
	if v, _ := cmd.Flags().GetString("ollama"); v != "" {
		cfg.Ollama.Binary = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	} else if cfg.Logging.Level == "" && !cfg.Debug {
		cfg.Logging.Level = quietLevel
	}
	return cfg, nil
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("exit status %d", e.code)
}
