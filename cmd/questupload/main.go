package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quest-go/internal/config"
	"quest-go/internal/curriculum"
	"quest-go/internal/uploader"
)

type app struct {
	configPath string
	baseURL    string
	token      string
	timeout    time.Duration

	cfg config.Config
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "questupload",
		Short: "Upload and manage quest attachments",
		Long: `questupload talks to the curriculum API server.

It validates files against the uploader policy before sending them,
prints per-file progress, and can follow live attachment events for a quest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("QUEST_CONFIG_PATH"), "path to a config file")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "curriculum API base URL (overrides CLIENT.BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&a.token, "token", "", "bearer token (overrides CLIENT.TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "per-request timeout (overrides CLIENT.TIMEOUT)")

	rootCmd.AddCommand(
		uploadCmd(a),
		listCmd(a),
		removeCmd(a),
		loginCmd(a),
		watchCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// load 读取配置，命令行参数优先于配置文件和环境变量。
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.Client.BaseURL = a.baseURL
	}
	if a.token != "" {
		cfg.Client.Token = a.token
	}
	if a.timeout > 0 {
		cfg.Client.Timeout = a.timeout
	}
	a.cfg = cfg
	return nil
}

func (a *app) client() *curriculum.Client {
	return curriculum.NewClient(a.cfg.Client)
}

func (a *app) policy() uploader.Policy {
	return uploader.PolicyFromConfig(a.cfg.Uploader)
}
