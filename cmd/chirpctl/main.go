package main

import (
	"fmt"
	"os"

	"chirp-go/internal/config"
	"chirp-go/internal/infra/database"
	"chirp-go/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd chirpctl 管理命令入口
var rootCmd = &cobra.Command{
	Use:   "chirpctl",
	Short: "Administrative tasks for chirp-go",
	Long: `chirpctl runs one-off maintenance tasks against the chirp-go database.

Available commands:
  migrate     - Create or update database tables
  create-user - Create an account (optionally an administrator)
  reindex     - Rebuild the Elasticsearch posts index`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config.yaml")
	rootCmd.AddCommand(migrateCmd, createUserCmd, reindexCmd)
}

// setup 加载配置、初始化日志与数据库；返回的函数负责释放资源
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if err := database.Init(&cfg.Database); err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return cfg, func() {
		database.Close()
		logger.Sync()
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
