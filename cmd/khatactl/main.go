// khatactl is the operator CLI: backup export/import and GST report export,
// talking straight to the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/store/memory"
	pgstore "bahikhata/backend/internal/store/postgres"
	"bahikhata/backend/internal/store/redisjson"
	"bahikhata/backend/pkg/logging"
)

var cfgFile string

// fileConfig mirrors the server's env configuration for operators who prefer
// a checked-in YAML file over environment variables.
type fileConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisKeyPrefix string `yaml:"redis_key_prefix"`
}

var rootCmd = &cobra.Command{
	Use:   "khatactl",
	Short: "Operator tooling for the bahikhata ledger backend",
	Long: `khatactl connects directly to the ledger's store (postgres, redis, or
in-memory for dry runs) and performs operator tasks: exporting and importing
portable backup artifacts, and exporting GST reports.

Connection settings come from the environment (DATABASE_URL, REDIS_ADDR, ...)
or from a YAML config file passed with --config.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func main() {
	logging.Setup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (overrides environment)")
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	if cfgFile == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}

	if fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.RedisPassword != "" {
		cfg.RedisPassword = fc.RedisPassword
	}
	if fc.RedisDB != 0 {
		cfg.RedisDB = fc.RedisDB
	}
	if fc.RedisKeyPrefix != "" {
		cfg.RedisKeyPrefix = fc.RedisKeyPrefix
	}
	return cfg, nil
}

// openRepository mirrors the server's backend selection: postgres when
// DATABASE_URL is set, then redis, then in-memory (useful only for dry runs).
func openRepository(ctx context.Context, cfg config.Config) (store.Repository, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisjson.New(client, cfg.RedisKeyPrefix), func() { _ = client.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}
