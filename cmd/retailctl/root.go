package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"retailworks/internal/app"
	"retailworks/internal/config"
	"retailworks/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type globals struct {
	cfg     *config.Config
	verbose bool
	noRedis bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "retailctl",
		Short:         "Batch and maintenance commands for retailworks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := zerolog.InfoLevel
			if g.verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			g.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&g.noRedis, "no-redis", false, "run without Redis (no reorder alerts or emails)")

	root.AddCommand(
		newMigrateCmd(g),
		newCalendarCmd(g),
		newCommissionCmd(g),
		newEtlCmd(g),
		newDQCmd(g),
		newReorderCmd(g),
		newTokenCmd(g),
	)
	return root
}

func (g *globals) database() (*gorm.DB, error) {
	db, err := infra.NewDatabase(g.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// container connects the database and, unless disabled, Redis. A Redis that
// cannot be reached only disables async side effects.
func (g *globals) container() (*app.Container, error) {
	db, err := g.database()
	if err != nil {
		return nil, err
	}
	var rdb *redis.Client
	if !g.noRedis {
		if rdb, err = infra.NewRedis(g.cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without async side effects")
			rdb = nil
		}
	}
	return app.New(g.cfg, db, rdb)
}

func parseDay(flag, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return t, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
