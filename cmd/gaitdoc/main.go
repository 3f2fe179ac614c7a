package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gaitdoc/gaitdoc/internal/config"
	"github.com/gaitdoc/gaitdoc/internal/platform/backup"
	"github.com/gaitdoc/gaitdoc/internal/platform/db"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gaitdoc",
		Short: "Gait documentation record store",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the store and keep the daily backup schedule running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := openStore(false)
			if err != nil {
				return err
			}
			defer conn.Close()

			migrator := db.NewMigrator(conn, db.Migrations())
			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) to %s.\n", count, cfg.DBPath)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openStore(false)
			if err != nil {
				return err
			}
			defer conn.Close()

			migrator := db.NewMigrator(conn, db.Migrations())
			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return err
			}

			for _, st := range statuses {
				state := "pending"
				if st.Applied {
					state = "applied " + st.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%3d  %-30s %s\n", st.Version, st.Name, state)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
	}

	nowCmd := &cobra.Command{
		Use:   "now",
		Short: "Write a snapshot immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := openStore(true)
			if err != nil {
				return err
			}
			defer conn.Close()

			logger := newLogger(cfg)
			mgr := backup.NewManager(conn, cfg.DBPath, cfg.ResolvedBackupDir(), logger)
			path, err := mgr.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			fmt.Printf("Snapshot written to %s.\n", path)
			return nil
		},
	}
	cmd.AddCommand(nowCmd)

	return cmd
}

func run() error {
	cfg, conn, err := openStore(true)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.IntegrityCheck(ctx, conn); err != nil {
		return err
	}

	if cfg.BackupEnabled {
		mgr := backup.NewManager(conn, cfg.DBPath, cfg.ResolvedBackupDir(), logger)
		mgr.Start(ctx)
		logger.Info().Str("dir", cfg.ResolvedBackupDir()).Msg("daily backup scheduled")
	}

	logger.Info().Str("db", cfg.DBPath).Msg("store open")
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	return nil
}

// openStore loads config and opens the database, running pending migrations
// when migrate is true.
func openStore(migrate bool) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	if migrate {
		migrator := db.NewMigrator(conn, db.Migrations())
		if _, err := migrator.Up(context.Background()); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	return cfg, conn, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}
