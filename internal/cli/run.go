package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"recordkit/internal/config"
	"recordkit/internal/database"
	"recordkit/internal/database/migration"
	"recordkit/internal/logger"
	"recordkit/internal/model"
	"recordkit/internal/record"
)

// ErrNotFound is returned by get when no row has the requested id.
var ErrNotFound = errors.New("item not found")

var openDB = database.Open

func errInvalidID(arg string) error {
	return fmt.Errorf("invalid id %q: must be a positive integer", arg)
}

// session is the per-invocation state shared by every subcommand.
type session struct {
	cfg   *config.AppConfig
	log   zerolog.Logger
	db    *sqlx.DB
	items *record.Model[model.Item]
}

func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	cfg := config.Load()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log := logger.New(cfg.Log, cmd.ErrOrStderr()).With().Str("component", "recordctl").Logger()

	db, err := openDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := record.NewModel[model.Item](db, record.Options{
		Namer:         record.NamerFor(cfg.Record.Pluralize),
		Logger:        &log,
		VerifyColumns: cfg.Record.VerifyColumns,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, &session{cfg: cfg, log: log, db: db, items: items})
}

func runMigrate(cmd *cobra.Command) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		return migration.EnsureMigrated(ctx, s.db, s.log, s.cfg.Database.Host)
	})
}

func runList(cmd *cobra.Command) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		rows, err := s.items.GetAll(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), rows)
	})
}

func runGet(cmd *cobra.Command, id int64) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		rec, err := s.items.Find(ctx, id)
		if err != nil {
			return err
		}
		if !rec.Loaded() {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return writeJSON(cmd.OutOrStdout(), rec.Entity)
	})
}

func runSave(cmd *cobra.Command, id int64, name string, price float64) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		rec := s.items.New(model.Item{})
		if id > 0 {
			found, err := s.items.Find(ctx, id)
			if err != nil {
				return err
			}
			rec = found
		}
		rec.Entity.Name = name
		rec.Entity.Price = price

		res, err := rec.Save(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), struct {
			Result record.Result `json:"result"`
			Item   model.Item    `json:"item"`
		}{res, rec.Entity})
	})
}

func runColumns(cmd *cobra.Command) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		cols, err := s.items.Columns(ctx)
		if err != nil {
			return err
		}
		for _, c := range cols {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
