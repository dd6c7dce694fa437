package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/prism-xos/prism-core/internal/config"
	"github.com/prism-xos/prism-core/internal/export"
	"github.com/prism-xos/prism-core/internal/media/maintenance"
	"github.com/prism-xos/prism-core/internal/media/service"
	"github.com/prism-xos/prism-core/internal/paths"
	"github.com/prism-xos/prism-core/internal/storage/sqlite"
)

type environment struct {
	cfg    config.Config
	logger zerolog.Logger
	out    io.Writer
}

type command func(ctx context.Context, env *environment, args []string) error

var errUsage = errors.New("wrong number of arguments")

var commands = map[string]command{
	"status":      runStatus,
	"import":      runImport,
	"reset":       runReset,
	"clear-cache": runClearCache,
	"export":      runExport,
	"janitor":     runJanitor,
}

func (e *environment) open(ctx context.Context) (*sqlite.Manager, *paths.Resolver, error) {
	resolver, err := e.cfg.Paths()
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlite.Open(ctx, sqlite.Config{
		Paths:        resolver,
		BusyTimeout:  e.cfg.BusyTimeout,
		MaxReadConns: e.cfg.MaxReadConns,
		Logger:       e.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return db, resolver, nil
}

// recognition builds the service without an engine; commands here only
// manage stored records.
func (e *environment) recognition(db *sqlite.Manager) *service.Service {
	return service.New(sqlite.NewMediaRepo(db), sqlite.NewSubtitleRepo(db), nil, e.logger)
}

func runImport(ctx context.Context, env *environment, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	duration, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("duration %q: %w", args[1], err)
	}

	db, _, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := env.recognition(db).ImportMedia(ctx, args[0], duration, nil, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.out, m.ID)
	return nil
}

func runReset(ctx context.Context, env *environment, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	db, _, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return env.recognition(db).ResetRecognition(ctx, args[0])
}

func runStatus(ctx context.Context, env *environment, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	db, resolver, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	media := sqlite.NewMediaRepo(db)
	total, err := media.Count(ctx)
	if err != nil {
		return err
	}
	recent, err := media.FindRecent(ctx, sqlite.DefaultRecentLimit)
	if err != nil {
		return err
	}
	modelList, err := sqlite.NewModelRepo(db).List(ctx)
	if err != nil {
		return err
	}
	cacheBytes, err := resolver.CacheSize()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "root\t%s\n", resolver.Root())
	fmt.Fprintf(w, "database\t%s\n", db.Path())
	fmt.Fprintf(w, "audio cache\t%d bytes\n", cacheBytes)
	fmt.Fprintf(w, "media\t%d\n", total)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ID\tFILE\tPROGRESS")
	for _, m := range recent {
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\n", m.ID, m.FileName(), m.RecognitionProgress*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "MODEL\tBACKEND\tSIZE\tSTATUS")
	for _, m := range modelList {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.ID, m.Backend, m.Size, m.DownloadStatus)
	}
	return w.Flush()
}

func runClearCache(_ context.Context, env *environment, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	resolver, err := env.cfg.Paths()
	if err != nil {
		return err
	}
	before, err := resolver.CacheSize()
	if err != nil {
		return err
	}
	if err := resolver.ClearAudioCache(); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "cleared %d bytes from %s\n", before, resolver.AudioCache())
	return nil
}

func runExport(ctx context.Context, env *environment, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	mediaID, locale := args[0], args[1]

	db, resolver, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := sqlite.NewMediaRepo(db).Find(ctx, mediaID)
	if err != nil {
		return fmt.Errorf("media %s: %w", mediaID, err)
	}

	exporter := export.New(sqlite.NewSubtitleRepo(db), resolver.Exports(), env.logger)
	path, err := exporter.ExportMedia(ctx, *m, locale)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.out, path)
	return nil
}

func runJanitor(ctx context.Context, env *environment, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	db, resolver, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	j, err := maintenance.NewJanitor(maintenance.JanitorConfig{
		Cache:         resolver,
		DB:            db,
		Interval:      env.cfg.JanitorInterval,
		MaxCacheBytes: env.cfg.MaxCacheBytes,
		Logger:        env.logger,
	})
	if err != nil {
		return err
	}
	return j.Start(ctx)
}
