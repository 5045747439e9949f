package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vukan322/devactivity/internal/cache"
	"github.com/vukan322/devactivity/internal/config"
	"github.com/vukan322/devactivity/internal/providers"
	"github.com/vukan322/devactivity/internal/providers/demo"
	githubprovider "github.com/vukan322/devactivity/internal/providers/github"
	gitlabprovider "github.com/vukan322/devactivity/internal/providers/gitlab"
	"github.com/vukan322/devactivity/internal/providers/snapshot"
	"github.com/vukan322/devactivity/internal/reconcile"
	"github.com/vukan322/devactivity/internal/render"
	"github.com/vukan322/devactivity/internal/watch"
)

// engine is an orchestrator together with the handle it reconciles and the
// resources it holds.
type engine struct {
	orchestrator *reconcile.Orchestrator
	handle       string
	snapshotPath string
	store        cache.Store
}

func (e *engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

func buildEngine(cfg *config.Config, logger *zap.Logger, useCache bool) (*engine, error) {
	sourceTimeout, err := cfg.SourceTimeout()
	if err != nil {
		return nil, err
	}

	paging := providers.Paging{PageSize: cfg.Sources.PageSize, MaxPages: cfg.Sources.MaxPages}
	e := &engine{handle: user}

	var (
		feed      providers.EventFeed
		snapshots providers.SnapshotSource
	)

	switch {
	case demoMode:
		d := demo.New(time.Now)
		feed, snapshots = d, d
		if e.handle == "" {
			e.handle = "demo"
		}
	case feedName == "gitlab":
		if cfg.GitLab.User != "" {
			e.handle = cfg.GitLab.User
		}
		feed = gitlabprovider.New(cfg.GitLab.Token, paging,
			gitlabprovider.WithBaseURL(cfg.GitLab.BaseURL),
			gitlabprovider.WithLogger(logger))
	case feedName == "github":
		if cfg.GitHub.Token == "" {
			logger.Warn("DEV_ACTIVITY_TOKEN not set, using unauthenticated GitHub API (rate limited)")
		}
		feed = githubprovider.New(cfg.GitHub.Token, paging,
			githubprovider.WithBaseURL(cfg.GitHub.BaseURL),
			githubprovider.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown feed %q (want github or gitlab)", feedName)
	}

	if e.handle == "" {
		return nil, errors.New("missing required flag: --user")
	}

	if !demoMode && cfg.Snapshot.Enabled {
		loader := snapshot.New(cfg.Snapshot.Location, snapshot.WithLogger(logger))
		snapshots = loader
		if !loader.IsRemote() {
			e.snapshotPath = loader.Location()
		}
	}

	opts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithSourceTimeout(sourceTimeout),
	}

	if useCache {
		store, err := openCache(cfg)
		if err != nil {
			return nil, err
		}
		if store != nil {
			e.store = store
			opts = append(opts, reconcile.WithCache(store))
		}
	}

	e.orchestrator = reconcile.New(feed, snapshots, opts...)
	return e, nil
}

func openCache(cfg *config.Config) (cache.Store, error) {
	ttl, err := cfg.CacheTTL()
	if err != nil {
		return nil, err
	}

	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemory(ttl, time.Now), nil
	case "sqlite":
		store, err := cache.OpenSQLite(cfg.Cache.Path, ttl, time.Now)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}

func (e *engine) run(ctx context.Context) reconcile.Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.orchestrator.Reconcile(ctx, e.handle)
}

func checkFormat() error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}
}

func encode(handle string, result reconcile.Result) ([]byte, error) {
	if format == "text" {
		return render.Text(handle, result)
	}
	return render.JSON(handle, result)
}

func write(w io.Writer, data []byte) error {
	if output == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output to %s: %w", output, err)
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	e, err := buildEngine(cfg, logger, true)
	if err != nil {
		return err
	}
	defer e.Close()

	result := e.run(cmd.Context())

	data, err := encode(e.handle, result)
	if err != nil {
		return err
	}
	if err := write(cmd.OutOrStdout(), data); err != nil {
		return err
	}

	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "devactivity: wrote %s for %q (snapshot=%s live=%s)\n",
			output, e.handle, result.Snapshot, result.Live)
	}
	return nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cfg, logger, true)
	if err != nil {
		return err
	}
	defer e.Close()

	result := e.run(cmd.Context())
	return render.Calendar(cmd.OutOrStdout(), result.FallbackCalendar())
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	// A cached snapshot would hide the redeposit being watched for.
	e, err := buildEngine(cfg, logger, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.snapshotPath == "" {
		return errors.New("watch needs a local snapshot file (snapshot.location must be a path)")
	}

	emit := func(ctx context.Context) {
		result := e.run(ctx)
		data, err := encode(e.handle, result)
		if err == nil {
			err = write(cmd.OutOrStdout(), data)
		}
		if err != nil {
			logger.Error("watch: write result", zap.Error(err))
			return
		}
		logger.Info("watch: result updated",
			zap.Stringer("snapshot", result.Snapshot),
			zap.Stringer("live", result.Live))
	}

	emit(cmd.Context())
	return watch.File(cmd.Context(), e.snapshotPath, watch.DefaultDebounce, logger, emit)
}
