package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"
	"golang.org/x/sync/errgroup"

	"github.com/vinayprograms/planner/internal/bus"
	"github.com/vinayprograms/planner/internal/config"
	"github.com/vinayprograms/planner/internal/server"
)

// Run starts the HTTP server, the NATS responder when a URL is configured,
// and the config watcher. It returns when interrupted.
func (c *ServeCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New().WithComponent("serve")
	rt, err := newRuntime(a.cfg)
	if err != nil {
		return err
	}

	addr := a.cfg.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.New(server.Config{
		Addr:        addr,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		RateLimit:   a.cfg.Server.RateLimit,
		RateBurst:   a.cfg.Server.RateBurst,
	}, rt.dispatcher, rt.toolset.Definitions, server.WithMetrics(rt.metrics, rt.registry))

	var tasks []task

	if a.cfg.NATS.URL != "" {
		nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name("planner"))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		responder := bus.NewResponder(rt.dispatcher)
		tasks = append(tasks, task{name: "nats", run: func(ctx context.Context) error {
			return responder.Serve(ctx, nc, a.cfg.NATS.Subject, a.cfg.NATS.Queue)
		}})
	}

	if c.Watch {
		if path := watchPath(a.configPath); path != "" {
			tasks = append(tasks, task{name: "config watcher", run: func(ctx context.Context) error {
				return config.Watch(ctx, path, func(cfg *config.Config, err error) {
					if err != nil {
						logger.Warn("config reload failed", map[string]interface{}{"error": err.Error()})
						return
					}
					rt.dispatcher.SetOptions(dispatchOptions(cfg))
					logger.Info("config reloaded", map[string]interface{}{"path": path})
				})
			}})
		}
	}

	tasks = append(tasks, task{name: "http", run: srv.ListenAndServe})
	return runTasks(ctx, logger, tasks...)
}

// task is a long-running part of serve. run returns nil once ctx is done.
type task struct {
	name string
	run  func(ctx context.Context) error
}

// runTasks runs every task until ctx is done. The first failure is logged
// when it happens and stops the rest.
func runTasks(ctx context.Context, logger *logging.Logger, tasks ...task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			if err := t.run(ctx); err != nil {
				logger.Error("task failed", map[string]interface{}{"task": t.name, "error": err.Error()})
				return fmt.Errorf("%s: %w", t.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// watchPath returns the config file to watch, or "" when none is in use.
func watchPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	abs, err := filepath.Abs(config.DefaultFile)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(abs); err != nil {
		return ""
	}
	return abs
}
