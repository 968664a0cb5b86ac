package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/container"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
)

func main() {
	app := &cli.App{
		Name:  "course-agent",
		Usage: "local progress agent for the course site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"AGENT_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			syncCommand(),
			stateCommand(),
			resetCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		config.Logger.WithError(err).Fatal("course-agent failed")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		os.Setenv("AGENT_CONFIG", path)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.InitLogger(cfg)
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the agent API and snapshot stream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides HTTP_ADDR"},
			&cli.DurationFlag{Name: "shutdown-timeout", Value: 10 * time.Second},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			ct, err := container.New(ctx, cfg)
			if err != nil {
				return err
			}
			if err := ct.Engine.Start(ctx); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           ct.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				config.Logger.WithFields(logrus.Fields{
					"addr":   cfg.HTTP.Addr,
					"remote": ct.Remote.BaseURL(),
					"cache":  cfg.Cache.Backend,
				}).Info("Agent listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					_ = ct.Shutdown(context.Background())
					return err
				}
			case <-ctx.Done():
			}

			config.Logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				config.Logger.WithError(err).Warn("HTTP shutdown incomplete")
			}
			return ct.Shutdown(shutdownCtx)
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "reconcile once with the course service and print the result",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ct, err := container.New(c.Context, cfg)
			if err != nil {
				return err
			}
			defer ct.Shutdown(context.Background())

			state := ct.SyncContainer.State
			state.Load(c.Context)
			if err := ct.SyncContainer.Service.Reconcile(c.Context); err != nil {
				return err
			}
			return printJSON(syncer.ToProgressView(state.Snapshot()))
		},
	}
}

func stateCommand() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "print the cached progress without contacting the course service",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ct, err := container.New(c.Context, cfg)
			if err != nil {
				return err
			}
			defer ct.Close()

			return printJSON(syncer.ToProgressView(ct.Store.Load(c.Context)))
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "forget the cached progress and the persisted learner identity",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ct, err := container.New(c.Context, cfg)
			if err != nil {
				return err
			}
			defer ct.Close()

			if err := ct.Store.Clear(c.Context); err != nil {
				return fmt.Errorf("clear progress: %w", err)
			}
			if err := ct.AuthContainer.Resolver.Forget(c.Context); err != nil {
				return fmt.Errorf("forget identity: %w", err)
			}
			config.Logger.Info("Local progress and identity cleared")
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
