package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tahcohcat/questagram/config"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func init() {
	//nolint:errcheck
	godotenv.Load()
}

func main() {
	app := &cli.App{
		Name:  "questagram",
		Usage: "level up by sharing your adventures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "directory holding config.yaml",
			},
		},
		Commands: []*cli.Command{
			commandServe(),
			commandMigrate(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var paths []string
	if dir := c.String("config"); dir != "" {
		paths = append(paths, dir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.GlobalLogLevel = logger.ParseLevel(cfg.Log.Level)
	return cfg, nil
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the web server and the maintenance scheduler",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "serve address (overrides server.addr)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.db.Close()

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           a.router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				a.log.Info(fmt.Sprintf("Questagram listening on %s", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				a.hub.Run(errCtx)
				return nil
			})

			errWg.Go(func() error {
				return a.scheduler.Run(errCtx)
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				a.log.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return errWg.Wait()
		},
	}
}

func commandMigrate() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the schema and seed quest definitions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "also install the demo adventurers (overrides seed.demo)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("demo") {
				cfg.Seed.Demo = c.Bool("demo")
			}
			cfg.LLM.Enabled = false

			a, err := newApp(c.Context, cfg)
			if err != nil {
				return err
			}
			defer a.db.Close()

			version, err := a.db.Version(c.Context)
			if err != nil {
				return err
			}
			a.log.Info(fmt.Sprintf("Schema at version %d", version))
			return nil
		},
	}
}
