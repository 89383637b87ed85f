package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dev-tams/snapvault/internal/app"
	"github.com/dev-tams/snapvault/internal/config"
	"github.com/dev-tams/snapvault/internal/notify"
	"github.com/dev-tams/snapvault/internal/pgtools"
	"github.com/dev-tams/snapvault/internal/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "snapvault",
		Usage: "postgres snapshots to object storage, and back",
		Commands: []*cli.Command{
			{
				Name:  "backup",
				Usage: "run one backup pipeline",
				Flags: commonFlags(),
				Action: func(c *cli.Context) error {
					cfg, st, dispatcher, err := setup(c)
					if err != nil {
						return err
					}

					_, err = app.RunBackup(c.Context, cfg, st, pgtools.PostgresDumper{}, dispatcher, c.Bool("verbose"))
					return err
				},
			},
			{
				Name:  "restore",
				Usage: "restore a database from a stored snapshot",
				Flags: append(
					commonFlags(),
					&cli.StringFlag{
						Name:  "from",
						Usage: "object key to restore (defaults to RESTORE_FILE_KEY, then newest)",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, st, dispatcher, err := setup(c)
					if err != nil {
						return err
					}
					if from := c.String("from"); from != "" {
						cfg.RestoreKey = from
					}

					return app.RunRestore(c.Context, cfg, st, pgtools.PostgresRestorer{}, dispatcher, c.Bool("verbose"))
				},
			},
			{
				Name:  "daemon",
				Usage: "run backups on BACKUP_CRON_SCHEDULE",
				Flags: commonFlags(),
				Action: func(c *cli.Context) error {
					cfg, st, dispatcher, err := setup(c)
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					return app.RunDaemon(ctx, cfg, st, pgtools.PostgresDumper{}, dispatcher, c.Bool("verbose"))
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
	}
}

func setup(c *cli.Context) (*config.Config, storage.Store, *notify.Dispatcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := app.StoreFromConfig(c.Context, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	dispatcher, err := notify.NewDispatcher(cfg.Notify)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, st, dispatcher, nil
}
