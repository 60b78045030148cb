package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/golang-jwt/jwt/v4"
	contacts "github.com/goliatone/go-connect-contacts"
	"github.com/goliatone/go-connect-contacts/adapters/gologger"
	"github.com/goliatone/go-connect-contacts/adapters/prometheus"
	"github.com/goliatone/go-connect-contacts/core"
	sqlstore "github.com/goliatone/go-connect-contacts/store/sql"
	"github.com/urfave/cli"
)

const envPrefix = "CONTACTSYNC_"

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "contactsync"
	app.Usage = "Apply contact add/update/delete rows to the Connect API"
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Process an input CSV and write the status report",
			Action: runAction,
			Flags: append(configFlags(),
				cli.StringFlag{
					Name:   "input, i",
					Usage:  "input CSV file",
					EnvVar: envPrefix + "INPUT",
				},
				cli.StringFlag{
					Name:   "output, o",
					Usage:  "output report CSV file",
					EnvVar: envPrefix + "OUTPUT",
				},
				cli.StringFlag{
					Name:   "history-dsn",
					Usage:  "persist run history to this database",
					EnvVar: envPrefix + "HISTORY_DSN",
				},
				cli.StringFlag{
					Name:   "history-driver",
					Usage:  "history database driver (sqlite3 or postgres)",
					EnvVar: envPrefix + "HISTORY_DRIVER",
				},
				cli.StringFlag{
					Name:   "log-file",
					Usage:  "write logs to a rotated file",
					EnvVar: envPrefix + "LOG_FILE",
				},
				cli.StringFlag{
					Name:   "metrics-file",
					Usage:  "write prometheus metrics to this textfile after the run",
					EnvVar: envPrefix + "METRICS_FILE",
				},
			),
		},
		{
			Name:   "mint-token",
			Usage:  "Mint a token and print its claims",
			Action: mintTokenAction,
			Flags: append(configFlags(),
				cli.StringFlag{
					Name:  "network, n",
					Usage: "WECHAT or WHATSAPP",
				},
			),
		},
		{
			Name:   "history",
			Usage:  "List recorded runs, or the rows of one run",
			Action: historyAction,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "history-dsn",
					Usage:  "run history database",
					EnvVar: envPrefix + "HISTORY_DSN",
				},
				cli.StringFlag{
					Name:   "history-driver",
					Value:  core.HistoryDriverSQLite,
					Usage:  "history database driver (sqlite3 or postgres)",
					EnvVar: envPrefix + "HISTORY_DRIVER",
				},
				cli.StringFlag{
					Name:  "run",
					Usage: "show the rows of this run id",
				},
				cli.StringFlag{
					Name:  "state",
					Usage: "only rows in this state (ok, error, skipped, failed)",
				},
				cli.IntFlag{
					Name:  "limit",
					Value: 20,
					Usage: "number of runs to list",
				},
			},
		},
	}
	return app
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "JSON config file",
			EnvVar: envPrefix + "CONFIG",
		},
		cli.StringFlag{
			Name:   "base-dir",
			Value:  ".",
			Usage:  "directory relative key and trust store paths resolve against",
			EnvVar: envPrefix + "BASE_DIR",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "trace, debug, info, warn or error",
			EnvVar: envPrefix + "LOG_LEVEL",
		},
	}
}

func runAction(c *cli.Context) error {
	input := strings.TrimSpace(c.String("input"))
	output := strings.TrimSpace(c.String("output"))
	if input == "" || output == "" {
		return cli.NewExitError("both --input and --output are required", 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, c, contacts.Config{
		HistoryDSN:    c.String("history-dsn"),
		HistoryDriver: c.String("history-driver"),
		LogLevel:      c.String("log-level"),
		LogFile:       c.String("log-file"),
		MetricsFile:   c.String("metrics-file"),
	})
	if err != nil {
		return err
	}

	provider, err := gologger.NewProvider(gologger.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	defer func() { _ = provider.Close() }()
	core.NewObserver(provider.GetLogger("contactsync"), nil).Debug(ctx, "config loaded", cfg.LogFields())

	opts := []contacts.Option{contacts.WithLoggerProvider(provider)}

	var recorder *prometheus.Recorder
	if strings.TrimSpace(cfg.MetricsFile) != "" {
		recorder = prometheus.NewRecorder()
		opts = append(opts, contacts.WithMetricsRecorder(recorder))
	}

	if strings.TrimSpace(cfg.HistoryDSN) != "" {
		store, closeStore, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver: cfg.HistoryDriver,
			DSN:    cfg.HistoryDSN,
		})
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()
		opts = append(opts, contacts.WithRunRecorder(store))
	}

	svc, err := contacts.New(cfg, opts...)
	if err != nil {
		return err
	}
	report, runErr := svc.ProcessFile(ctx, input, output)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			provider.GetLogger("contactsync").Error("metrics textfile write failed", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(c.App.Writer, "run %s: %d rows, %d ok, %d error, %d skipped, %d failed\n",
		report.RunID,
		report.Summary.Total,
		report.Summary.OK,
		report.Summary.Errors,
		report.Summary.Skipped,
		report.Summary.Failed,
	)
	return nil
}

func mintTokenAction(c *cli.Context) error {
	network, err := core.ParseNetwork(c.String("network"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	ctx := context.Background()
	cfg, err := loadConfig(ctx, c, contacts.Config{LogLevel: c.String("log-level")})
	if err != nil {
		return err
	}
	svc, err := contacts.New(cfg)
	if err != nil {
		return err
	}
	token, err := svc.Issuer().Sign(ctx, network)
	if err != nil {
		return err
	}

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token.Value, claims)
	if err != nil {
		return core.SigningError(err, "contactsync: decode minted token", nil)
	}
	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"network": network,
		"header":  parsed.Header,
		"claims":  claims,
	})
}

func historyAction(c *cli.Context) error {
	dsn := strings.TrimSpace(c.String("history-dsn"))
	if dsn == "" {
		return cli.NewExitError("--history-dsn is required", 2)
	}
	ctx := context.Background()
	store, closeStore, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver: c.String("history-driver"),
		DSN:    dsn,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	out := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	defer out.Flush()

	if runID := strings.TrimSpace(c.String("run")); runID != "" {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		rows, err := store.ListRows(ctx, run.ID, core.RowState(strings.ToLower(strings.TrimSpace(c.String("state")))))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "LINE\tNETWORK\tACTION\tEMAIL\tSTATE\tSTATUS\n")
		for _, row := range rows {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\t%s\n",
				row.Number,
				row.Record.ExternalNetwork,
				row.Record.ContactAction,
				row.Record.ContactEmail,
				row.State,
				row.Status,
			)
		}
		return nil
	}

	runs, err := store.ListRuns(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "RUN\tSTARTED\tSTATUS\tTOTAL\tOK\tERROR\tSKIPPED\tFAILED\tINPUT\n")
	for _, run := range runs {
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			run.Status,
			run.Summary.Total,
			run.Summary.OK,
			run.Summary.Errors,
			run.Summary.Skipped,
			run.Summary.Failed,
			run.InputPath,
		)
	}
	return nil
}

func loadConfig(ctx context.Context, c *cli.Context, runtime contacts.Config) (contacts.Config, error) {
	path := strings.TrimSpace(c.String("config"))
	if path == "" {
		return contacts.Config{}, cli.NewExitError("--config is required", 2)
	}
	bootstrap, err := gologger.NewProvider(gologger.Options{
		Level:  runtime.LogLevel,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return contacts.Config{}, err
	}
	return contacts.LoadConfig(ctx, path, c.String("base-dir"), runtime, bootstrap.GetLogger("config"))
}
