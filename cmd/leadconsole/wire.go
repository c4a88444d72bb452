package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/client/archive"
	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/cli"
	"github.com/dmitrijs2005/leadconsole/internal/client/config"
	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/journal"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
	"github.com/dmitrijs2005/leadconsole/internal/clock"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

// promptToken is the --token value that asks for the token on the terminal.
const promptToken = "-"

// journalRetention is how long mutation journal entries are kept.
const journalRetention = 30 * 24 * time.Hour

// console holds everything a command needs. Close releases it.
type console struct {
	cfg      *config.Config
	logger   logging.Logger
	notices  *notice.Center
	client   gateway.Client
	pinger   gateway.Pinger
	journal  *journal.Journal
	exporter *archive.Exporter

	closers []func() error
}

func openConsole(ctx context.Context, cfg *config.Config) (c *console, err error) {
	c = &console{cfg: cfg}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	logOut, closeLog, err := openLog(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeLog)
	logger, err := logging.New(logOut, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}
	c.logger = logger
	c.notices = notice.NewCenter(clock.Real(), logger)

	ts, err := tokenSource(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	opts := []gateway.Option{
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		gateway.WithLogger(logger),
	}
	if ts != nil {
		opts = append(opts, gateway.WithTokenSource(ts))
	}
	if cfg.ValidateSchemas {
		v, err := gateway.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("loading snapshot schemas: %w", err)
		}
		opts = append(opts, gateway.WithValidator(v))
	}
	client := gateway.NewHTTPClient(cfg.APIBaseURL, opts...)
	c.client = client
	c.closers = append(c.closers, client.Close)
	c.pinger = client

	if cfg.HealthAddr != "" {
		probe, err := gateway.NewHealthProbe(cfg.HealthAddr, cfg.HealthService)
		if err != nil {
			return nil, err
		}
		c.pinger = probe
		c.closers = append(c.closers, probe.Close)
	}

	if cfg.JournalDSN != "" {
		j, err := journal.Open(ctx, cfg.JournalDriver, cfg.JournalDSN)
		if err != nil {
			return nil, err
		}
		c.journal = j
		c.closers = append(c.closers, j.Close)
		if n, err := j.Prune(ctx, time.Now().Add(-journalRetention)); err != nil {
			logger.Warn(ctx, "pruning journal", "error", err)
		} else if n > 0 {
			logger.Info(ctx, "pruned journal", "entries", n)
		}
	}

	ex, err := newExporter(ctx, cfg.Export)
	if err != nil {
		return nil, err
	}
	c.exporter = ex
	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (c *console) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *console) env() services.Env {
	e := services.Env{
		Client:       c.client,
		Notices:      c.notices,
		Logger:       c.logger,
		Clock:        clock.Real(),
		ReportsDelay: c.cfg.ReportsDelay,
	}
	if c.journal != nil {
		e.Recorder = c.journal
	}
	return e
}

func (c *console) canvas() board.Rect {
	return board.Rect{Width: float64(c.cfg.CanvasWidth), Height: float64(c.cfg.CanvasHeight)}
}

func (c *console) app(in io.Reader, out io.Writer) *cli.App {
	d := cli.Deps{
		Env:     c.env(),
		Notices: c.notices,
		Pinger:  c.pinger,
		Canvas:  c.canvas(),
		In:      in,
		Out:     out,
	}
	if c.journal != nil {
		d.Journal = c.journal
	}
	if c.exporter != nil {
		d.Exporter = c.exporter
	}
	return cli.NewApp(d)
}

// openLog opens the log destination. "-" is stderr.
func openLog(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f.Close, nil
}

// tokenSource picks how requests are authenticated: a minted JWT when a
// secret is configured, a static token otherwise. No token means no
// Authorization header.
func tokenSource(cfg *config.Config, prompt io.Writer) (gateway.TokenSource, error) {
	switch {
	case cfg.JWTSecret != "":
		return &gateway.HMACTokenSource{
			Secret:  []byte(cfg.JWTSecret),
			Subject: cfg.JWTSubject,
			TTL:     cfg.JWTTTL,
		}, nil
	case cfg.APIToken == promptToken:
		if !cli.StdinIsTerminal() {
			return nil, errors.New("--token - needs a terminal")
		}
		tok, err := cli.GetSecret("API token", prompt)
		if err != nil {
			return nil, fmt.Errorf("reading token: %w", err)
		}
		return gateway.StaticToken(tok), nil
	case cfg.APIToken != "":
		return gateway.StaticToken(cfg.APIToken), nil
	}
	return nil, nil
}

// newExporter builds the configured export sink. It returns nil when
// exports are not configured.
func newExporter(ctx context.Context, ec config.ExportConfig) (*archive.Exporter, error) {
	var sink archive.Sink
	switch ec.Sink {
	case config.SinkDir:
		if ec.Dir == "" {
			return nil, nil
		}
		d, err := archive.NewDirSink(ec.Dir)
		if err != nil {
			return nil, err
		}
		sink = d
	case config.SinkS3:
		s, err := archive.NewS3Sink(ctx, archive.S3Options{
			Bucket:    ec.Bucket,
			Prefix:    ec.Prefix,
			Region:    ec.Region,
			Endpoint:  ec.Endpoint,
			AccessKey: ec.AccessKey,
			SecretKey: ec.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		sink = s
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", ec.Sink)
	}

	recipients, err := archive.ParseRecipients(ec.Recipients)
	if err != nil {
		return nil, err
	}
	return archive.NewExporter(sink, archive.WithRecipients(recipients...)), nil
}
