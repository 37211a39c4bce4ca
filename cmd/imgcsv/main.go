package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"imgcsv/client"
	"imgcsv/config"
	"imgcsv/export"
	"imgcsv/models"
	"imgcsv/obs"
	"imgcsv/poller"
	"imgcsv/session"
	"imgcsv/store"
	"imgcsv/ui"
)

const usage = `Usage: imgcsv <command> [flags]

Commands:
  submit    upload a CSV file and follow the job until it finishes
  status    check a job's status once
  watch     follow a job until it finishes
  download  fetch a completed job's output CSV
  history   list jobs submitted from this machine
`

func main() {
	// No .env file is fine; the system environment applies.
	_ = godotenv.Load()

	cfg := config.Load()

	var logger *zap.Logger
	if cfg.Env == "development" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	shutdownTracing := obs.InitTracing("imgcsv", logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app := newApp(cfg, logger)
	defer app.Close()

	var err error
	switch os.Args[1] {
	case "submit":
		err = app.submit(ctx, os.Args[2:])
	case "status":
		err = app.status(ctx, os.Args[2:])
	case "watch":
		err = app.watch(ctx, os.Args[2:])
	case "download":
		err = app.download(ctx, os.Args[2:])
	case "history":
		err = app.history(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *client.Client
	poller   *poller.Poller
	store    store.Store
	notifier session.Notifier
}

func newApp(cfg *config.Config, logger *zap.Logger) *app {
	svc := client.New(cfg.BaseURL, cfg.HTTPTimeout, logger)

	var history store.Store
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis history unavailable, falling back to file store",
				zap.String("addr", cfg.RedisAddr),
				zap.Error(err),
			)
		} else {
			history = rs
		}
	}
	if history == nil {
		fs, err := store.NewFileStore(cfg.HistoryPath)
		if err != nil {
			logger.Warn("Failed to load job history",
				zap.String("path", cfg.HistoryPath),
				zap.Error(err),
			)
			fs, _ = store.NewFileStore(cfg.HistoryPath + ".new")
		}
		history = fs
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   svc,
		poller:   poller.New(svc, cfg.PollInterval, logger),
		store:    history,
		notifier: ui.NewConsoleNotifier(os.Stderr),
	}
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	file := fs.String("file", "", "path to the CSV file to upload")
	webhook := fs.String("webhook", a.cfg.WebhookURL, "webhook URL the service notifies when processing finishes")
	exportCSV := fs.String("export", "", "write the product table to a local CSV file")
	exportXLSX := fs.String("xlsx", "", "write the product table to a local XLSX workbook")
	output := fs.String("output", "", "download the service's output CSV to this path on completion")
	_ = fs.Parse(args)

	sess := session.New(a.client, a.poller, a.notifier, *webhook, a.logger)
	if *file != "" {
		if err := sess.SelectFile(*file); err != nil {
			return err
		}
	}
	if err := sess.Submit(ctx); err != nil {
		return err
	}

	job := &models.Job{
		RequestID:   sess.RequestID(),
		FileName:    sess.FileName(),
		Status:      models.StatusProcessing,
		SubmittedAt: time.Now().UTC(),
	}
	if err := a.store.Save(ctx, job); err != nil {
		a.logger.Warn("Failed to record job history", zap.Error(err))
	}
	fmt.Printf("Request ID: %s\n", job.RequestID)

	final, trackErr := sess.Track(ctx)
	a.recordOutcome(ctx, job, final, trackErr)
	if trackErr != nil {
		return trackErr
	}

	ui.RenderProducts(os.Stdout, sess.Products())

	if err := a.exportResults(sess, *exportCSV, *exportXLSX); err != nil {
		return err
	}
	if *output != "" && final == models.StatusCompleted {
		return a.downloadTo(ctx, job.RequestID, *output)
	}
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	requestID := fs.String("request-id", "", "job request id")
	_ = fs.Parse(args)

	id := resolveRequestID(*requestID, fs.Args())
	resp, err := a.client.Status(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Request ID: %s\nStatus: %s\n", id, resp.Status)
	if resp.OutputCSVURL != "" {
		fmt.Printf("Output CSV: %s\n", resp.OutputCSVURL)
	}
	ui.RenderProducts(os.Stdout, resp.Products)

	a.refreshHistory(ctx, id, models.JobStatus(resp.Status))
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	requestID := fs.String("request-id", "", "job request id")
	exportCSV := fs.String("export", "", "write the product table to a local CSV file")
	exportXLSX := fs.String("xlsx", "", "write the product table to a local XLSX workbook")
	output := fs.String("output", "", "download the service's output CSV to this path on completion")
	_ = fs.Parse(args)

	id := resolveRequestID(*requestID, fs.Args())
	if id == "" {
		return client.ErrEmptyRequestID
	}

	sess := session.New(a.client, a.poller, a.notifier, "", a.logger)
	sess.Resume(id)

	final, err := sess.Track(ctx)
	if err != nil {
		return err
	}

	ui.RenderProducts(os.Stdout, sess.Products())
	a.refreshHistory(ctx, id, final)

	if err := a.exportResults(sess, *exportCSV, *exportXLSX); err != nil {
		return err
	}
	if *output != "" && final == models.StatusCompleted {
		return a.downloadTo(ctx, id, *output)
	}
	return nil
}

func (a *app) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	requestID := fs.String("request-id", "", "job request id")
	out := fs.String("o", "", "destination path (default processed_results_<id>.csv)")
	_ = fs.Parse(args)

	id := resolveRequestID(*requestID, fs.Args())
	if id == "" {
		return client.ErrEmptyRequestID
	}

	dst := *out
	if dst == "" {
		dst = fmt.Sprintf("processed_results_%s.csv", id)
	}
	return a.downloadTo(ctx, id, dst)
}

func (a *app) history(ctx context.Context, args []string) error {
	jobs, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs submitted yet.")
		return nil
	}
	ui.RenderJobs(os.Stdout, jobs)
	return nil
}

func (a *app) downloadTo(ctx context.Context, requestID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.client.Download(ctx, requestID, f)
	if err != nil {
		os.Remove(path)
		return err
	}
	fmt.Printf("Saved output CSV to %s (%d bytes)\n", path, n)
	return nil
}

func (a *app) exportResults(sess *session.Session, csvPath, xlsxPath string) error {
	products := sess.Products()
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, products); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Exported product table to %s\n", csvPath)
	}
	if xlsxPath != "" {
		data, err := export.WriteXLSX(products)
		if err != nil {
			return err
		}
		if err := os.WriteFile(xlsxPath, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Exported product table to %s\n", xlsxPath)
	}
	return nil
}

// recordOutcome updates the history entry after tracking ends. A cancelled
// or failed track leaves the last known status in place.
func (a *app) recordOutcome(ctx context.Context, job *models.Job, final models.JobStatus, trackErr error) {
	if trackErr != nil || !final.Terminal() {
		return
	}
	now := time.Now().UTC()
	job.Status = final
	job.CompletedAt = &now
	if err := a.store.Save(ctx, job); err != nil {
		a.logger.Warn("Failed to update job history", zap.Error(err))
	}
}

func (a *app) refreshHistory(ctx context.Context, requestID string, status models.JobStatus) {
	job, err := a.store.Get(ctx, requestID)
	if err != nil {
		return
	}
	job.Status = status
	if status.Terminal() && job.CompletedAt == nil {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	if err := a.store.Save(ctx, job); err != nil {
		a.logger.Warn("Failed to update job history", zap.Error(err))
	}
}

func resolveRequestID(flagValue string, args []string) string {
	if flagValue != "" {
		return flagValue
	}
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
