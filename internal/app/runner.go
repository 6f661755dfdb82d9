package app

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // content fingerprint only
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/brokennews-extractor/internal/config"
	"github.com/samvad-hq/brokennews-extractor/internal/diaglog"
	"github.com/samvad-hq/brokennews-extractor/internal/domain"
	"github.com/samvad-hq/brokennews-extractor/internal/extractor"
	"github.com/samvad-hq/brokennews-extractor/internal/logger"
	"github.com/samvad-hq/brokennews-extractor/internal/storage"
	"github.com/samvad-hq/brokennews-extractor/pkg/profiles"
	"github.com/samvad-hq/brokennews-extractor/pkg/publishers"
)

var (
	// ErrNoInput is returned when no input path was supplied.
	ErrNoInput = errors.New("no input file specified")
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("input file not found")
)

// Summary reports the outcome of one run.
type Summary struct {
	Source          string
	Profile         string
	Candidates      int
	ValidItems      int
	Rejected        int
	Published       int
	OutputFile      string
	DiagnosticsFile string
}

// Runner wires the site profile, extractor, diagnostics file, run archive and
// publishers for single-document runs.
type Runner struct {
	cfg     *config.Config
	profile profiles.Profile
	fanout  *publishers.Fanout
	store   storage.Store
	log     logger.Logger
	now     func() time.Time
}

// NewRunner builds a runner from config.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	profileReg, err := profiles.LoadRegistry(cfg.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("load profiles registry: %w", err)
	}
	profile, ok := profileReg.ByID(cfg.Profile)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", cfg.Profile)
	}
	log.InfoObj("site profile selected", "profile", profile)

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		RunTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"run_ttl_seconds":          int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Runner{
		cfg:     cfg,
		profile: profile,
		fanout:  fanout,
		store:   store,
		log:     log,
		now:     time.Now,
	}, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	return publishers.NewFanout(pubClients), nil
}

// CheckInput reports ErrNoInput or ErrInputNotFound for an unusable input path.
// Callers run it before opening anything that writes to disk.
func CheckInput(inputPath string) error {
	if inputPath == "" {
		return ErrNoInput
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %s is a directory", inputPath)
	}
	return nil
}

// Run extracts news items from the HTML file at inputPath. A missing input is
// fatal and happens before any output is written. The diagnostics file is
// drained and closed before Run returns.
func (r *Runner) Run(ctx context.Context, inputPath string) (sum Summary, err error) {
	if r == nil {
		return Summary{}, fmt.Errorf("runner is not initialized")
	}
	if err := CheckInput(inputPath); err != nil {
		return Summary{}, err
	}

	diag, err := diaglog.Open(r.cfg.DiagnosticsFile)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if closeErr := diag.Close(); closeErr != nil {
			r.log.ErrorObj("diagnostics close failed", "error", closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("read input: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Summary{}, fmt.Errorf("parse html: %w", err)
	}

	start := r.now()
	report := extractor.New(r.profile.Rules(), diag, r.log).Extract(doc)

	if err := writeItems(r.cfg.OutputFile, report.Items); err != nil {
		return Summary{}, err
	}

	sum = Summary{
		Source:          inputPath,
		Profile:         r.profile.ID,
		Candidates:      report.Candidates,
		ValidItems:      len(report.Items),
		Rejected:        len(report.Rejections),
		OutputFile:      r.cfg.OutputFile,
		DiagnosticsFile: r.cfg.DiagnosticsFile,
	}

	r.archive(inputPath, raw, sum, start)
	sum.Published = r.publish(ctx, inputPath, report.Items, start)

	r.log.InfoObj("extraction completed", "extraction_summary", map[string]any{
		"source":      inputPath,
		"profile":     r.profile.ID,
		"broad_mode":  report.Broad,
		"candidates":  sum.Candidates,
		"valid_items": sum.ValidItems,
		"rejected":    sum.Rejected,
		"published":   sum.Published,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})

	return sum, nil
}

// archive records the run. Failures are logged only.
func (r *Runner) archive(source string, raw []byte, sum Summary, at time.Time) {
	key := source
	if abs, err := filepath.Abs(source); err == nil {
		key = abs
	}

	if prev, found, err := r.store.LastRun(key); err != nil {
		r.log.WarnObj("run archive lookup failed", "error", err)
	} else if found {
		r.log.InfoObj("previous run found", "previous_run", prev)
	}

	digest := sha1.Sum(raw) //nolint:gosec // content fingerprint only
	run := storage.Run{
		Source:      key,
		Digest:      hex.EncodeToString(digest[:]),
		Profile:     sum.Profile,
		Candidates:  sum.Candidates,
		ValidItems:  sum.ValidItems,
		Rejected:    sum.Rejected,
		ExtractedAt: at.UTC(),
	}
	if err := r.store.RecordRun(run); err != nil {
		r.log.WarnObj("run archive write failed", "error", err)
	}
}

// publish forwards items to the configured publishers. Failures are logged only.
func (r *Runner) publish(ctx context.Context, source string, items []domain.NewsItem, at time.Time) int {
	if r.fanout.Size() == 0 || len(items) == 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()

	evts := make([]publishers.Event, 0, len(items))
	for _, item := range items {
		evts = append(evts, publishers.NewEvent(source, r.profile.ID, item, at))
	}

	delivered, err := r.fanout.PublishAll(ctx, evts)
	if err != nil {
		r.log.ErrorObj("publishing failed", "publish_error", map[string]any{
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	return delivered
}

// Close releases publishers and storage.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// writeItems writes items as an indented JSON array without HTML escaping.
func writeItems(path string, items []domain.NewsItem) error {
	if items == nil {
		items = []domain.NewsItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
