package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a local archive of extraction runs.

// Run records the outcome of one extraction pass over a source file.
type Run struct {
	Source      string    `json:"source"`
	Digest      string    `json:"digest"`
	Profile     string    `json:"profile"`
	Candidates  int       `json:"candidates"`
	ValidItems  int       `json:"valid_items"`
	Rejected    int       `json:"rejected"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Store archives runs keyed by source. Records are history only.
type Store interface {
	Close() error
	RecordRun(run Run) error
	LastRun(source string) (Run, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RunTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRunTTL          = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RunTTL <= 0 {
		opts.RunTTL = defaultRunTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) RecordRun(Run) error               { return nil }
func (noopStore) LastRun(string) (Run, bool, error) { return Run{}, false, nil }
