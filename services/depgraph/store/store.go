// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists analysis runs in an embedded BadgerDB.
//
// Layout:
//
//	run/meta/<id>  JSON RunMeta (small, listed)
//	run/doc/<id>   JSON export.Document (large, loaded on demand)
//	run/latest     id of the most recently saved run
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/depgraph/services/depgraph/export"
	"github.com/AleutianAI/depgraph/services/depgraph/summary"
)

const (
	metaPrefix = "run/meta/"
	docPrefix  = "run/doc/"
	latestKey  = "run/latest"
)

// Sentinel errors for store operations.
var (
	// ErrRunNotFound is returned when no run matches an ID or prefix.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousID is returned when an ID prefix matches several runs.
	ErrAmbiguousID = errors.New("run id prefix is ambiguous")

	// ErrPathRequired is returned when a persistent store has no path.
	ErrPathRequired = errors.New("path is required for persistent store")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// StoreError records the operation and run that failed.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// RunMeta is the listing record of a saved run.
type RunMeta struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Root        string          `json:"root"`
	Fingerprint string          `json:"fingerprint"`
	Summary     summary.Summary `json:"summary"`
	Failures    int             `json:"failures"`
	Incomplete  bool            `json:"incomplete,omitempty"`
}

// Run is a saved run with its full document.
type Run struct {
	RunMeta
	Document export.Document `json:"document"`
}

// Config holds configuration for the store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. If nil they are discarded.
	Logger *slog.Logger

	// GCDiscardRatio is the value log GC threshold applied on Close.
	// Zero disables GC.
	GCDiscardRatio float64
}

// DefaultConfig returns a persistent configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid generator for run IDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// Store is a run history backed by BadgerDB.
//
// Thread Safety: Safe for concurrent use; BadgerDB serializes transactions.
type Store struct {
	db     *badger.DB
	cfg    Config
	now    func() time.Time
	newID  func() string
	closed atomic.Bool
}

// Open opens or creates a store.
//
// # Description
//
// Creates the directory when needed. BadgerDB holds an exclusive lock on
// the directory, so a second Open of the same path fails until the first
// store is closed.
//
// # Outputs
//
//   - *Store: Caller must call Close when done.
//   - error: ErrPathRequired, or a *StoreError wrapping the badger error.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrPathRequired
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, &StoreError{Op: "open", Err: fmt.Errorf("create directory %s: %w", cfg.Path, err)}
		}
		bopts = badger.DefaultOptions(cfg.Path)
	}
	bopts = bopts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	s := &Store{
		db:    db,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close runs a final value log GC pass (persistent stores only) and
// closes the database. Safe to call more than once.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if !s.cfg.InMemory && s.cfg.GCDiscardRatio > 0 {
		if err := s.db.RunValueLogGC(s.cfg.GCDiscardRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) && s.cfg.Logger != nil {
			s.cfg.Logger.Warn("badger value log GC error", slog.String("error", err.Error()))
		}
	}
	if err := s.db.Close(); err != nil {
		return &StoreError{Op: "close", Err: err}
	}
	return nil
}

// Save persists doc as a new run and marks it latest.
//
// # Inputs
//
//   - ctx: Checked before the write transaction starts.
//   - doc: The exported run. Its Fingerprint and Summary are copied into
//     the listing record.
//
// # Outputs
//
//   - RunMeta: The stored listing record, with the new ID.
//   - error: Non-nil on context cancellation or write failure.
func (s *Store) Save(ctx context.Context, doc export.Document) (RunMeta, error) {
	meta := RunMeta{
		ID:          s.newID(),
		CreatedAt:   s.now().UTC(),
		Root:        doc.Root,
		Fingerprint: doc.Fingerprint,
		Summary:     doc.Summary,
		Failures:    len(doc.Failures),
		Incomplete:  len(doc.Skipped) > 0,
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return RunMeta{}, &StoreError{Op: "save", ID: meta.ID, Err: err}
	}
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return RunMeta{}, &StoreError{Op: "save", ID: meta.ID, Err: err}
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set([]byte(metaPrefix+meta.ID), metaBytes); err != nil {
			return err
		}
		if err := txn.Set([]byte(docPrefix+meta.ID), docBytes); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(meta.ID))
	})
	if err != nil {
		return RunMeta{}, &StoreError{Op: "save", ID: meta.ID, Err: err}
	}
	return meta, nil
}

// Load returns the run whose ID equals id or, failing that, is the only
// ID starting with id.
func (s *Store) Load(ctx context.Context, id string) (*Run, error) {
	var run *Run
	err := s.view(ctx, func(txn *badger.Txn) error {
		full, err := resolveID(txn, id)
		if err != nil {
			return err
		}
		run, err = readRun(txn, full)
		return err
	})
	if err != nil {
		return nil, &StoreError{Op: "load", ID: id, Err: err}
	}
	return run, nil
}

// Latest returns the most recently saved run.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	var run *Run
	err := s.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		run, err = readRun(txn, string(id))
		return err
	})
	if err != nil {
		return nil, &StoreError{Op: "latest", Err: err}
	}
	return run, nil
}

// List returns every run's listing record, newest first. Ties on
// CreatedAt are broken by ID.
func (s *Store) List(ctx context.Context) ([]RunMeta, error) {
	runs := make([]RunMeta, 0)
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanMeta(txn, metaPrefix, func(meta RunMeta) {
			runs = append(runs, meta)
		})
	})
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. The latest pointer always survives because it names the
// newest run.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	runs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(runs) <= keep {
		return 0, nil
	}

	victims := runs[keep:]
	err = s.update(ctx, func(txn *badger.Txn) error {
		for _, meta := range victims {
			if err := txn.Delete([]byte(metaPrefix + meta.ID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(docPrefix + meta.ID)); err != nil {
				return err
			}
		}
		if keep == 0 {
			return txn.Delete([]byte(latestKey))
		}
		return nil
	})
	if err != nil {
		return 0, &StoreError{Op: "prune", Err: err}
	}
	return len(victims), nil
}

func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return s.db.Update(fn)
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return s.db.View(fn)
}

func resolveID(txn *badger.Txn, id string) (string, error) {
	if id == "" {
		return "", ErrRunNotFound
	}
	if _, err := txn.Get([]byte(metaPrefix + id)); err == nil {
		return id, nil
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return "", err
	}

	matches := make([]string, 0, 1)
	err := scanMeta(txn, metaPrefix+id, func(meta RunMeta) {
		matches = append(matches, meta.ID)
	})
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", ErrRunNotFound
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, strings.Join(matches, ", "))
	}
}

func scanMeta(txn *badger.Txn, prefix string, fn func(RunMeta)) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		var meta RunMeta
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
		if err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		fn(meta)
	}
	return nil
}

func readRun(txn *badger.Txn, id string) (*Run, error) {
	run := &Run{}
	if err := readJSON(txn, metaPrefix+id, &run.RunMeta); err != nil {
		return nil, err
	}
	if err := readJSON(txn, docPrefix+id, &run.Document); err != nil {
		return nil, err
	}
	return run, nil
}

func readJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrRunNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, v); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return nil
	})
}
