// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache persists per-file lint results in BadgerDB.
//
// Storage layout:
//
//	lint/result/v2/{ruleSetHash}:{dialect}:{contentHash}  ->  JSON engine.CachedResult
//
// Entries expire through BadgerDB's native TTL. Any change to the enabled
// rules or their severities changes the rule set hash, so stale entries
// become unreachable without explicit invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

// DefaultTTL is the lifetime of a cached result.
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "lint/result/v2/"

var tracer = otel.Tracer("jsxlint.cache")

// Store is a BadgerDB-backed engine.ResultCache.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL. Zero keeps the default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (or creates) a result cache in dir.
//
// Inputs:
//   - dir: Directory for BadgerDB files. Created if missing.
//   - opts: Store options.
//
// Outputs:
//   - *Store: Open store. Callers must Close it.
//   - error: Non-nil if the database cannot be opened (e.g. locked by
//     another process).
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache: dir must not be empty")
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}
	return newStore(db, opts...), nil
}

// OpenInMemory opens a cache that lives only for the process lifetime.
func OpenInMemory(opts ...Option) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("cache: open in-memory: %w", err)
	}
	return newStore(db, opts...), nil
}

func newStore(db *badger.DB, opts ...Option) *Store {
	s := &Store{db: db, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached outcome for key or engine.ErrCacheMiss.
func (s *Store) Get(ctx context.Context, key string) (*engine.CachedResult, error) {
	_, span := tracer.Start(ctx, "cache.Get")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return engine.ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy value: %w", err)
		}
		return nil
	})
	if errors.Is(err, engine.ErrCacheMiss) {
		span.SetAttributes(attribute.Bool("hit", false))
		return nil, engine.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache load: %w", err)
	}

	var res engine.CachedResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	if res.Diagnostics == nil {
		res.Diagnostics = []engine.Diagnostic{}
	}

	span.SetAttributes(attribute.Bool("hit", true), attribute.Int("diagnostics", len(res.Diagnostics)))
	return &res, nil
}

// Put stores res under key with the configured TTL.
func (s *Store) Put(ctx context.Context, key string, res *engine.CachedResult) error {
	_, span := tracer.Start(ctx, "cache.Put")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	entry := engine.CachedResult{Diagnostics: []engine.Diagnostic{}}
	if res != nil {
		entry = *res
		if entry.Diagnostics == nil {
			entry.Diagnostics = []engine.Diagnostic{}
		}
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(keyPrefix+key), raw).WithTTL(s.ttl))
	})
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	s.logger.Debug("lint cache: saved",
		slog.String("key", key),
		slog.Int("diagnostics", len(entry.Diagnostics)),
		slog.Bool("syntax_errors", entry.SyntaxErrors),
		slog.Duration("ttl", s.ttl))
	return nil
}

// Clear removes every cached result.
func (s *Store) Clear() error {
	if err := s.db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Len counts live entries.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache len: %w", err)
	}
	return n, nil
}

// Close flushes and closes the database. Value-log GC runs first so expired
// entries do not accumulate on disk across runs.
func (s *Store) Close() error {
	if !s.db.Opts().InMemory {
		for s.db.RunValueLogGC(0.5) == nil {
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("cache close: %w", err)
	}
	return nil
}

var _ engine.ResultCache = (*Store)(nil)
