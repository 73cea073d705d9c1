// Package core provides the building blocks of the strata data-access layer.
// This file defines the middleware system, which applies cross-cutting
// concerns (logging, caching, auditing) to every statement a DB executes.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Operation distinguishes the two statement kinds flowing through the
// middleware chain.
type Operation string

const (
	// OperationQuery is a row-returning statement; its payload is a
	// *QueryPayload.
	OperationQuery Operation = "query"
	// OperationExec is a non-row statement; its payload is an *ExecPayload.
	OperationExec Operation = "exec"
)

// Handler is the function signature executed by the statement pipeline.
// The innermost handler runs the statement on the Executor and fills the
// payload's result field.
type Handler func(ctx context.Context, op Operation, payload any) error

// Middleware wraps a Handler with additional logic, decorator style.
// Middlewares are registered per DB and run for every statement, including
// the engine's batched relation queries.
type Middleware func(next Handler) Handler

// chainMiddlewares applies the middlewares to the final handler. The most
// recently registered middleware runs first.
func chainMiddlewares(middlewareList []Middleware, final Handler) Handler {
	h := final
	for i := len(middlewareList) - 1; i >= 0; i-- {
		h = middlewareList[i](h)
	}
	return h
}

// LogMiddleware logs every statement with its table, SQL, parameter count,
// timing and outcome.
//
// Example:
//
//	db.Use(core.LogMiddleware(slog.Default()))
func LogMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, op Operation, payload any) error {
			start := time.Now()
			err := next(ctx, op, payload)
			elapsed := time.Since(start)

			attrs := []any{slog.String("op", string(op)), slog.Duration("elapsed", elapsed)}
			switch p := payload.(type) {
			case *QueryPayload:
				attrs = append(attrs,
					slog.String("table", p.Table),
					slog.String("sql", p.SQL),
					slog.Int("params", len(p.Args)),
					slog.Int("rows", len(p.Rows)))
			case *ExecPayload:
				attrs = append(attrs,
					slog.String("table", p.Table),
					slog.String("sql", p.SQL),
					slog.Int("params", len(p.Args)),
					slog.Int64("affected", p.Affected))
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				logger.ErrorContext(ctx, "statement failed", attrs...)
				return err
			}
			logger.DebugContext(ctx, "statement executed", attrs...)
			return nil
		}
	}
}

// Cache is a pluggable store used by CacheMiddleware.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// memoryCache is a simple in-memory Cache: a map behind a RWMutex with
// per-entry expiration.
type memoryCache struct {
	data  map[string]memoryEntry
	mutex sync.RWMutex
}

type memoryEntry struct {
	value      any
	expiration time.Time
}

// NewMemoryCache returns an in-memory Cache instance.
func NewMemoryCache() Cache {
	return &memoryCache{data: make(map[string]memoryEntry)}
}

// Get retrieves a value by key, reporting false for missing or expired
// entries.
func (c *memoryCache) Get(key string) (any, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	entry, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !entry.expiration.IsZero() && time.Now().After(entry.expiration) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the given TTL. A zero TTL never expires; a
// negative TTL stores an already-expired entry.
func (c *memoryCache) Set(key string, value any, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	var exp time.Time
	if ttl != 0 {
		exp = time.Now().Add(ttl)
	}
	c.data[key] = memoryEntry{value: value, expiration: exp}
}

// CacheMiddleware serves repeated row-returning statements from a cache,
// keyed on the compiled SQL and its parameters. Rows are shallow-copied in
// and out so later in-place relation stitching cannot corrupt the cache.
//
// Example:
//
//	db.Use(core.CacheMiddleware(core.NewMemoryCache(), time.Minute))
func CacheMiddleware(cache Cache, ttl time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, op Operation, payload any) error {
			qp, ok := payload.(*QueryPayload)
			if op != OperationQuery || !ok {
				return next(ctx, op, payload)
			}

			key := qp.SQL + "|" + fmt.Sprintf("%v", qp.Args)
			if cached, hit := cache.Get(key); hit {
				qp.Rows = copyRows(cached.([]Row))
				return nil
			}

			if err := next(ctx, op, payload); err != nil {
				return err
			}
			cache.Set(key, copyRows(qp.Rows), ttl)
			return nil
		}
	}
}

func copyRows(rows []Row) []Row {
	copied := make([]Row, len(rows))
	for i, row := range rows {
		dup := make(Row, len(row))
		for k, v := range row {
			dup[k] = v
		}
		copied[i] = dup
	}
	return copied
}
