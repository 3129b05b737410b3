// Package cache holds the grade-row read-model cache. Every mutating call in
// the grades service invalidates the owning resident's entry; readers either
// hit a fresh copy or recompute.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/platform/logger"
)

const (
	rowKeyPrefix = "resimed:graderows:"
	rowTTL       = 5 * time.Minute
)

// Rows caches computed grade rows per resident in Redis. Failures degrade to
// recomputation, never to an error for the caller.
type Rows struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRows(client *redis.Client, log *logger.Logger) *Rows {
	return &Rows{client: client, log: log}
}

func (c *Rows) Get(ctx context.Context, residentID string) ([]grades.GradeRow, bool) {
	raw, err := c.client.Get(ctx, rowKeyPrefix+residentID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("row cache get failed", "resident_id", residentID, "err", err)
		}
		return nil, false
	}
	var rows []grades.GradeRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *Rows) Set(ctx context.Context, residentID string, rows []grades.GradeRow) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, rowKeyPrefix+residentID, raw, rowTTL).Err(); err != nil {
		c.log.Warn("row cache set failed", "resident_id", residentID, "err", err)
	}
}

func (c *Rows) Invalidate(ctx context.Context, residentID string) {
	if err := c.client.Del(ctx, rowKeyPrefix+residentID).Err(); err != nil {
		c.log.Warn("row cache invalidate failed", "resident_id", residentID, "err", err)
	}
}

// Noop disables caching; every read recomputes.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]grades.GradeRow, bool) { return nil, false }
func (Noop) Set(context.Context, string, []grades.GradeRow)        {}
func (Noop) Invalidate(context.Context, string)                    {}
