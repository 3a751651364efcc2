// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package exceptionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisEvaler abstracts the minimal surface needed from a Redis client, so
// tests can substitute a fake without a live server.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// GoRedisEvaler wraps a real github.com/redis/go-redis/v9 client.
type GoRedisEvaler struct{ c *redis.Client }

// NewGoRedisEvaler dials addr lazily (go-redis connects on first use).
func NewGoRedisEvaler(addr string) *GoRedisEvaler {
	return &GoRedisEvaler{c: redis.NewClient(&redis.Options{Addr: addr})}
}

func (g *GoRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.c.Eval(ctx, script, keys, args...).Result()
}

// RedisExporter exports exception records idempotently: a Lua script SETNXs
// a per-submission marker before pushing the record body onto a list, so a
// retried ExportBatch after a crash never double-writes.
type RedisExporter struct {
	client    RedisEvaler
	markerTTL time.Duration
	listKey   string
}

// NewRedisExporter returns an exporter pushing onto listKey, with markers
// expiring after markerTTL (defaults to 24h).
func NewRedisExporter(client RedisEvaler, listKey string, markerTTL time.Duration) *RedisExporter {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	if listKey == "" {
		listKey = "tiersched:exceptions"
	}
	return &RedisExporter{client: client, markerTTL: markerTTL, listKey: listKey}
}

const redisExportScript = `
local markerKey = KEYS[1]
local listKey = KEYS[2]
local body = ARGV[1]
local ttlSeconds = tonumber(ARGV[2])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('RPUSH', listKey, body)
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

func markerKey(id string) string { return fmt.Sprintf("tiersched:export:%s", id) }

// ExportBatch applies one EVAL per record; a retried batch with already-seen
// SubmissionIDs is a no-op for each duplicate.
func (r *RedisExporter) ExportBatch(ctx context.Context, records []Record) error {
	for _, rec := range records {
		if rec.SubmissionID == "" {
			return errors.New("exceptionstore: Record.SubmissionID must be set")
		}
		body := fmt.Sprintf("%s|%s|%s|%s", rec.SubmissionID, rec.Tier, rec.At.Format(time.RFC3339Nano), rec.Message)
		keys := []string{markerKey(rec.SubmissionID), r.listKey}
		if _, err := r.client.Eval(ctx, redisExportScript, keys, body, int(r.markerTTL.Seconds())); err != nil {
			return fmt.Errorf("exceptionstore: redis eval submission=%s: %w", rec.SubmissionID, err)
		}
	}
	return nil
}
