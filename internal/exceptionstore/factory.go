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
	"errors"
	"fmt"
	"time"
)

// Options holds the knobs needed to build any of the adapters from a single
// string selector, the way a CLI flag would.
type Options struct {
	RedisAddr      string
	RedisListKey   string
	RedisMarkerTTL time.Duration
	FilePath       string
}

// Build constructs an Exporter for the named adapter:
//   - "", "mock":  in-process, deduplicated by SubmissionID
//   - "file":      JSONL append to Options.FilePath
//   - "redis":     idempotent Redis adapter; requires Options.RedisAddr
//   - "kafka":     logs to stdout; wire a real Producer for production
//   - "postgres":  not wired for the demo binary; returns an error
func Build(adapter string, opts Options) (Exporter, error) {
	switch adapter {
	case "", "mock":
		return NewMockExporter(), nil
	case "file":
		if opts.FilePath == "" {
			return nil, errors.New("exceptionstore: file adapter requires FilePath")
		}
		return NewFileExporter(opts.FilePath)
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("exceptionstore: redis adapter requires RedisAddr")
		}
		evaler := NewGoRedisEvaler(opts.RedisAddr)
		return NewRedisExporter(evaler, opts.RedisListKey, opts.RedisMarkerTTL), nil
	case "kafka":
		producer := LoggingProducer{Sink: func(topic string, key, value []byte) {
			fmt.Printf("[kafka-demo] topic=%s key=%s value=%s\n", topic, key, value)
		}}
		return NewKafkaExporter(producer, ""), nil
	case "postgres":
		return nil, errors.New("exceptionstore: postgres adapter is not enabled in the demo build; wire a *sql.DB via NewPostgresExporter")
	default:
		return nil, fmt.Errorf("exceptionstore: unknown adapter %q", adapter)
	}
}
