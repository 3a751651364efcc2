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
	"encoding/json"
	"fmt"
)

// Producer is a minimal abstraction over a Kafka client. We intentionally
// avoid importing a specific Kafka library here: a concrete client is
// supplied by the host. Using SubmissionID as the message key relies on the
// broker-side idempotent-producer contract (enable.idempotence=true) plus
// per-key ordering for deduplication.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// KafkaExporter publishes each record keyed by its SubmissionID.
type KafkaExporter struct {
	producer Producer
	topic    string
}

// NewKafkaExporter returns an exporter publishing onto topic.
func NewKafkaExporter(producer Producer, topic string) *KafkaExporter {
	if topic == "" {
		topic = "tiersched-exceptions"
	}
	return &KafkaExporter{producer: producer, topic: topic}
}

func (k *KafkaExporter) ExportBatch(ctx context.Context, records []Record) error {
	for _, rec := range records {
		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("exceptionstore: marshal submission=%s: %w", rec.SubmissionID, err)
		}
		if err := k.producer.Produce(ctx, k.topic, []byte(rec.SubmissionID), value); err != nil {
			return fmt.Errorf("exceptionstore: kafka produce submission=%s: %w", rec.SubmissionID, err)
		}
	}
	return nil
}

// LoggingProducer is a dependency-free stand-in for a real Kafka client, so
// the "kafka" adapter can be selected without a broker. Not for production
// use.
type LoggingProducer struct {
	Sink func(topic string, key, value []byte)
}

func (p LoggingProducer) Produce(ctx context.Context, topic string, key, value []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if p.Sink != nil {
		p.Sink(topic, key, value)
	}
	return nil
}
