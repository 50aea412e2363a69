package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes JSON messages to a single topic. Writes are async; failures
// are logged, never returned.
type Producer struct {
	l     *logrus.Entry
	w     messageWriter
	topic string
}

func NewProducer(l *logrus.Logger, brokers []string, topic string) *Producer {
	entry := l.WithFields(logrus.Fields{"component": "kafka", "topic": topic})

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Async:                  true,
		Logger:                 &infoLogger{l: entry},
		ErrorLogger:            &errorLogger{l: entry},
		AllowAutoTopicCreation: true,
	}

	return &Producer{l: entry, w: w, topic: topic}
}

// Publish marshals payload and writes it keyed by key, so events about the
// same entity land on the same partition.
func (p *Producer) Publish(ctx context.Context, key string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		p.l.Error(fmt.Sprintf("marshal event: %s", err))
		return
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: b,
		Topic: p.topic,
	})
	if err != nil {
		p.l.Error(fmt.Sprintf("write kafka message: %s", err))
	}
}

func (p *Producer) Close() {
	if err := p.w.Close(); err != nil {
		p.l.Error(fmt.Sprintf("close kafka writer: %s", err))
	}
}
