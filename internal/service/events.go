package service

import (
	"context"
	"fmt"
	"time"

	"adminapi/internal/model"
)

// EventPublisher receives a ChangeEvent after every committed mutation.
// Implementations must not block the caller for long and never fail it.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ChangeEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.ChangeEvent) {}

// NopPublisher drops every event.
func NopPublisher() EventPublisher { return nopPublisher{} }

// FanOut forwards each event to every publisher in order.
type FanOut []EventPublisher

func (f FanOut) Publish(ctx context.Context, event model.ChangeEvent) {
	for _, p := range f {
		p.Publish(ctx, event)
	}
}

// MessageProducer is satisfied by broker.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, key string, payload any)
}

type producerPublisher struct {
	producer MessageProducer
}

// NewProducerPublisher sends change events to a message broker, keyed by entity and id.
func NewProducerPublisher(p MessageProducer) EventPublisher {
	return &producerPublisher{producer: p}
}

func (p *producerPublisher) Publish(ctx context.Context, event model.ChangeEvent) {
	p.producer.Publish(ctx, fmt.Sprintf("%s:%d", event.Entity, event.ID), event)
}

func changeEvent(entity, action string, id uint) model.ChangeEvent {
	return model.ChangeEvent{Entity: entity, Action: action, ID: id, At: time.Now().UTC()}
}
