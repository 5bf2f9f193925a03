package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agendametrics/apiserver/types"
)

const attrEventType = "event_type"

// EventPublisher publishes routine events as JSON to a single channel.
type EventPublisher struct {
	backend Backend
	channel string
}

func NewEventPublisher(backend Backend, channel string) *EventPublisher {
	return &EventPublisher{backend: backend, channel: channel}
}

func (p *EventPublisher) PublishRoutineEvent(ctx context.Context, event types.RoutineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode routine event: %w", err)
	}
	attrs := map[string]string{
		attrEventType: string(event.Type),
		"user_id":     event.UserID,
	}
	if _, err := p.backend.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
