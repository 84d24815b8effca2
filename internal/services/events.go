package services

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Routing keys of the domain events published by the services.
const (
	EventUserRegistered  = "user.registered"
	EventCartItemAdded   = "cart.item_added"
	EventCartItemUpdated = "cart.item_updated"
	EventCartItemRemoved = "cart.item_removed"
	EventCartCleared     = "cart.cleared"
)

// EventPublisher delivers a JSON encoded event under a routing key.
// *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// publishEvent is best effort: failures are logged and never returned to the caller.
func publishEvent(pub EventPublisher, routingKey string, payload map[string]interface{}) {
	if pub == nil {
		return
	}
	payload["event"] = routingKey
	payload["occurred_at"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("event", routingKey).Msg("failed to marshal event")
		return
	}
	if err := pub.Publish(routingKey, body); err != nil {
		log.Warn().Err(err).Str("event", routingKey).Msg("failed to publish event")
	}
}
