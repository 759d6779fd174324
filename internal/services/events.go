package services

import (
	"log"

	"encore/pkg/rabbitmq"
)

// EventPublisher sends catalog lifecycle events to the message broker. It is
// satisfied by *rabbitmq.Client; a nil publisher disables eventing.
type EventPublisher interface {
	PublishScrapeCompleted(event rabbitmq.ScrapeEvent) error
}

// publishScrapeCompleted emits a catalog event when a broker is configured.
// Publish failures are logged, never surfaced: the scrape already committed,
// and eventing is advisory.
func publishScrapeCompleted(events EventPublisher, event rabbitmq.ScrapeEvent) {
	if events == nil {
		log.Println("Message broker is not configured. Skipping scrape event publication.")
		return
	}
	if err := events.PublishScrapeCompleted(event); err != nil {
		log.Printf("Warning: Failed to publish scrape event for %s: %v", event.Platform, err)
	}
}
