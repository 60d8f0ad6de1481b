package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Queue decouples the scheduler's audit publishing from whatever persists
// it: send records go in on one side, a handler drains them on the other.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// maxDeliveryAttempts bounds redelivery of a failing payload before it is
// dropped, mirroring the x-retry-count cap on the RabbitMQ side.
const maxDeliveryAttempts = 3

// InMemoryQueue dispatches payloads to in-process subscribers with retry.
// It backs single-binary runs and tests where no broker is available; the
// payload reaches handlers as the original value, not a JSON body.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// delivery carries one payload together with its retry budget.
type delivery struct {
	payload  any
	attempts int
}

// Publish hands the payload to every subscriber of the topic. Publishing
// with no subscribers is an error so a miswired audit pipeline fails loudly
// instead of silently dropping records.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.deliver(handler, delivery{payload: payload})
	}
	return nil
}

// deliver retries a failing handler with linear backoff until the attempt
// budget runs out.
func (q *InMemoryQueue) deliver(handler func(payload any) error, d delivery) {
	for {
		err := handler(d.payload)
		if err == nil {
			return
		}

		d.attempts++
		log.Printf("⚠️ delivery failed (attempt %d/%d): %v", d.attempts, maxDeliveryAttempts, err)
		if d.attempts >= maxDeliveryAttempts {
			log.Printf("⚠️ payload dropped after %d attempts: %+v", d.attempts, d.payload)
			return
		}
		time.Sleep(time.Duration(d.attempts*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
