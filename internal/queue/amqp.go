// internal/queue/amqp.go
package queue

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// AmqpQueue publishes JSON payloads to durable RabbitMQ queues, one queue
// per topic. The worker binary consumes on the other end.
type AmqpQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAmqpQueue(url string) (*AmqpQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return &AmqpQueue{conn: conn, ch: ch}, nil
}

func (q *AmqpQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AmqpQueue) Publish(topic string, payload any) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",    // exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

// Subscribe consumes the topic's queue; the handler gets the raw JSON body
// as []byte. Failed handlers nack with requeue up to 3 attempts.
func (q *AmqpQueue) Subscribe(topic string, handler func(payload any) error) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				log.Println("⚠️ handler failed for", topic, ":", err)
				var retryCount int32
				if v, ok := d.Headers["x-retry-count"].(int32); ok {
					retryCount = v
				}
				if retryCount < 3 {
					d.Nack(false, true) // requeue
					continue
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

func (q *AmqpQueue) Close() {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

var _ Queue = (*AmqpQueue)(nil)
