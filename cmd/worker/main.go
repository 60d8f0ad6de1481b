package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/leadpilot/leadpilot-backend/internal/config"
	"github.com/leadpilot/leadpilot-backend/internal/db"
	"github.com/leadpilot/leadpilot-backend/internal/repository"
	"github.com/leadpilot/leadpilot-backend/internal/service"
)

// The worker drains send records published by the scheduler into Postgres,
// so the audit trail survives process restarts.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db.Init()
	sendLogRepo := &repository.SendLogRepository{DB: db.DB}
	persister := service.NewSendLogPersister(sendLogRepo)

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AmqpURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"send_log", // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			if err := persister.Handle(d.Body); err != nil {
				log.Println("Failed to persist send record:", err)
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

	log.Println("Worker running, waiting for send records...")
	<-forever
}
