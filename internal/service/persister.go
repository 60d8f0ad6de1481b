package service

import (
	"encoding/json"
	"log"

	"github.com/leadpilot/leadpilot-backend/internal/model"
	"github.com/leadpilot/leadpilot-backend/internal/repository"
)

// SendLogPersister drains send records off the queue into Postgres. It
// accepts both in-process payloads (in-memory queue) and JSON bodies
// (RabbitMQ consumer).
type SendLogPersister struct {
	Repo repository.SendLogRepositoryInterface
}

func NewSendLogPersister(repo repository.SendLogRepositoryInterface) *SendLogPersister {
	return &SendLogPersister{Repo: repo}
}

// Handle is the queue handler. Malformed payloads are dropped, not
// retried: requeueing garbage never makes it parse.
func (p *SendLogPersister) Handle(payload any) error {
	var rec model.SendRecord
	switch v := payload.(type) {
	case model.SendRecord:
		rec = v
	case []byte:
		if err := json.Unmarshal(v, &rec); err != nil {
			log.Println("⚠️ invalid send record payload:", err)
			return nil
		}
	default:
		log.Printf("⚠️ unexpected payload type %T, dropping", payload)
		return nil
	}

	if err := p.Repo.Insert(&rec); err != nil {
		log.Println("⚠️ failed to persist send record:", err)
		return err // triggers retry in queue
	}
	return nil
}
