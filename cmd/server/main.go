// cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/leadpilot/leadpilot-backend/internal/approval"
	"github.com/leadpilot/leadpilot-backend/internal/config"
	"github.com/leadpilot/leadpilot-backend/internal/controller"
	"github.com/leadpilot/leadpilot-backend/internal/db"
	"github.com/leadpilot/leadpilot-backend/internal/handler"
	"github.com/leadpilot/leadpilot-backend/internal/platform"
	"github.com/leadpilot/leadpilot-backend/internal/queue"
	"github.com/leadpilot/leadpilot-backend/internal/repository"
	"github.com/leadpilot/leadpilot-backend/internal/risk"
	"github.com/leadpilot/leadpilot-backend/internal/safety"
	"github.com/leadpilot/leadpilot-backend/internal/scheduler"
	"github.com/leadpilot/leadpilot-backend/internal/service"
)

func limitsFromConfig(cfg *config.Config) safety.Limits {
	return safety.Limits{
		DailyConnectionRequests: cfg.DailyConnectionLimit,
		DailyDirectMessages:     cfg.DailyMessageLimit,
		DailyEmails:             cfg.DailyEmailLimit,
		ConnectionSpacing:       time.Duration(cfg.ConnectionSpacingSeconds) * time.Second,
		MessageSpacing:          time.Duration(cfg.MessageSpacingSeconds) * time.Second,
		EmailSpacing:            time.Duration(cfg.EmailSpacingSeconds) * time.Second,
	}
}

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Init DB
	db.Init()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	leadRepo := &repository.LeadRepository{DB: db.DB}
	sendLogRepo := &repository.SendLogRepository{DB: db.DB}
	approvalRepo := &repository.ApprovalRepository{DB: db.DB}

	// Prefer RabbitMQ for the send log; fall back to the in-memory queue
	// with a local persister when the broker is unreachable.
	var q queue.Queue
	if aq, err := queue.NewAmqpQueue(cfg.AmqpURL); err == nil {
		q = aq
		log.Println("✅ Connected to RabbitMQ")
	} else {
		log.Println("⚠️ RabbitMQ unavailable, using in-memory queue:", err)
		mq := queue.NewInMemoryQueue()
		persister := service.NewSendLogPersister(sendLogRepo)
		mq.Subscribe("send_log", persister.Handle)
		q = mq
	}

	guard := safety.NewGuard(limitsFromConfig(cfg))
	validator := safety.NewValidator()
	assessor := risk.NewAssessor()
	gate := approval.NewGate(approval.Policy{
		MediumSampleRate: cfg.MediumRiskSampleRate,
		AutoApproveLow:   cfg.AutoApproveLowRisk,
	})

	sched := scheduler.NewScheduler(
		guard, validator, assessor, gate,
		platform.NewTemplateGenerator(),
		platform.NewMockSendClient(),
		q, nil,
	)

	campaignController := &controller.CampaignController{
		CampaignRepo: campaignRepo,
		LeadRepo:     leadRepo,
		SendLogRepo:  sendLogRepo,
		Scheduler:    sched,
	}
	approvalHandler := &handler.ApprovalHandler{Gate: gate, Repo: approvalRepo}
	accountHandler := &handler.AccountHandler{Guard: guard}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/start", campaignController.StartCampaign)
	r.Post("/campaigns/{id}/pause", campaignController.PauseCampaign)
	r.Post("/campaigns/{id}/archive", campaignController.ArchiveCampaign)
	r.Get("/campaigns/{id}/metrics", campaignController.GetMetrics)
	r.Post("/campaigns/{id}/replies", campaignController.RecordReply)

	// Approval review routes
	r.Get("/approvals", approvalHandler.ListPending)
	r.Post("/approvals/{id}/approve", approvalHandler.Approve)
	r.Post("/approvals/{id}/reject", approvalHandler.Reject)
	r.Post("/approvals/{id}/edit", approvalHandler.EditAndApprove)
	r.Get("/approvals/stats", approvalHandler.Stats)
	r.Get("/approvals/edits", approvalHandler.Edits)

	// Account routes
	r.Get("/accounts/{id}/health", accountHandler.Health)
	r.Post("/accounts/{id}/warnings", accountHandler.AddWarning)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Println("🚀 Server running on", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
