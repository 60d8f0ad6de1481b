// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/leadpilot/leadpilot-backend/internal/errors"
	"github.com/leadpilot/leadpilot-backend/internal/model"
	"github.com/leadpilot/leadpilot-backend/internal/platform"
	"github.com/leadpilot/leadpilot-backend/internal/repository"
	"github.com/leadpilot/leadpilot-backend/internal/scheduler"
)

type CampaignController struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LeadRepo     repository.LeadRepositoryInterface
	SendLogRepo  repository.SendLogRepositoryInterface
	Scheduler    *scheduler.Scheduler
}

func writeError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrCampaignNotFound
	var invalid *appErrors.ErrInvalidCampaign
	var transition *appErrors.ErrInvalidTransition
	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &invalid):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &transition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func campaignID(r *http.Request) int {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	return id
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string                 `json:"name"`
		AccountID string                 `json:"account_id"`
		Sequence  model.Sequence         `json:"sequence"`
		Settings  model.CampaignSettings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign := &model.Campaign{
		Name:      body.Name,
		AccountID: body.AccountID,
		Status:    model.CampaignDraft,
		Sequence:  body.Sequence,
		Settings:  body.Settings,
	}
	if err := c.CampaignRepo.Create(campaign); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := c.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaigns": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignID(r)
	campaign, err := c.CampaignRepo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string]interface{}{"campaign": campaign}
	if snap, err := c.Scheduler.Snapshot(id); err == nil {
		out["campaign"] = snap.Campaign
		out["metrics"] = snap.Metrics
		out["reply_rate"] = snap.ReplyRate
		out["conversion_rate"] = snap.Conversion
		out["pause_reason"] = snap.PauseReason
		out["open_tasks"] = snap.OpenTasks
	}
	if c.SendLogRepo != nil {
		if stats, err := c.SendLogRepo.StatusCounts(id); err == nil {
			out["send_stats"] = stats
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// StartCampaign loads the definition and its leads, then hands both to the
// scheduler. Also used to resume a paused campaign.
func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignID(r)
	campaign, err := c.CampaignRepo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	leads, err := c.LeadRepo.ListByCampaign(id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.Scheduler.StartCampaign(*campaign, leads); err != nil {
		writeError(w, err)
		return
	}
	if err := c.CampaignRepo.UpdateStatus(id, model.CampaignActive); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id": id,
		"status":      model.CampaignActive,
		"total_leads": len(leads),
	})
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignID(r)
	var body struct {
		LeadID *int   `json:"lead_id,omitempty"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Reason == "" {
		body.Reason = "paused by operator"
	}

	if err := c.Scheduler.PauseCampaign(id, body.LeadID, "operator: "+body.Reason); err != nil {
		writeError(w, err)
		return
	}
	if body.LeadID == nil {
		if err := c.CampaignRepo.UpdateStatus(id, model.CampaignPaused); err != nil {
			writeError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) ArchiveCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignID(r)
	if err := c.Scheduler.ArchiveCampaign(id); err != nil {
		writeError(w, err)
		return
	}
	if err := c.CampaignRepo.UpdateStatus(id, model.CampaignArchived); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := c.Scheduler.Snapshot(campaignID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"metrics":         snap.Metrics,
		"reply_rate":      snap.ReplyRate,
		"conversion_rate": snap.Conversion,
	})
}

// RecordReply ingests a reply classification from the external classifier.
func (c *CampaignController) RecordReply(w http.ResponseWriter, r *http.Request) {
	id := campaignID(r)
	var body struct {
		LeadID     int     `json:"lead_id"`
		Intent     string  `json:"intent"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	cls := platform.Classification{Intent: body.Intent, Sentiment: body.Sentiment, Confidence: body.Confidence}
	if err := c.Scheduler.RecordReply(id, body.LeadID, cls); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
