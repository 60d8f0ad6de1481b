package repository

import (
	"database/sql"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

type ApprovalRepositoryInterface interface {
	Insert(req *model.ApprovalRequest) error
	ListRecent(limit int) ([]model.ApprovalRequest, error)
}

// ApprovalRepository persists resolved approval requests. The gate's own
// history stays authoritative in-process; this table survives restarts for
// metrics and the reviewer-edit learning loop.
type ApprovalRepository struct {
	DB *sql.DB
}

func (r *ApprovalRepository) Insert(req *model.ApprovalRequest) error {
	query := `
        INSERT INTO approval_history (id, campaign_id, lead_id, account_id, channel, risk_level,
                                      risk_score, content, subject, status, reviewer, review_note,
                                      edited_content, created_at, reviewed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.DB.Exec(query,
		req.ID, req.CampaignID, req.LeadID, req.AccountID, req.Channel, req.RiskLevel,
		req.RiskScore, req.Content, req.Subject, req.Status, req.Reviewer, req.ReviewNote,
		req.EditedContent, req.CreatedAt, req.ReviewedAt,
	)
	return err
}

func (r *ApprovalRepository) ListRecent(limit int) ([]model.ApprovalRequest, error) {
	query := `
        SELECT id, campaign_id, lead_id, account_id, channel, risk_level, risk_score,
               content, subject, status, reviewer, review_note, edited_content, created_at, reviewed_at
        FROM approval_history ORDER BY reviewed_at DESC LIMIT $1
    `
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []model.ApprovalRequest{}
	for rows.Next() {
		var req model.ApprovalRequest
		if err := rows.Scan(
			&req.ID, &req.CampaignID, &req.LeadID, &req.AccountID, &req.Channel, &req.RiskLevel,
			&req.RiskScore, &req.Content, &req.Subject, &req.Status, &req.Reviewer, &req.ReviewNote,
			&req.EditedContent, &req.CreatedAt, &req.ReviewedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

var _ ApprovalRepositoryInterface = (*ApprovalRepository)(nil)
