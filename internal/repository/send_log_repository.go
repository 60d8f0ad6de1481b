package repository

import (
	"database/sql"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

type SendLogRepositoryInterface interface {
	Insert(rec *model.SendRecord) error
	ListByCampaign(campaignID, limit int) ([]model.SendRecord, error)
	StatusCounts(campaignID int) (map[string]int, error)
}

// SendLogRepository is the durable audit trail of step attempts. It is a
// read model: the admission pipeline never consults it.
type SendLogRepository struct {
	DB *sql.DB
}

func (r *SendLogRepository) Insert(rec *model.SendRecord) error {
	query := `
        INSERT INTO send_log (campaign_id, lead_id, step_number, channel, account_id,
                              content, status, delivery_id, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		rec.CampaignID, rec.LeadID, rec.StepNumber, rec.Channel, rec.AccountID,
		rec.Content, rec.Status, rec.DeliveryID, rec.LastError, rec.CreatedAt,
	).Scan(&rec.ID)
}

func (r *SendLogRepository) ListByCampaign(campaignID, limit int) ([]model.SendRecord, error) {
	query := `
        SELECT id, campaign_id, lead_id, step_number, channel, account_id,
               content, status, delivery_id, last_error, created_at
        FROM send_log WHERE campaign_id=$1 ORDER BY id DESC LIMIT $2
    `
	rows, err := r.DB.Query(query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.SendRecord{}
	for rows.Next() {
		var rec model.SendRecord
		if err := rows.Scan(
			&rec.ID, &rec.CampaignID, &rec.LeadID, &rec.StepNumber, &rec.Channel, &rec.AccountID,
			&rec.Content, &rec.Status, &rec.DeliveryID, &rec.LastError, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SendLogRepository) StatusCounts(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM send_log WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.SendStatusSent:     0,
		model.SendStatusFailed:   0,
		model.SendStatusBlocked:  0,
		model.SendStatusRejected: 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ SendLogRepositoryInterface = (*SendLogRepository)(nil)
