package repository

import (
	"database/sql"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

type LeadRepositoryInterface interface {
	Create(l *model.Lead) error
	GetByID(id int) (*model.Lead, error)
	ListByCampaign(campaignID int) ([]model.Lead, error)
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, campaign_id, first_name, last_name, title, company, company_size,
              email, profile_url, strategic_account, prior_threads, positive_history, last_contacted_at`

func (r *LeadRepository) Create(l *model.Lead) error {
	query := `
        INSERT INTO leads (campaign_id, first_name, last_name, title, company, company_size,
                           email, profile_url, strategic_account, prior_threads, positive_history)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		l.CampaignID, l.FirstName, l.LastName, l.Title, l.Company, l.CompanySize,
		l.Email, l.ProfileURL, l.StrategicAccount, l.PriorThreads, l.PositiveHistory,
	).Scan(&l.ID)
}

func scanLead(scan func(...any) error) (*model.Lead, error) {
	var l model.Lead
	err := scan(
		&l.ID, &l.CampaignID, &l.FirstName, &l.LastName, &l.Title, &l.Company, &l.CompanySize,
		&l.Email, &l.ProfileURL, &l.StrategicAccount, &l.PriorThreads, &l.PositiveHistory, &l.LastContactedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	row := r.DB.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id=$1`, id)
	l, err := scanLead(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *LeadRepository) ListByCampaign(campaignID int) ([]model.Lead, error) {
	rows, err := r.DB.Query(`SELECT `+leadColumns+` FROM leads WHERE campaign_id=$1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
