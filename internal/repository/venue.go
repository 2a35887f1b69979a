package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/halfwaymeet/meetup-server-go/internal/database"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
)

type VenueRepository interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	FindBySessionAndID(ctx context.Context, sessionID, id string) (*model.Venue, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]model.Venue, error)
	Create(ctx context.Context, params model.CreateVenueParams) (*model.Venue, error)
	WithTx(tx *sqlx.Tx) VenueRepository
}

type venueRepo struct {
	db database.DBTX
}

func NewVenueRepository(db *sqlx.DB) VenueRepository {
	return &venueRepo{db: db}
}

func (r *venueRepo) WithTx(tx *sqlx.Tx) VenueRepository {
	return &venueRepo{db: tx}
}

func (r *venueRepo) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	var venue model.Venue
	err := r.db.GetContext(ctx, &venue, `
		SELECT * FROM venues WHERE id = $1
	`, id)
	return HandleNotFound(&venue, err)
}

func (r *venueRepo) FindBySessionAndID(ctx context.Context, sessionID, id string) (*model.Venue, error) {
	var venue model.Venue
	err := r.db.GetContext(ctx, &venue, `
		SELECT * FROM venues WHERE session_id = $1 AND id = $2
	`, sessionID, id)
	return HandleNotFound(&venue, err)
}

func (r *venueRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Venue, error) {
	venues := []model.Venue{}
	err := r.db.SelectContext(ctx, &venues, `
		SELECT * FROM venues WHERE session_id = $1 ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return venues, nil
}

func (r *venueRepo) Create(ctx context.Context, params model.CreateVenueParams) (*model.Venue, error) {
	var venue model.Venue
	err := r.db.GetContext(ctx, &venue, `
		INSERT INTO venues (id, session_id, name, address, lat, lng, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.ID, params.SessionID, params.Name, params.Address, params.Lat, params.Lng, params.Rating, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &venue, nil
}
