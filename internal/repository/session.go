package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/halfwaymeet/meetup-server-go/internal/database"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// FindByIDForUpdate takes a row lock on the session for the duration of
	// the enclosing transaction. Only meaningful on a repository obtained
	// via WithTx.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	SetUserB(ctx context.Context, id string, lat, lng float64, label string, updatedAt int64) (bool, error)
	MarkVoting(ctx context.Context, id string, midpoint model.LatLng, travelTimeA, travelTimeB int64, updatedAt int64) (bool, error)
	Complete(ctx context.Context, id string, winnerVenueID string, updatedAt int64) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1 FOR UPDATE
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (id, status, travel_mode, pin_code, user_a_lat, user_a_lng, user_a_label, created_at, updated_at)
		VALUES ($1, 'waiting_for_b', $2, $3, $4, $5, $6, $7, $7)
		RETURNING *
	`, params.ID, params.TravelMode, params.PinCode, params.UserALat, params.UserALng, params.UserALabel, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SetUserB writes User B's snapped location and advances the session to
// ready_to_compute. The status predicate makes the transition a
// compare-and-swap: a second join loses the race and reports false.
func (r *sessionRepo) SetUserB(ctx context.Context, id string, lat, lng float64, label string, updatedAt int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			user_b_lat = $2,
			user_b_lng = $3,
			user_b_label = $4,
			status = 'ready_to_compute',
			updated_at = $5
		WHERE id = $1 AND status = 'waiting_for_b'
	`, id, lat, lng, label, updatedAt)
	return rowsAffected(result, err)
}

func (r *sessionRepo) MarkVoting(ctx context.Context, id string, midpoint model.LatLng, travelTimeA, travelTimeB int64, updatedAt int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			midpoint_lat = $2,
			midpoint_lng = $3,
			travel_time_a = $4,
			travel_time_b = $5,
			status = 'voting',
			updated_at = $6
		WHERE id = $1 AND status = 'ready_to_compute'
	`, id, midpoint.Lat, midpoint.Lng, travelTimeA, travelTimeB, updatedAt)
	return rowsAffected(result, err)
}

func (r *sessionRepo) Complete(ctx context.Context, id string, winnerVenueID string, updatedAt int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			winner_venue_id = $2,
			status = 'completed',
			updated_at = $3
		WHERE id = $1 AND status = 'voting'
	`, id, winnerVenueID, updatedAt)
	return rowsAffected(result, err)
}

// DeleteOlderThan removes sessions created before cutoff. Venues and votes
// go with them via ON DELETE CASCADE.
func (r *sessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE created_at < $1
	`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
