package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/halfwaymeet/meetup-server-go/internal/database"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
)

type VoteRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) ([]model.Vote, error)
	FindBySessionAndVoter(ctx context.Context, sessionID string, voter model.VoterRole) (*model.Vote, error)
	Create(ctx context.Context, params model.CreateVoteParams) (*model.Vote, error)
	WithTx(tx *sqlx.Tx) VoteRepository
}

type voteRepo struct {
	db database.DBTX
}

func NewVoteRepository(db *sqlx.DB) VoteRepository {
	return &voteRepo{db: db}
}

func (r *voteRepo) WithTx(tx *sqlx.Tx) VoteRepository {
	return &voteRepo{db: tx}
}

func (r *voteRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Vote, error) {
	votes := []model.Vote{}
	err := r.db.SelectContext(ctx, &votes, `
		SELECT * FROM votes WHERE session_id = $1 ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepo) FindBySessionAndVoter(ctx context.Context, sessionID string, voter model.VoterRole) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.GetContext(ctx, &vote, `
		SELECT * FROM votes WHERE session_id = $1 AND voter = $2
	`, sessionID, voter)
	return HandleNotFound(&vote, err)
}

// Create inserts a ballot. A unique index on (session_id, voter) backs the
// one-vote-per-role invariant at the storage layer.
func (r *voteRepo) Create(ctx context.Context, params model.CreateVoteParams) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.GetContext(ctx, &vote, `
		INSERT INTO votes (id, session_id, venue_id, voter, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ID, params.SessionID, params.VenueID, params.Voter, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &vote, nil
}
