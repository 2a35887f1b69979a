package model

type Vote struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	VenueID   string    `db:"venue_id" json:"venueId"`
	Voter     VoterRole `db:"voter" json:"voter"`
	CreatedAt int64     `db:"created_at" json:"createdAt"`
}

type CreateVoteParams struct {
	ID        string
	SessionID string
	VenueID   string
	Voter     VoterRole
	CreatedAt int64
}
