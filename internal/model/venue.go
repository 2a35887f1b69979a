package model

type Venue struct {
	ID        string   `db:"id" json:"id"`
	SessionID string   `db:"session_id" json:"sessionId"`
	Name      string   `db:"name" json:"name"`
	Address   string   `db:"address" json:"address"`
	Lat       float64  `db:"lat" json:"lat"`
	Lng       float64  `db:"lng" json:"lng"`
	Rating    *float64 `db:"rating" json:"rating,omitempty"`
	CreatedAt int64    `db:"created_at" json:"createdAt"`
}

type CreateVenueParams struct {
	ID        string
	SessionID string
	Name      string
	Address   string
	Lat       float64
	Lng       float64
	Rating    *float64
	CreatedAt int64
}
