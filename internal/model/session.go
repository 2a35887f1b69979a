package model

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Session struct {
	ID            string        `db:"id" json:"id"`
	Status        SessionStatus `db:"status" json:"status"`
	TravelMode    TravelMode    `db:"travel_mode" json:"travelMode"`
	PinCode       string        `db:"pin_code" json:"-"`
	UserALat      float64       `db:"user_a_lat" json:"userALat"`
	UserALng      float64       `db:"user_a_lng" json:"userALng"`
	UserALabel    string        `db:"user_a_label" json:"userALabel"`
	UserBLat      *float64      `db:"user_b_lat" json:"userBLat,omitempty"`
	UserBLng      *float64      `db:"user_b_lng" json:"userBLng,omitempty"`
	UserBLabel    *string       `db:"user_b_label" json:"userBLabel,omitempty"`
	MidpointLat   *float64      `db:"midpoint_lat" json:"midpointLat,omitempty"`
	MidpointLng   *float64      `db:"midpoint_lng" json:"midpointLng,omitempty"`
	TravelTimeA   *int64        `db:"travel_time_a" json:"travelTimeA,omitempty"`
	TravelTimeB   *int64        `db:"travel_time_b" json:"travelTimeB,omitempty"`
	WinnerVenueID *string       `db:"winner_venue_id" json:"winnerVenueId,omitempty"`
	CreatedAt     int64         `db:"created_at" json:"createdAt"`
	UpdatedAt     int64         `db:"updated_at" json:"updatedAt"`
}

// UserALocation returns User A's snapped location.
func (s *Session) UserALocation() LatLng {
	return LatLng{Lat: s.UserALat, Lng: s.UserALng}
}

// UserBLocation returns User B's snapped location, or false if B has not joined.
func (s *Session) UserBLocation() (LatLng, bool) {
	if s.UserBLat == nil || s.UserBLng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *s.UserBLat, Lng: *s.UserBLng}, true
}

type CreateSessionParams struct {
	ID         string
	PinCode    string
	UserALat   float64
	UserALng   float64
	UserALabel string
	TravelMode TravelMode
	CreatedAt  int64
}
