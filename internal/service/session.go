package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/halfwaymeet/meetup-server-go/internal/errors"
	"github.com/halfwaymeet/meetup-server-go/internal/maps"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
	"github.com/halfwaymeet/meetup-server-go/internal/repository"
	"github.com/halfwaymeet/meetup-server-go/internal/util"
)

const unresolvablePinMessage = "Could not find a road near your pin. Please try a different location."

// Resolver snaps a raw coordinate to a street-level location. A nil result
// means the pin could not be resolved.
type Resolver interface {
	Snap(ctx context.Context, point model.LatLng) (*maps.SnapResult, error)
}

// SessionView is a session together with its venues and ballots.
type SessionView struct {
	model.Session
	Venues []model.Venue `json:"venues"`
	Votes  []model.Vote  `json:"votes"`
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	venueRepo   repository.VenueRepository
	voteRepo    repository.VoteRepository
	resolver    Resolver
	ttl         time.Duration
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	venueRepo repository.VenueRepository,
	voteRepo repository.VoteRepository,
	resolver Resolver,
	ttl time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		venueRepo:   venueRepo,
		voteRepo:    voteRepo,
		resolver:    resolver,
		ttl:         ttl,
	}
}

// Expired reports whether the session's age exceeds the TTL. Expiry is a
// derived predicate computed at read time, not a stored status.
func (s *SessionService) Expired(session *model.Session) bool {
	age := time.Now().Unix() - session.CreatedAt
	return age > int64(s.ttl.Seconds())
}

func validCoordinates(point model.LatLng) bool {
	return point.Lat >= -90 && point.Lat <= 90 && point.Lng >= -180 && point.Lng <= 180
}

func (s *SessionService) snap(ctx context.Context, point model.LatLng) (*maps.SnapResult, error) {
	if !validCoordinates(point) {
		return nil, apperrors.InvalidInput("lat and lng are required numbers")
	}

	snapped, err := s.resolver.Snap(ctx, point)
	if err != nil {
		return nil, apperrors.Upstream("Geocoding API", err)
	}
	if snapped == nil {
		return nil, apperrors.InvalidInput(unresolvablePinMessage)
	}
	return snapped, nil
}

// Create starts a new session with User A's location. The returned session
// carries the generated PIN; it is only shown once, in the create response.
func (s *SessionService) Create(ctx context.Context, point model.LatLng) (*model.Session, error) {
	snapped, err := s.snap(ctx, point)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		ID:         util.GenerateSessionID(),
		PinCode:    util.GeneratePINCode(),
		UserALat:   snapped.Snapped.Lat,
		UserALng:   snapped.Snapped.Lng,
		UserALabel: snapped.Address,
		TravelMode: model.TravelModeTransit,
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("label", session.UserALabel).
		Msg("session created")

	return session, nil
}

// Get returns the session with its venues and votes.
func (s *SessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if s.Expired(session) {
		return nil, apperrors.SessionExpired()
	}

	venues, err := s.venueRepo.FindBySessionID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	votes, err := s.voteRepo.FindBySessionID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &SessionView{
		Session: *session,
		Venues:  venues,
		Votes:   votes,
	}, nil
}

// Join adds User B to a waiting session and advances it to ready_to_compute.
func (s *SessionService) Join(ctx context.Context, id string, point model.LatLng, pinCode string) error {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return apperrors.NotFound("Session")
	}
	if s.Expired(session) {
		return apperrors.SessionExpired()
	}
	if session.Status != model.SessionStatusWaitingForB {
		return apperrors.InvalidState("Session is not waiting for User B")
	}
	if session.PinCode != "" && session.PinCode != pinCode {
		return apperrors.Forbidden("Incorrect PIN code")
	}

	snapped, err := s.snap(ctx, point)
	if err != nil {
		return err
	}

	updated, err := s.sessionRepo.SetUserB(ctx, id, snapped.Snapped.Lat, snapped.Snapped.Lng, snapped.Address, time.Now().Unix())
	if err != nil {
		return apperrors.Database(err)
	}
	if !updated {
		// Lost a race with another join; the status predicate on the
		// update rejected the write.
		return apperrors.InvalidState("Session is not waiting for User B")
	}

	log.Info().
		Str("sessionId", id).
		Str("label", snapped.Address).
		Msg("user B joined session")

	return nil
}
