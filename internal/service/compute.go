package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/halfwaymeet/meetup-server-go/internal/database"
	apperrors "github.com/halfwaymeet/meetup-server-go/internal/errors"
	"github.com/halfwaymeet/meetup-server-go/internal/maps"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
	"github.com/halfwaymeet/meetup-server-go/internal/repository"
	"github.com/halfwaymeet/meetup-server-go/internal/util"
)

const venueCandidateLimit = 5

// TxRunner executes a function within a database transaction. Satisfied by
// *database.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// VenueSource finds candidate venues around a point.
type VenueSource interface {
	NearbyVenues(ctx context.Context, center model.LatLng, limit int) ([]maps.VenueCandidate, error)
}

// ComputeResult is what the compute step hands back to the clients: the fair
// midpoint, both commutes, and the ballot of candidate venues.
type ComputeResult struct {
	Midpoint    model.LatLng  `json:"midpoint"`
	TravelTimeA int64         `json:"travelTimeA"`
	TravelTimeB int64         `json:"travelTimeB"`
	Warning     string        `json:"warning,omitempty"`
	Venues      []model.Venue `json:"venues"`
}

type ComputeService struct {
	db          TxRunner
	sessionRepo repository.SessionRepository
	venueRepo   repository.VenueRepository
	sessions    *SessionService
	oracle      TransitOracle
	venues      VenueSource
}

func NewComputeService(
	db TxRunner,
	sessionRepo repository.SessionRepository,
	venueRepo repository.VenueRepository,
	sessions *SessionService,
	oracle TransitOracle,
	venues VenueSource,
) *ComputeService {
	return &ComputeService{
		db:          db,
		sessionRepo: sessionRepo,
		venueRepo:   venueRepo,
		sessions:    sessions,
		oracle:      oracle,
		venues:      venues,
	}
}

// Compute runs the fairness solver for a ready session, discovers venues
// around the final midpoint, and advances the session to voting.
//
// The provider calls happen before the transaction so the session row lock
// is never held across network I/O; the status compare-and-swap inside the
// transaction guarantees a concurrent compute call cannot persist twice.
func (s *ComputeService) Compute(ctx context.Context, sessionID string) (*ComputeResult, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if s.sessions.Expired(session) {
		return nil, apperrors.SessionExpired()
	}
	if session.Status != model.SessionStatusReadyToCompute {
		return nil, apperrors.InvalidState("Session is not ready to compute")
	}

	locationB, ok := session.UserBLocation()
	if !ok {
		// ready_to_compute implies B has joined; a missing location is a
		// broken invariant, not a client error.
		return nil, apperrors.Internal("session is ready to compute but has no User B location")
	}

	midpoint, err := FindFairMidpoint(ctx, session.UserALocation(), locationB, s.oracle)
	if err != nil {
		return nil, apperrors.Upstream("Distance Matrix API", err)
	}

	candidates, err := s.venues.NearbyVenues(ctx, midpoint.Midpoint, venueCandidateLimit)
	if err != nil {
		return nil, apperrors.Upstream("Places API", err)
	}
	if len(candidates) == 0 {
		return nil, apperrors.Upstream("Places API", fmt.Errorf("no venues found near midpoint"))
	}

	now := time.Now().Unix()
	created := make([]model.Venue, 0, len(candidates))

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		sessionRepo := s.sessionRepo.WithTx(tx)
		venueRepo := s.venueRepo.WithTx(tx)

		locked, err := sessionRepo.FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return apperrors.Database(err)
		}
		if locked == nil {
			return apperrors.NotFound("Session")
		}
		if locked.Status != model.SessionStatusReadyToCompute {
			return apperrors.InvalidState("Session is not ready to compute")
		}

		for _, c := range candidates {
			venue, err := venueRepo.Create(ctx, model.CreateVenueParams{
				ID:        util.GenerateID(),
				SessionID: sessionID,
				Name:      c.Name,
				Address:   c.Address,
				Lat:       c.Lat,
				Lng:       c.Lng,
				Rating:    c.Rating,
				CreatedAt: now,
			})
			if err != nil {
				return apperrors.Database(err)
			}
			created = append(created, *venue)
		}

		updated, err := sessionRepo.MarkVoting(ctx, sessionID, midpoint.Midpoint, midpoint.TravelTimeA, midpoint.TravelTimeB, now)
		if err != nil {
			return apperrors.Database(err)
		}
		if !updated {
			return apperrors.Internal("session status changed while holding row lock")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Float64("midpointLat", midpoint.Midpoint.Lat).
		Float64("midpointLng", midpoint.Midpoint.Lng).
		Int64("travelTimeA", midpoint.TravelTimeA).
		Int64("travelTimeB", midpoint.TravelTimeB).
		Int("venues", len(created)).
		Msg("midpoint computed, session voting")

	return &ComputeResult{
		Midpoint:    midpoint.Midpoint,
		TravelTimeA: midpoint.TravelTimeA,
		TravelTimeB: midpoint.TravelTimeB,
		Warning:     midpoint.Warning,
		Venues:      created,
	}, nil
}
