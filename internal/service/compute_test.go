package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/halfwaymeet/meetup-server-go/internal/errors"
	"github.com/halfwaymeet/meetup-server-go/internal/maps"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
)

func readySession() *model.Session {
	s := waitingSession()
	s.Status = model.SessionStatusReadyToCompute
	lat, lng, label := 40.02, -73.02, "2 Second Ave"
	s.UserBLat = &lat
	s.UserBLng = &lng
	s.UserBLabel = &label
	return s
}

func newComputeService(
	sessionRepo *mockSessionRepo,
	venueRepo *mockVenueRepo,
	oracle TransitOracle,
	venues VenueSource,
) *ComputeService {
	sessions := newSessionService(sessionRepo, venueRepo, &mockVoteRepo{}, &fakeResolver{})
	return NewComputeService(fakeTxRunner{}, sessionRepo, venueRepo, sessions, oracle, venues)
}

func TestCompute(t *testing.T) {
	ctx := context.Background()

	candidates := []maps.VenueCandidate{
		{Name: "Cafe One", Address: "1 First Ave", Lat: 40.011, Lng: -73.011},
		{Name: "Cafe Two", Address: "2 Second Ave", Lat: 40.012, Lng: -73.012},
	}

	t.Run("solves midpoint, persists venues, advances to voting", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		venueRepo := &mockVenueRepo{}
		oracle := &scriptedOracle{responses: []oracleResponse{{timeA: 600, timeB: 610}}}
		svc := newComputeService(sessionRepo, venueRepo, oracle, &fakeVenueSource{candidates: candidates})

		session := readySession()
		mid := GeographicMidpoint(session.UserALocation(), model.LatLng{Lat: 40.02, Lng: -73.02})

		sessionRepo.On("FindByID", ctx, "sess-1").Return(session, nil)
		sessionRepo.On("FindByIDForUpdate", ctx, "sess-1").Return(readySession(), nil)
		venueRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateVenueParams) bool {
			return p.SessionID == "sess-1" && len(p.ID) == 21
		})).Return(&model.Venue{ID: "v1", SessionID: "sess-1"}, nil).Twice()
		sessionRepo.On("MarkVoting", ctx, "sess-1", mid, int64(600), int64(610), mock.AnythingOfType("int64")).Return(true, nil)

		result, err := svc.Compute(ctx, "sess-1")
		require.NoError(t, err)

		assert.Equal(t, mid, result.Midpoint)
		assert.Equal(t, int64(600), result.TravelTimeA)
		assert.Equal(t, int64(610), result.TravelTimeB)
		assert.Empty(t, result.Warning)
		assert.Len(t, result.Venues, 2)
		sessionRepo.AssertExpectations(t)
		venueRepo.AssertExpectations(t)
	})

	t.Run("returns NotFound for unknown session", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, &scriptedOracle{}, &fakeVenueSource{})

		sessionRepo.On("FindByID", ctx, "missing").Return(nil, nil)

		_, err := svc.Compute(ctx, "missing")
		expectAppError(t, err, apperrors.ErrCodeNotFound)
	})

	t.Run("returns SessionExpired past TTL", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, &scriptedOracle{}, &fakeVenueSource{})

		old := readySession()
		old.CreatedAt = time.Now().Add(-25 * time.Hour).Unix()
		sessionRepo.On("FindByID", ctx, "sess-1").Return(old, nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeSessionExpired)
	})

	t.Run("rejects session not ready to compute", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, &scriptedOracle{}, &fakeVenueSource{})

		sessionRepo.On("FindByID", ctx, "sess-1").Return(waitingSession(), nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeInvalidState)
	})

	t.Run("missing user B location is an internal error", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, &scriptedOracle{}, &fakeVenueSource{})

		broken := readySession()
		broken.UserBLat = nil
		broken.UserBLng = nil
		sessionRepo.On("FindByID", ctx, "sess-1").Return(broken, nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeInternal)
	})

	t.Run("oracle failure hard-fails the computation", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		oracle := &scriptedOracle{responses: []oracleResponse{{err: errors.New("provider down")}}}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, oracle, &fakeVenueSource{candidates: candidates})

		sessionRepo.On("FindByID", ctx, "sess-1").Return(readySession(), nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeUpstream)
	})

	t.Run("venue provider failure hard-fails the computation", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		oracle := &scriptedOracle{responses: []oracleResponse{{timeA: 600, timeB: 610}}}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, oracle, &fakeVenueSource{err: errors.New("places down")})

		sessionRepo.On("FindByID", ctx, "sess-1").Return(readySession(), nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeUpstream)
	})

	t.Run("no venues near midpoint fails the computation", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		oracle := &scriptedOracle{responses: []oracleResponse{{timeA: 600, timeB: 610}}}
		svc := newComputeService(sessionRepo, &mockVenueRepo{}, oracle, &fakeVenueSource{})

		sessionRepo.On("FindByID", ctx, "sess-1").Return(readySession(), nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeUpstream)
	})

	t.Run("concurrent compute loses the status compare-and-swap", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		venueRepo := &mockVenueRepo{}
		oracle := &scriptedOracle{responses: []oracleResponse{{timeA: 600, timeB: 610}}}
		svc := newComputeService(sessionRepo, venueRepo, oracle, &fakeVenueSource{candidates: candidates})

		sessionRepo.On("FindByID", ctx, "sess-1").Return(readySession(), nil)

		// By the time the lock is taken, another compute already advanced
		// the session.
		racing := readySession()
		racing.Status = model.SessionStatusVoting
		sessionRepo.On("FindByIDForUpdate", ctx, "sess-1").Return(racing, nil)

		_, err := svc.Compute(ctx, "sess-1")
		expectAppError(t, err, apperrors.ErrCodeInvalidState)
		venueRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
