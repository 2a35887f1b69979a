package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/halfwaymeet/meetup-server-go/internal/database"
	"github.com/halfwaymeet/meetup-server-go/internal/maps"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
	"github.com/halfwaymeet/meetup-server-go/internal/repository"
)

// fakeTxRunner runs the transaction function directly; the mocked
// repositories ignore the nil transaction handle.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) SetUserB(ctx context.Context, id string, lat, lng float64, label string, updatedAt int64) (bool, error) {
	args := m.Called(ctx, id, lat, lng, label, updatedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) MarkVoting(ctx context.Context, id string, midpoint model.LatLng, travelTimeA, travelTimeB int64, updatedAt int64) (bool, error) {
	args := m.Called(ctx, id, midpoint, travelTimeA, travelTimeB, updatedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) Complete(ctx context.Context, id string, winnerVenueID string, updatedAt int64) (bool, error) {
	args := m.Called(ctx, id, winnerVenueID, updatedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(_ *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockVenueRepo struct {
	mock.Mock
}

func (m *mockVenueRepo) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Venue), args.Error(1)
}

func (m *mockVenueRepo) FindBySessionAndID(ctx context.Context, sessionID, id string) (*model.Venue, error) {
	args := m.Called(ctx, sessionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Venue), args.Error(1)
}

func (m *mockVenueRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Venue, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Venue), args.Error(1)
}

func (m *mockVenueRepo) Create(ctx context.Context, params model.CreateVenueParams) (*model.Venue, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Venue), args.Error(1)
}

func (m *mockVenueRepo) WithTx(_ *sqlx.Tx) repository.VenueRepository {
	return m
}

type mockVoteRepo struct {
	mock.Mock
}

func (m *mockVoteRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Vote, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Vote), args.Error(1)
}

func (m *mockVoteRepo) FindBySessionAndVoter(ctx context.Context, sessionID string, voter model.VoterRole) (*model.Vote, error) {
	args := m.Called(ctx, sessionID, voter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vote), args.Error(1)
}

func (m *mockVoteRepo) Create(ctx context.Context, params model.CreateVoteParams) (*model.Vote, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vote), args.Error(1)
}

func (m *mockVoteRepo) WithTx(_ *sqlx.Tx) repository.VoteRepository {
	return m
}

// fakeResolver snaps every pin to a fixed result, or reports it unresolvable.
type fakeResolver struct {
	result *maps.SnapResult
	err    error
}

func (f *fakeResolver) Snap(_ context.Context, _ model.LatLng) (*maps.SnapResult, error) {
	return f.result, f.err
}

type fakeVenueSource struct {
	candidates []maps.VenueCandidate
	err        error
}

func (f *fakeVenueSource) NearbyVenues(_ context.Context, _ model.LatLng, limit int) ([]maps.VenueCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.candidates) > limit {
		return f.candidates[:limit], nil
	}
	return f.candidates, nil
}
