package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	apperrors "github.com/halfwaymeet/meetup-server-go/internal/errors"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
	"github.com/halfwaymeet/meetup-server-go/internal/repository"
	"github.com/halfwaymeet/meetup-server-go/internal/util"
)

// VoteResult reports whether the submitted ballot completed the vote and,
// if so, which venue won.
type VoteResult struct {
	AllVotesIn bool   `json:"allVotesIn"`
	WinnerID   string `json:"winnerId,omitempty"`
}

type VoteService struct {
	db          TxRunner
	sessionRepo repository.SessionRepository
	venueRepo   repository.VenueRepository
	voteRepo    repository.VoteRepository
	sessions    *SessionService

	// intn draws a uniform int in [0, n); swapped out in tests for a
	// deterministic source.
	intn func(n int) int
}

func NewVoteService(
	db TxRunner,
	sessionRepo repository.SessionRepository,
	venueRepo repository.VenueRepository,
	voteRepo repository.VoteRepository,
	sessions *SessionService,
) *VoteService {
	return &VoteService{
		db:          db,
		sessionRepo: sessionRepo,
		venueRepo:   venueRepo,
		voteRepo:    voteRepo,
		sessions:    sessions,
		intn:        rand.Intn,
	}
}

// reconcileWinner resolves two ballots into a single winning venue. Matching
// ballots win outright with no random draw; disagreement is settled by a
// coin flip over exactly the two referenced venues.
func reconcileWinner(venueA, venueB string, intn func(n int) int) string {
	if venueA == venueB {
		return venueA
	}
	if intn(2) == 0 {
		return venueA
	}
	return venueB
}

// Submit records a ballot. The completing ballot triggers reconciliation and
// the completed transition in the same transaction, behind a row lock on the
// session, so two near-simultaneous ballots cannot both reconcile.
func (s *VoteService) Submit(ctx context.Context, sessionID, venueID, voter string) (*VoteResult, error) {
	if venueID == "" || voter == "" {
		return nil, apperrors.InvalidInput("venueId and voter are required")
	}
	if !model.ValidVoterRole(voter) {
		return nil, apperrors.InvalidInput("voter must be user_a or user_b")
	}
	role := model.VoterRole(voter)

	result := &VoteResult{}

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		sessionRepo := s.sessionRepo.WithTx(tx)
		venueRepo := s.venueRepo.WithTx(tx)
		voteRepo := s.voteRepo.WithTx(tx)

		session, err := sessionRepo.FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return apperrors.Database(err)
		}
		if session == nil {
			return apperrors.NotFound("Session")
		}
		if s.sessions.Expired(session) {
			return apperrors.SessionExpired()
		}
		if session.Status != model.SessionStatusVoting {
			return apperrors.InvalidState("Session is not in voting phase")
		}

		venue, err := venueRepo.FindBySessionAndID(ctx, sessionID, venueID)
		if err != nil {
			return apperrors.Database(err)
		}
		if venue == nil {
			return apperrors.InvalidInput("Venue not found in this session")
		}

		existing, err := voteRepo.FindBySessionAndVoter(ctx, sessionID, role)
		if err != nil {
			return apperrors.Database(err)
		}
		if existing != nil {
			return apperrors.Conflict("You have already voted")
		}

		now := time.Now().Unix()

		if _, err := voteRepo.Create(ctx, model.CreateVoteParams{
			ID:        util.GenerateID(),
			SessionID: sessionID,
			VenueID:   venueID,
			Voter:     role,
			CreatedAt: now,
		}); err != nil {
			return apperrors.Database(err)
		}

		votes, err := voteRepo.FindBySessionID(ctx, sessionID)
		if err != nil {
			return apperrors.Database(err)
		}
		if len(votes) < 2 {
			return nil
		}

		var voteA, voteB *model.Vote
		for i := range votes {
			switch votes[i].Voter {
			case model.VoterRoleUserA:
				voteA = &votes[i]
			case model.VoterRoleUserB:
				voteB = &votes[i]
			}
		}
		if voteA == nil || voteB == nil {
			return apperrors.Internal("both votes expected but one is missing")
		}

		winnerID := reconcileWinner(voteA.VenueID, voteB.VenueID, s.intn)

		updated, err := sessionRepo.Complete(ctx, sessionID, winnerID, now)
		if err != nil {
			return apperrors.Database(err)
		}
		if !updated {
			return apperrors.Internal("session left voting state while holding row lock")
		}

		result.AllVotesIn = true
		result.WinnerID = winnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AllVotesIn {
		log.Info().
			Str("sessionId", sessionID).
			Str("winnerId", result.WinnerID).
			Msg("vote completed, winner selected")
	} else {
		log.Info().
			Str("sessionId", sessionID).
			Str("voter", voter).
			Msg("vote recorded, waiting for second ballot")
	}

	return result, nil
}
