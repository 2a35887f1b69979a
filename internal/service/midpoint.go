package service

import (
	"context"
	"fmt"
	"math"

	"github.com/halfwaymeet/meetup-server-go/internal/model"
)

const (
	midpointMaxIterations        = 3
	midpointConvergenceThreshold = 0.1
	midpointDampingFactor        = 0.3

	// 60 minutes in seconds
	longTransitThreshold = 3600.0
)

const longTransitWarning = "Public transport time exceeds 60 minutes. Consider alternative meeting locations."

// TransitOracle returns one-way transit durations in seconds from each of
// two origins to a destination.
type TransitOracle interface {
	TransitTimes(ctx context.Context, originA, originB, destination model.LatLng) (timeA, timeB float64, err error)
}

// MidpointResult is the outcome of a fair-midpoint search.
type MidpointResult struct {
	Midpoint    model.LatLng `json:"midpoint"`
	TravelTimeA int64        `json:"travelTimeA"`
	TravelTimeB int64        `json:"travelTimeB"`
	Warning     string       `json:"warning,omitempty"`
}

// GeographicMidpoint is the unweighted coordinate midpoint of a and b.
func GeographicMidpoint(a, b model.LatLng) model.LatLng {
	return model.LatLng{
		Lat: (a.Lat + b.Lat) / 2,
		Lng: (a.Lng + b.Lng) / 2,
	}
}

func shiftTowardSlower(candidate, sourceA, sourceB model.LatLng, timeA, timeB float64) model.LatLng {
	target := sourceB
	if timeA > timeB {
		target = sourceA
	}
	return model.LatLng{
		Lat: candidate.Lat + midpointDampingFactor*(target.Lat-candidate.Lat),
		Lng: candidate.Lng + midpointDampingFactor*(target.Lng-candidate.Lng),
	}
}

// FindFairMidpoint searches for a meeting point that balances both parties'
// transit times. Starting from the geographic midpoint, it queries the oracle
// and, while the relative disparity is at or above the convergence threshold,
// takes a damped step toward the party with the longer commute. The last
// computed candidate is returned whether or not convergence was reached.
//
// An oracle failure aborts the whole search: every iteration's stopping
// decision needs a travel-time estimate, so there is no partial result.
func FindFairMidpoint(ctx context.Context, locationA, locationB model.LatLng, oracle TransitOracle) (*MidpointResult, error) {
	candidate := GeographicMidpoint(locationA, locationB)

	var timeA, timeB float64

	for i := 0; i < midpointMaxIterations; i++ {
		var err error
		timeA, timeB, err = oracle.TransitTimes(ctx, locationA, locationB, candidate)
		if err != nil {
			return nil, fmt.Errorf("transit times: %w", err)
		}

		maxTime := math.Max(timeA, timeB)
		diff := math.Abs(timeA - timeB)

		if maxTime == 0 || diff/maxTime < midpointConvergenceThreshold {
			break
		}

		candidate = shiftTowardSlower(candidate, locationA, locationB, timeA, timeB)
	}

	result := &MidpointResult{
		Midpoint:    candidate,
		TravelTimeA: int64(math.Round(timeA)),
		TravelTimeB: int64(math.Round(timeB)),
	}

	if math.Max(timeA, timeB) > longTransitThreshold {
		result.Warning = longTransitWarning
	}

	return result, nil
}
