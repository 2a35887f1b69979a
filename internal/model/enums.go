package model

type SessionStatus string

const (
	SessionStatusWaitingForB    SessionStatus = "waiting_for_b"
	SessionStatusReadyToCompute SessionStatus = "ready_to_compute"
	SessionStatusVoting         SessionStatus = "voting"
	SessionStatusCompleted      SessionStatus = "completed"
)

type VoterRole string

const (
	VoterRoleUserA VoterRole = "user_a"
	VoterRoleUserB VoterRole = "user_b"
)

// ValidVoterRole reports whether s is one of the two fixed voter roles.
func ValidVoterRole(s string) bool {
	return s == string(VoterRoleUserA) || s == string(VoterRoleUserB)
}

type TravelMode string

const (
	TravelModeTransit TravelMode = "transit"
)
