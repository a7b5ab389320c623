package engine

import "errors"

var (
	// ErrNotAuthorized indicates the caller lacks the required role or ownership
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound indicates the proposal, vote or member was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition indicates the operation is not legal from the current status
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrProposalNotActive indicates the proposal is not accepting votes
	ErrProposalNotActive = errors.New("proposal is not active")

	// ErrAlreadyVoted indicates the voter already has a vote recorded
	ErrAlreadyVoted = errors.New("already voted")

	// ErrAlreadySponsored indicates the sponsor is already in the sponsor set
	ErrAlreadySponsored = errors.New("already sponsored")

	// ErrAlreadyExists indicates a duplicate record
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidParameter indicates an out-of-range category, mechanism or amount
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidMechanism indicates an unknown voting mechanism selector
	ErrInvalidMechanism = errors.New("invalid voting mechanism")

	// ErrDelegationCycle indicates the delegation would create a cycle
	ErrDelegationCycle = errors.New("delegation cycle")

	// ErrDelegated indicates the voter delegated their power and cannot cast directly
	ErrDelegated = errors.New("voting power is delegated")

	// ErrNotAMember indicates the principal is not an active member
	ErrNotAMember = errors.New("not an active member")

	// ErrNoVotingPower indicates the resolved voting power is zero
	ErrNoVotingPower = errors.New("no voting power")

	// ErrVotingClosed indicates the current height is outside the voting window
	ErrVotingClosed = errors.New("voting window closed")
)
