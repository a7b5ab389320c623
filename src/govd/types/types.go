package types

import "time"

// Member roles
const (
	RolePatient  = "patient"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// Member statuses
const (
	MemberStatusPending  = "pending"
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
	MemberStatusRejected = "rejected"
)

// Proposal lifecycle statuses
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
	StatusExecuted  = "executed"
)

// Proposal categories
const (
	CategoryTreasury   = "treasury"
	CategoryPolicy     = "policy"
	CategoryMembership = "membership"
	CategoryGeneral    = "general"
)

// Voting mechanisms
const (
	MechanismSimple       = "simple"
	MechanismQuadratic    = "quadratic"
	MechanismRoleWeighted = "role_weighted"
)

// Vote choices (stored values)
const (
	ChoiceAgainst int16 = 0
	ChoiceFor     int16 = 1
	ChoiceAbstain int16 = 2
)

// Members
type Member struct {
	Address   string `gorm:"primaryKey;size:128"`
	Role      string `gorm:"size:16;not null"`
	Status    string `gorm:"size:16;index;not null"`
	JoinedAt  uint64 `gorm:"default:0"` // block height
	ExpiresAt uint64 `gorm:"default:0"` // block height; 0 = never
	Credits   uint64 `gorm:"default:0"` // quadratic voting credits
	IsAdmin   bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Proposals
type Proposal struct {
	ID          uint64 `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Link        string `gorm:"size:512"`
	Category    string `gorm:"size:32;not null"`
	Proposer    string `gorm:"size:128;index;not null"`
	Status      string `gorm:"size:16;index;not null"`
	Sensitive   bool   `gorm:"default:false"`
	Mechanism   string `gorm:"size:16;not null"`
	VoteStart   uint64 `gorm:"default:0"` // block height, inclusive
	VoteEnd     uint64 `gorm:"default:0"` // block height, exclusive
	Quorum      uint64 `gorm:"default:0"` // fixed at submission

	VotesFor     uint64 `gorm:"default:0"`
	VotesAgainst uint64 `gorm:"default:0"`
	VotesAbstain uint64 `gorm:"default:0"`
	PowerUsed    uint64 `gorm:"default:0"`

	// Execution parameters consumed by the treasury collaborator.
	ExecRecipient string `gorm:"size:128"`
	ExecAmount    uint64 `gorm:"default:0"`
	ExecNote      string `gorm:"size:512"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Proposal sponsors; Seq preserves endorsement order for display.
type ProposalSponsor struct {
	Seq        uint64 `gorm:"primaryKey"`
	ProposalID uint64 `gorm:"uniqueIndex:uniq_sponsor;not null"`
	Address    string `gorm:"uniqueIndex:uniq_sponsor;size:128;not null"`
	CreatedAt  time.Time
}

// Votes; one row per (proposal, voter), never updated or deleted.
type Vote struct {
	ProposalID uint64 `gorm:"primaryKey"`
	Voter      string `gorm:"primaryKey;size:128"`
	Choice     int16  `gorm:"not null"`
	Power      uint64 `gorm:"not null"`
	CastAt     uint64 `gorm:"default:0"` // block height
	CreatedAt  time.Time
}

// Delegations; one outgoing edge per delegator.
type Delegation struct {
	Delegator string `gorm:"primaryKey;size:128"`
	Delegate  string `gorm:"index;size:128;not null"`
	CreatedAt time.Time
}

// Role weights; ProposalID 0 holds the global table, other rows are
// per-proposal overrides.
type RoleWeight struct {
	ProposalID uint64 `gorm:"primaryKey"`
	Role       string `gorm:"primaryKey;size:16"`
	Weight     uint64 `gorm:"not null"`
}

// Viewer allowlist for sensitive proposals.
type ProposalViewer struct {
	ProposalID uint64 `gorm:"primaryKey"`
	Address    string `gorm:"primaryKey;size:128"`
	CreatedAt  time.Time
}

// Append-only audit trail of transitions and votes.
type AuditEvent struct {
	ID         uint64 `gorm:"primaryKey"`
	ProposalID uint64 `gorm:"index;not null"`
	Height     uint64 `gorm:"default:0"`
	Actor      string `gorm:"size:128;not null"`
	Action     string `gorm:"size:32;not null"`
	Detail     string `gorm:"size:512"`
	CreatedAt  time.Time
}

// Fundable actions registered for the treasury controller.
type TreasuryAction struct {
	ID         uint64 `gorm:"primaryKey"`
	ProposalID uint64 `gorm:"uniqueIndex;not null"`
	Recipient  string `gorm:"size:128;not null"`
	Amount     uint64 `gorm:"not null"`
	Note       string `gorm:"size:512"`
	Dispatched bool   `gorm:"default:false"`
	CreatedAt  time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
