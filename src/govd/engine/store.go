package engine

import "github.com/stake-plus/member-gov/src/govd/types"

// Store is the persistence boundary of the engine. Every method observes a
// fully-applied prior state; Atomic applies a group of writes all-or-nothing.
type Store interface {
	// Atomic runs fn against a store whose writes commit together or not at
	// all. Guard failures inside fn must leave no partial state behind.
	Atomic(fn func(Store) error) error

	CreateProposal(p *types.Proposal) error // allocates the next ID
	Proposal(id uint64) (*types.Proposal, error)
	SaveProposal(p *types.Proposal) error
	Proposals(status string) ([]types.Proposal, error) // "" means all

	AddSponsor(s *types.ProposalSponsor) error
	Sponsors(proposalID uint64) ([]types.ProposalSponsor, error)

	Vote(proposalID uint64, voter string) (*types.Vote, error)
	AddVote(v *types.Vote) error
	Votes(proposalID uint64) ([]types.Vote, error)

	Delegation(delegator string) (*types.Delegation, error)
	Delegators(delegate string) ([]types.Delegation, error)
	SetDelegation(d *types.Delegation) error
	RemoveDelegation(delegator string) error

	RoleWeights(proposalID uint64) (map[string]uint64, error)
	SetRoleWeight(w *types.RoleWeight) error

	AddViewer(v *types.ProposalViewer) error
	Viewer(proposalID uint64, address string) (*types.ProposalViewer, error)

	AppendAudit(e *types.AuditEvent) error
	AuditTrail(proposalID uint64) ([]types.AuditEvent, error)

	AddTreasuryAction(a *types.TreasuryAction) error
	TreasuryAction(proposalID uint64) (*types.TreasuryAction, error)
	MarkTreasuryDispatched(proposalID uint64) error
}

// Directory is the membership registry collaborator, consumed read-only.
type Directory interface {
	// IsActiveMember reports whether the principal is an active member at the
	// given height. Unknown principals are simply not members.
	IsActiveMember(address string, at uint64) (bool, error)
	Role(address string) (string, error)
	Credits(address string) (uint64, error)
}

// Policy is the access-control collaborator injected at construction.
type Policy interface {
	IsAdmin(address string) (bool, error)
}

// Clock supplies the ambient block height all windows compare against.
type Clock interface {
	Height() uint64
}
