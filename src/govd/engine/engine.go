package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/stake-plus/member-gov/src/govd/types"
)

// Config carries the policy knobs fixed at construction.
type Config struct {
	DefaultQuorum     uint64
	MaxSponsors       int
	MaxWeightEntries  int
	MaxDelegationHops int
}

func DefaultConfig() Config {
	return Config{
		DefaultQuorum:     10,
		MaxSponsors:       10,
		MaxWeightEntries:  10,
		MaxDelegationHops: 10,
	}
}

// Engine owns the proposal lifecycle and the tally accumulators. Every
// state-changing operation applies atomically through the store; a failed
// guard leaves no partial state behind.
type Engine struct {
	store  Store
	dir    Directory
	policy Policy
	clock  Clock
	cfg    Config
}

func New(store Store, dir Directory, policy Policy, clock Clock, cfg Config) *Engine {
	if cfg.MaxSponsors == 0 {
		cfg.MaxSponsors = DefaultConfig().MaxSponsors
	}
	if cfg.MaxWeightEntries == 0 {
		cfg.MaxWeightEntries = DefaultConfig().MaxWeightEntries
	}
	if cfg.MaxDelegationHops == 0 {
		cfg.MaxDelegationHops = DefaultConfig().MaxDelegationHops
	}
	return &Engine{store: store, dir: dir, policy: policy, clock: clock, cfg: cfg}
}

// ProposalInput is the mutable surface of a Draft proposal.
type ProposalInput struct {
	Title         string
	Description   string
	Link          string
	Category      string
	Sensitive     bool
	Mechanism     string
	VoteStart     uint64
	VoteEnd       uint64
	Quorum        uint64
	ExecRecipient string
	ExecAmount    uint64
	ExecNote      string
	RoleWeights   map[string]uint64
}

// ProposalUpdate carries partial edits; nil fields are left untouched.
type ProposalUpdate struct {
	Title       *string
	Description *string
	Link        *string
	Category    *string
	Sensitive   *bool
	Mechanism   *string
	VoteStart   *uint64
	VoteEnd     *uint64
	Quorum      *uint64
}

// TallyResult is a read-only snapshot of a proposal's accumulators.
type TallyResult struct {
	For           uint64 `json:"for"`
	Against       uint64 `json:"against"`
	Abstain       uint64 `json:"abstain"`
	PowerUsed     uint64 `json:"powerUsed"`
	Participation uint64 `json:"participation"`
	Quorum        uint64 `json:"quorum"`
	Status        string `json:"status"`
}

func validCategory(c string) bool {
	switch c {
	case types.CategoryTreasury, types.CategoryPolicy, types.CategoryMembership, types.CategoryGeneral:
		return true
	}
	return false
}

func validMechanism(m string) bool {
	switch m {
	case types.MechanismSimple, types.MechanismQuadratic, types.MechanismRoleWeighted:
		return true
	}
	return false
}

func terminal(status string) bool {
	switch status {
	case types.StatusPassed, types.StatusFailed, types.StatusExpired, types.StatusCancelled, types.StatusExecuted:
		return true
	}
	return false
}

// CreateProposal allocates the next proposal ID and stores a Draft owned by
// the proposer.
func (e *Engine) CreateProposal(proposer string, in ProposalInput) (*types.Proposal, error) {
	at := e.clock.Height()
	active, err := e.dir.IsActiveMember(proposer, at)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrNotAMember
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidParameter)
	}
	if len(in.RoleWeights) > e.cfg.MaxWeightEntries {
		return nil, fmt.Errorf("%w: at most %d role weights", ErrInvalidParameter, e.cfg.MaxWeightEntries)
	}

	p := &types.Proposal{
		Title:         in.Title,
		Description:   in.Description,
		Link:          in.Link,
		Category:      in.Category,
		Proposer:      proposer,
		Status:        types.StatusDraft,
		Sensitive:     in.Sensitive,
		Mechanism:     in.Mechanism,
		VoteStart:     in.VoteStart,
		VoteEnd:       in.VoteEnd,
		Quorum:        in.Quorum,
		ExecRecipient: in.ExecRecipient,
		ExecAmount:    in.ExecAmount,
		ExecNote:      in.ExecNote,
	}

	err = e.store.Atomic(func(s Store) error {
		if err := s.CreateProposal(p); err != nil {
			return err
		}
		for role, weight := range in.RoleWeights {
			if err := s.SetRoleWeight(&types.RoleWeight{ProposalID: p.ID, Role: role, Weight: weight}); err != nil {
				return err
			}
		}
		return e.audit(s, p.ID, at, proposer, "created", "")
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProposal edits a Draft; only the proposer may edit and only before
// submission.
func (e *Engine) UpdateProposal(actor string, id uint64, up ProposalUpdate) error {
	at := e.clock.Height()
	return e.store.Atomic(func(s Store) error {
		p, err := e.draftOwnedBy(s, actor, id)
		if err != nil {
			return err
		}
		if up.Title != nil {
			if *up.Title == "" {
				return fmt.Errorf("%w: title required", ErrInvalidParameter)
			}
			p.Title = *up.Title
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.Link != nil {
			p.Link = *up.Link
		}
		if up.Category != nil {
			p.Category = *up.Category
		}
		if up.Sensitive != nil {
			p.Sensitive = *up.Sensitive
		}
		if up.Mechanism != nil {
			p.Mechanism = *up.Mechanism
		}
		if up.VoteStart != nil {
			p.VoteStart = *up.VoteStart
		}
		if up.VoteEnd != nil {
			p.VoteEnd = *up.VoteEnd
		}
		if up.Quorum != nil {
			p.Quorum = *up.Quorum
		}
		if err := s.SaveProposal(p); err != nil {
			return err
		}
		return e.audit(s, id, at, actor, "updated", "")
	})
}

// AuthorizeViewer grants read access to a sensitive proposal. Draft-only,
// proposer-only, like every other edit.
func (e *Engine) AuthorizeViewer(actor string, id uint64, viewer string) error {
	at := e.clock.Height()
	return e.store.Atomic(func(s Store) error {
		if _, err := e.draftOwnedBy(s, actor, id); err != nil {
			return err
		}
		if v, err := s.Viewer(id, viewer); err != nil {
			return err
		} else if v != nil {
			return ErrAlreadyExists
		}
		if err := s.AddViewer(&types.ProposalViewer{ProposalID: id, Address: viewer}); err != nil {
			return err
		}
		return e.audit(s, id, at, actor, "viewer_authorized", viewer)
	})
}

// SubmitProposal moves a Draft to Pending. Category, mechanism and window are
// validated here; the quorum requirement is fixed now and never mutated again.
func (e *Engine) SubmitProposal(actor string, id uint64) error {
	at := e.clock.Height()
	return e.store.Atomic(func(s Store) error {
		p, err := e.draftOwnedBy(s, actor, id)
		if err != nil {
			return err
		}
		if !validCategory(p.Category) {
			return fmt.Errorf("%w: category %q", ErrInvalidParameter, p.Category)
		}
		if !validMechanism(p.Mechanism) {
			return ErrInvalidMechanism
		}
		if p.VoteStart == 0 {
			p.VoteStart = at
		}
		if p.VoteEnd <= p.VoteStart {
			return fmt.Errorf("%w: voting window end must be after start", ErrInvalidParameter)
		}
		if p.Quorum == 0 {
			p.Quorum = e.cfg.DefaultQuorum
		}
		p.Status = types.StatusPending
		if err := s.SaveProposal(p); err != nil {
			return err
		}
		return e.audit(s, id, at, actor, "submitted", "")
	})
}

// SponsorProposal records an endorsement. The first sponsor moves the proposal
// from Pending into Active; voting is additionally gated by the window.
func (e *Engine) SponsorProposal(actor string, id uint64) error {
	at := e.clock.Height()
	active, err := e.dir.IsActiveMember(actor, at)
	if err != nil {
		return err
	}
	if !active {
		return ErrNotAMember
	}
	return e.store.Atomic(func(s Store) error {
		p, err := s.Proposal(id)
		if err != nil {
			return err
		}
		if p.Status != types.StatusPending && p.Status != types.StatusActive {
			return ErrInvalidStateTransition
		}
		if actor == p.Proposer {
			return fmt.Errorf("%w: proposer cannot sponsor own proposal", ErrNotAuthorized)
		}
		sponsors, err := s.Sponsors(id)
		if err != nil {
			return err
		}
		if len(sponsors) >= e.cfg.MaxSponsors {
			return fmt.Errorf("%w: sponsor set full", ErrInvalidParameter)
		}
		for _, sp := range sponsors {
			if sp.Address == actor {
				return ErrAlreadySponsored
			}
		}
		if err := s.AddSponsor(&types.ProposalSponsor{ProposalID: id, Address: actor}); err != nil {
			return err
		}
		if p.Status == types.StatusPending {
			p.Status = types.StatusActive
			if err := s.SaveProposal(p); err != nil {
				return err
			}
			if err := e.audit(s, id, at, actor, "activated", ""); err != nil {
				return err
			}
		}
		return e.audit(s, id, at, actor, "sponsored", "")
	})
}

// CancelProposal is the proposer withdrawing a proposal that has not reached
// a terminal state.
func (e *Engine) CancelProposal(actor string, id uint64) error {
	at := e.clock.Height()
	return e.store.Atomic(func(s Store) error {
		p, err := s.Proposal(id)
		if err != nil {
			return err
		}
		if actor != p.Proposer {
			return ErrNotAuthorized
		}
		if terminal(p.Status) {
			return ErrInvalidStateTransition
		}
		p.Status = types.StatusCancelled
		if err := s.SaveProposal(p); err != nil {
			return err
		}
		return e.audit(s, id, at, actor, "cancelled", "")
	})
}

// CastVote records a ballot. Re-voting is rejected, never overwritten; the
// applied power is snapshotted at cast time and immune to later changes.
// Tallies only ever grow here.
func (e *Engine) CastVote(voter string, id uint64, choice int16) (*types.Vote, error) {
	if choice != types.ChoiceFor && choice != types.ChoiceAgainst && choice != types.ChoiceAbstain {
		return nil, fmt.Errorf("%w: choice %d", ErrInvalidParameter, choice)
	}
	at := e.clock.Height()
	var vote *types.Vote
	err := e.store.Atomic(func(s Store) error {
		p, err := s.Proposal(id)
		if err != nil {
			return err
		}
		if p.Status != types.StatusActive {
			return ErrProposalNotActive
		}
		if at < p.VoteStart || at >= p.VoteEnd {
			return ErrVotingClosed
		}
		if prior, err := s.Vote(id, voter); err != nil {
			return err
		} else if prior != nil {
			return ErrAlreadyVoted
		}
		power, err := e.resolvePower(s, voter, p, at)
		if err != nil {
			return err
		}
		if power == 0 {
			return ErrNoVotingPower
		}

		vote = &types.Vote{ProposalID: id, Voter: voter, Choice: choice, Power: power, CastAt: at}
		if err := s.AddVote(vote); err != nil {
			return err
		}
		switch choice {
		case types.ChoiceFor:
			p.VotesFor += power
		case types.ChoiceAgainst:
			p.VotesAgainst += power
		case types.ChoiceAbstain:
			p.VotesAbstain += power
		}
		p.PowerUsed += power
		if err := s.SaveProposal(p); err != nil {
			return err
		}
		return e.audit(s, id, at, voter, "vote_cast", fmt.Sprintf("choice=%d power=%d", choice, power))
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// Finalize evaluates the accumulated tallies exactly once and writes the
// terminal state. Anyone may trigger it once the window has closed; a second
// call fails fast rather than re-evaluating.
func (e *Engine) Finalize(actor string, id uint64) (Outcome, error) {
	at := e.clock.Height()
	var out Outcome
	err := e.store.Atomic(func(s Store) error {
		p, err := s.Proposal(id)
		if err != nil {
			return err
		}
		if p.Status != types.StatusActive {
			return ErrProposalNotActive
		}
		if at < p.VoteEnd {
			return fmt.Errorf("%w: voting ends at height %d", ErrInvalidStateTransition, p.VoteEnd)
		}

		out = evaluateOutcome(p)
		p.Status = out.Status
		if err := s.SaveProposal(p); err != nil {
			return err
		}

		detail := out.Status
		if !out.QuorumMet && out.Status == types.StatusFailed {
			detail = "failed: quorum not met"
		}
		if err := e.audit(s, id, at, actor, "finalized", detail); err != nil {
			return err
		}

		if out.Status == types.StatusPassed && p.ExecRecipient != "" && p.ExecAmount > 0 {
			action := &types.TreasuryAction{
				ProposalID: id,
				Recipient:  p.ExecRecipient,
				Amount:     p.ExecAmount,
				Note:       p.ExecNote,
			}
			if err := s.AddTreasuryAction(action); err != nil {
				return err
			}
			log.Printf("proposal %d passed: treasury action registered for %s amount %d", id, action.Recipient, action.Amount)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// Execute marks a passed proposal as executed. Only the proposer or an admin
// may execute, and only once.
func (e *Engine) Execute(actor string, id uint64) error {
	at := e.clock.Height()
	return e.store.Atomic(func(s Store) error {
		p, err := s.Proposal(id)
		if err != nil {
			return err
		}
		if p.Status != types.StatusPassed {
			return ErrInvalidStateTransition
		}
		if actor != p.Proposer {
			admin, err := e.policy.IsAdmin(actor)
			if err != nil {
				return err
			}
			if !admin {
				return ErrNotAuthorized
			}
		}
		p.Status = types.StatusExecuted
		if err := s.SaveProposal(p); err != nil {
			return err
		}
		if a, err := s.TreasuryAction(id); err != nil {
			return err
		} else if a != nil && !a.Dispatched {
			if err := s.MarkTreasuryDispatched(id); err != nil {
				return err
			}
		}
		return e.audit(s, id, at, actor, "executed", "")
	})
}

// SetDelegation points the delegator's voting power at the delegate. The walk
// from the delegate through existing edges must not reach the delegator and is
// bounded at MaxDelegationHops; hitting the bound rejects.
func (e *Engine) SetDelegation(delegator, delegate string) error {
	if delegator == delegate {
		return ErrDelegationCycle
	}
	at := e.clock.Height()
	for _, addr := range []string{delegator, delegate} {
		active, err := e.dir.IsActiveMember(addr, at)
		if err != nil {
			return err
		}
		if !active {
			return ErrNotAMember
		}
	}
	return e.store.Atomic(func(s Store) error {
		cur := delegate
		for hop := 0; ; hop++ {
			if hop >= e.cfg.MaxDelegationHops {
				return ErrDelegationCycle
			}
			d, err := s.Delegation(cur)
			if err != nil {
				return err
			}
			if d == nil {
				break
			}
			if d.Delegate == delegator {
				return ErrDelegationCycle
			}
			cur = d.Delegate
		}
		return s.SetDelegation(&types.Delegation{Delegator: delegator, Delegate: delegate})
	})
}

// RemoveDelegation revokes the delegator's outgoing edge. Idempotent.
func (e *Engine) RemoveDelegation(delegator string) error {
	return e.store.Atomic(func(s Store) error {
		return s.RemoveDelegation(delegator)
	})
}

// SetGlobalRoleWeight mutates the global role-weight table. Admin only.
func (e *Engine) SetGlobalRoleWeight(actor, role string, weight uint64) error {
	admin, err := e.policy.IsAdmin(actor)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAuthorized
	}
	return e.store.Atomic(func(s Store) error {
		return s.SetRoleWeight(&types.RoleWeight{ProposalID: 0, Role: role, Weight: weight})
	})
}

// GetProposal returns a proposal, enforcing the sensitivity flag: sensitive
// proposals are visible to the proposer, active members and authorized
// viewers only.
func (e *Engine) GetProposal(actor string, id uint64) (*types.Proposal, error) {
	p, err := e.store.Proposal(id)
	if err != nil {
		return nil, err
	}
	if p.Sensitive {
		ok, err := e.canView(actor, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotAuthorized
		}
	}
	return p, nil
}

// ListProposals returns proposals with the given status ("" for all),
// omitting sensitive ones the actor may not view.
func (e *Engine) ListProposals(actor, status string) ([]types.Proposal, error) {
	all, err := e.store.Proposals(status)
	if err != nil {
		return nil, err
	}
	out := make([]types.Proposal, 0, len(all))
	for i := range all {
		if all[i].Sensitive {
			ok, err := e.canView(actor, &all[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, all[i])
	}
	return out, nil
}

// ActiveDue returns Active proposals whose voting window closed at or before
// the given height. Serves the finalization sweep, which needs every due
// proposal regardless of sensitivity.
func (e *Engine) ActiveDue(height uint64) ([]types.Proposal, error) {
	active, err := e.store.Proposals(types.StatusActive)
	if err != nil {
		return nil, err
	}
	due := active[:0]
	for _, p := range active {
		if height >= p.VoteEnd {
			due = append(due, p)
		}
	}
	return due, nil
}

// Sponsors returns the sponsor set in endorsement order.
func (e *Engine) Sponsors(id uint64) ([]types.ProposalSponsor, error) {
	if _, err := e.store.Proposal(id); err != nil {
		return nil, err
	}
	return e.store.Sponsors(id)
}

// Tally returns a read-only snapshot of the accumulators.
func (e *Engine) Tally(id uint64) (TallyResult, error) {
	p, err := e.store.Proposal(id)
	if err != nil {
		return TallyResult{}, err
	}
	return TallyResult{
		For:           p.VotesFor,
		Against:       p.VotesAgainst,
		Abstain:       p.VotesAbstain,
		PowerUsed:     p.PowerUsed,
		Participation: p.VotesFor + p.VotesAgainst + p.VotesAbstain,
		Quorum:        p.Quorum,
		Status:        p.Status,
	}, nil
}

// AuditTrail returns the append-only record for a proposal.
func (e *Engine) AuditTrail(id uint64) ([]types.AuditEvent, error) {
	if _, err := e.store.Proposal(id); err != nil {
		return nil, err
	}
	return e.store.AuditTrail(id)
}

// TreasuryAction returns the registered fundable action for a proposal, or
// nil when none exists.
func (e *Engine) TreasuryAction(id uint64) (*types.TreasuryAction, error) {
	return e.store.TreasuryAction(id)
}

// Height exposes the ambient clock for callers that report it.
func (e *Engine) Height() uint64 { return e.clock.Height() }

func (e *Engine) canView(actor string, p *types.Proposal) (bool, error) {
	if actor == p.Proposer {
		return true, nil
	}
	active, err := e.dir.IsActiveMember(actor, e.clock.Height())
	if err != nil {
		return false, err
	}
	if active {
		return true, nil
	}
	v, err := e.store.Viewer(p.ID, actor)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (e *Engine) draftOwnedBy(s Store, actor string, id uint64) (*types.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	if actor != p.Proposer {
		return nil, ErrNotAuthorized
	}
	if p.Status != types.StatusDraft {
		return nil, ErrInvalidStateTransition
	}
	return p, nil
}

func (e *Engine) audit(s Store, proposalID, height uint64, actor, action, detail string) error {
	return s.AppendAudit(&types.AuditEvent{
		ProposalID: proposalID,
		Height:     height,
		Actor:      actor,
		Action:     action,
		Detail:     detail,
		CreatedAt:  time.Now(),
	})
}
