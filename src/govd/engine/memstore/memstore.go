// Package memstore provides an in-memory engine.Store, Directory and Policy
// used by tests and local experiments.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
)

type Store struct {
	mu sync.Mutex

	nextProposalID uint64
	nextAuditID    uint64
	nextSponsorSeq uint64
	nextActionID   uint64

	proposals   map[uint64]types.Proposal
	sponsors    []types.ProposalSponsor
	votes       map[[2]interface{}]types.Vote
	delegations map[string]types.Delegation
	roleWeights map[uint64]map[string]uint64
	viewers     map[uint64]map[string]bool
	audit       []types.AuditEvent
	actions     map[uint64]types.TreasuryAction

	members map[string]types.Member
}

func New() *Store {
	return &Store{
		proposals:   make(map[uint64]types.Proposal),
		votes:       make(map[[2]interface{}]types.Vote),
		delegations: make(map[string]types.Delegation),
		roleWeights: make(map[uint64]map[string]uint64),
		viewers:     make(map[uint64]map[string]bool),
		actions:     make(map[uint64]types.TreasuryAction),
		members:     make(map[string]types.Member),
	}
}

// Atomic serializes the whole operation under one lock. The engine checks
// every guard before mutating, so a guard failure leaves the maps untouched.
func (m *Store) Atomic(fn func(engine.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(unlocked{m})
}

// unlocked bypasses the mutex for calls made inside Atomic.
type unlocked struct{ *Store }

func (u unlocked) Atomic(fn func(engine.Store) error) error { return fn(u) }

func (m *Store) CreateProposal(p *types.Proposal) error {
	m.nextProposalID++
	p.ID = m.nextProposalID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.proposals[p.ID] = *p
	return nil
}

func (m *Store) Proposal(id uint64) (*types.Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *Store) SaveProposal(p *types.Proposal) error {
	if _, ok := m.proposals[p.ID]; !ok {
		return engine.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	m.proposals[p.ID] = *p
	return nil
}

func (m *Store) Proposals(status string) ([]types.Proposal, error) {
	var out []types.Proposal
	for _, p := range m.proposals {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) AddSponsor(s *types.ProposalSponsor) error {
	m.nextSponsorSeq++
	s.Seq = m.nextSponsorSeq
	s.CreatedAt = time.Now()
	m.sponsors = append(m.sponsors, *s)
	return nil
}

func (m *Store) Sponsors(proposalID uint64) ([]types.ProposalSponsor, error) {
	var out []types.ProposalSponsor
	for _, s := range m.sponsors {
		if s.ProposalID == proposalID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Store) Vote(proposalID uint64, voter string) (*types.Vote, error) {
	v, ok := m.votes[[2]interface{}{proposalID, voter}]
	if !ok {
		return nil, nil
	}
	cp := v
	return &cp, nil
}

func (m *Store) AddVote(v *types.Vote) error {
	key := [2]interface{}{v.ProposalID, v.Voter}
	if _, ok := m.votes[key]; ok {
		return engine.ErrAlreadyExists
	}
	v.CreatedAt = time.Now()
	m.votes[key] = *v
	return nil
}

func (m *Store) Votes(proposalID uint64) ([]types.Vote, error) {
	var out []types.Vote
	for _, v := range m.votes {
		if v.ProposalID == proposalID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *Store) Delegation(delegator string) (*types.Delegation, error) {
	d, ok := m.delegations[delegator]
	if !ok {
		return nil, nil
	}
	cp := d
	return &cp, nil
}

func (m *Store) Delegators(delegate string) ([]types.Delegation, error) {
	var out []types.Delegation
	for _, d := range m.delegations {
		if d.Delegate == delegate {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Delegator < out[j].Delegator })
	return out, nil
}

func (m *Store) SetDelegation(d *types.Delegation) error {
	d.CreatedAt = time.Now()
	m.delegations[d.Delegator] = *d
	return nil
}

func (m *Store) RemoveDelegation(delegator string) error {
	delete(m.delegations, delegator)
	return nil
}

func (m *Store) RoleWeights(proposalID uint64) (map[string]uint64, error) {
	out := make(map[string]uint64, len(m.roleWeights[proposalID]))
	for role, w := range m.roleWeights[proposalID] {
		out[role] = w
	}
	return out, nil
}

func (m *Store) SetRoleWeight(w *types.RoleWeight) error {
	if m.roleWeights[w.ProposalID] == nil {
		m.roleWeights[w.ProposalID] = make(map[string]uint64)
	}
	m.roleWeights[w.ProposalID][w.Role] = w.Weight
	return nil
}

func (m *Store) AddViewer(v *types.ProposalViewer) error {
	if m.viewers[v.ProposalID] == nil {
		m.viewers[v.ProposalID] = make(map[string]bool)
	}
	m.viewers[v.ProposalID][v.Address] = true
	return nil
}

func (m *Store) Viewer(proposalID uint64, address string) (*types.ProposalViewer, error) {
	if !m.viewers[proposalID][address] {
		return nil, nil
	}
	return &types.ProposalViewer{ProposalID: proposalID, Address: address}, nil
}

func (m *Store) AppendAudit(e *types.AuditEvent) error {
	m.nextAuditID++
	e.ID = m.nextAuditID
	m.audit = append(m.audit, *e)
	return nil
}

func (m *Store) AuditTrail(proposalID uint64) ([]types.AuditEvent, error) {
	var out []types.AuditEvent
	for _, e := range m.audit {
		if e.ProposalID == proposalID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Store) AddTreasuryAction(a *types.TreasuryAction) error {
	if _, ok := m.actions[a.ProposalID]; ok {
		return engine.ErrAlreadyExists
	}
	m.nextActionID++
	a.ID = m.nextActionID
	a.CreatedAt = time.Now()
	m.actions[a.ProposalID] = *a
	return nil
}

func (m *Store) TreasuryAction(proposalID uint64) (*types.TreasuryAction, error) {
	a, ok := m.actions[proposalID]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (m *Store) MarkTreasuryDispatched(proposalID uint64) error {
	a, ok := m.actions[proposalID]
	if !ok {
		return engine.ErrNotFound
	}
	a.Dispatched = true
	m.actions[proposalID] = a
	return nil
}

// Directory / Policy backed by the same member map.

func (m *Store) PutMember(mem types.Member) {
	m.members[mem.Address] = mem
}

func (m *Store) IsActiveMember(address string, at uint64) (bool, error) {
	mem, ok := m.members[address]
	if !ok {
		return false, nil
	}
	if mem.Status != types.MemberStatusActive {
		return false, nil
	}
	if mem.ExpiresAt != 0 && at >= mem.ExpiresAt {
		return false, nil
	}
	return true, nil
}

func (m *Store) Role(address string) (string, error) {
	mem, ok := m.members[address]
	if !ok {
		return "", engine.ErrNotAMember
	}
	return mem.Role, nil
}

func (m *Store) Credits(address string) (uint64, error) {
	mem, ok := m.members[address]
	if !ok {
		return 0, nil
	}
	return mem.Credits, nil
}

func (m *Store) IsAdmin(address string) (bool, error) {
	mem, ok := m.members[address]
	if !ok {
		return false, nil
	}
	return mem.IsAdmin, nil
}
