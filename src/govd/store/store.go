// Package store implements the engine's persistence boundary on gorm.
package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
)

// DB implements engine.Store, engine.Directory and engine.Policy.
type DB struct {
	db *gorm.DB
}

func New(db *gorm.DB) *DB { return &DB{db: db} }

// Atomic runs fn inside a database transaction; a returned error rolls back
// every write made through the inner store.
func (d *DB) Atomic(fn func(engine.Store) error) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx})
	})
}

func (d *DB) CreateProposal(p *types.Proposal) error {
	return d.db.Create(p).Error
}

func (d *DB) Proposal(id uint64) (*types.Proposal, error) {
	var p types.Proposal
	if err := d.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (d *DB) SaveProposal(p *types.Proposal) error {
	return d.db.Save(p).Error
}

func (d *DB) Proposals(status string) ([]types.Proposal, error) {
	var out []types.Proposal
	q := d.db.Order("id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return out, q.Find(&out).Error
}

func (d *DB) AddSponsor(s *types.ProposalSponsor) error {
	return d.db.Create(s).Error
}

func (d *DB) Sponsors(proposalID uint64) ([]types.ProposalSponsor, error) {
	var out []types.ProposalSponsor
	return out, d.db.Where("proposal_id = ?", proposalID).Order("seq").Find(&out).Error
}

func (d *DB) Vote(proposalID uint64, voter string) (*types.Vote, error) {
	var v types.Vote
	err := d.db.First(&v, "proposal_id = ? AND voter = ?", proposalID, voter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DB) AddVote(v *types.Vote) error {
	return d.db.Create(v).Error
}

func (d *DB) Votes(proposalID uint64) ([]types.Vote, error) {
	var out []types.Vote
	return out, d.db.Where("proposal_id = ?", proposalID).Find(&out).Error
}

func (d *DB) Delegation(delegator string) (*types.Delegation, error) {
	var del types.Delegation
	err := d.db.First(&del, "delegator = ?", delegator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &del, nil
}

func (d *DB) Delegators(delegate string) ([]types.Delegation, error) {
	var out []types.Delegation
	return out, d.db.Where("delegate = ?", delegate).Order("delegator").Find(&out).Error
}

func (d *DB) SetDelegation(del *types.Delegation) error {
	return d.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(del).Error
}

func (d *DB) RemoveDelegation(delegator string) error {
	return d.db.Where("delegator = ?", delegator).Delete(&types.Delegation{}).Error
}

func (d *DB) RoleWeights(proposalID uint64) (map[string]uint64, error) {
	var rows []types.RoleWeight
	if err := d.db.Where("proposal_id = ?", proposalID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]uint64, len(rows))
	for _, r := range rows {
		out[r.Role] = r.Weight
	}
	return out, nil
}

func (d *DB) SetRoleWeight(w *types.RoleWeight) error {
	return d.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(w).Error
}

func (d *DB) AddViewer(v *types.ProposalViewer) error {
	return d.db.Create(v).Error
}

func (d *DB) Viewer(proposalID uint64, address string) (*types.ProposalViewer, error) {
	var v types.ProposalViewer
	err := d.db.First(&v, "proposal_id = ? AND address = ?", proposalID, address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DB) AppendAudit(e *types.AuditEvent) error {
	return d.db.Create(e).Error
}

func (d *DB) AuditTrail(proposalID uint64) ([]types.AuditEvent, error) {
	var out []types.AuditEvent
	return out, d.db.Where("proposal_id = ?", proposalID).Order("id").Find(&out).Error
}

func (d *DB) AddTreasuryAction(a *types.TreasuryAction) error {
	return d.db.Create(a).Error
}

func (d *DB) TreasuryAction(proposalID uint64) (*types.TreasuryAction, error) {
	var a types.TreasuryAction
	err := d.db.First(&a, "proposal_id = ?", proposalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *DB) MarkTreasuryDispatched(proposalID uint64) error {
	return d.db.Model(&types.TreasuryAction{}).
		Where("proposal_id = ?", proposalID).
		Update("dispatched", true).Error
}

// PutMember upserts a membership record. The admin surface is the writer;
// the engine only ever reads membership.
func (d *DB) PutMember(m *types.Member) error {
	return d.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error
}

// Membership directory reads.

func (d *DB) IsActiveMember(address string, at uint64) (bool, error) {
	var m types.Member
	err := d.db.First(&m, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if m.Status != types.MemberStatusActive {
		return false, nil
	}
	if m.ExpiresAt != 0 && at >= m.ExpiresAt {
		return false, nil
	}
	return true, nil
}

func (d *DB) Role(address string) (string, error) {
	var m types.Member
	if err := d.db.First(&m, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", engine.ErrNotAMember
		}
		return "", err
	}
	return m.Role, nil
}

func (d *DB) Credits(address string) (uint64, error) {
	var m types.Member
	err := d.db.First(&m, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.Credits, nil
}

func (d *DB) IsAdmin(address string) (bool, error) {
	var m types.Member
	err := d.db.First(&m, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsAdmin, nil
}
