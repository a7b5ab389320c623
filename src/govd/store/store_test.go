package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/store"
	"github.com/stake-plus/member-gov/src/govd/types"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Member{}, &types.Proposal{}, &types.ProposalSponsor{},
		&types.Vote{}, &types.Delegation{}, &types.RoleWeight{},
		&types.ProposalViewer{}, &types.AuditEvent{}, &types.TreasuryAction{},
		&types.Setting{},
	))
	return store.New(db)
}

func TestProposalRoundTrip(t *testing.T) {
	s := testDB(t)

	p := &types.Proposal{Title: "t", Category: types.CategoryGeneral, Proposer: "alice", Status: types.StatusDraft, Mechanism: types.MechanismSimple}
	require.NoError(t, s.CreateProposal(p))
	require.NotZero(t, p.ID)

	got, err := s.Proposal(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)

	got.Status = types.StatusPending
	require.NoError(t, s.SaveProposal(got))

	list, err := s.Proposals(types.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.Proposal(999)
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestAtomicRollsBackEveryWrite(t *testing.T) {
	s := testDB(t)

	boom := errors.New("boom")
	err := s.Atomic(func(tx engine.Store) error {
		p := &types.Proposal{Title: "t", Category: types.CategoryGeneral, Proposer: "alice", Status: types.StatusDraft, Mechanism: types.MechanismSimple}
		if err := tx.CreateProposal(p); err != nil {
			return err
		}
		if err := tx.AppendAudit(&types.AuditEvent{ProposalID: p.ID, Actor: "alice", Action: "created"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := s.Proposals("")
	require.NoError(t, err)
	assert.Empty(t, list)
	trail, err := s.AuditTrail(1)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestVoteUniqueness(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.AddVote(&types.Vote{ProposalID: 1, Voter: "alice", Choice: types.ChoiceFor, Power: 1}))
	err := s.AddVote(&types.Vote{ProposalID: 1, Voter: "alice", Choice: types.ChoiceAgainst, Power: 1})
	require.Error(t, err)

	v, err := s.Vote(1, "alice")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, types.ChoiceFor, v.Choice)

	v, err = s.Vote(1, "bob")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDelegationEdges(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.SetDelegation(&types.Delegation{Delegator: "alice", Delegate: "bob"}))
	require.NoError(t, s.SetDelegation(&types.Delegation{Delegator: "carol", Delegate: "bob"}))

	// Overwrite repoints the single outgoing edge.
	require.NoError(t, s.SetDelegation(&types.Delegation{Delegator: "alice", Delegate: "dave"}))

	d, err := s.Delegation("alice")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "dave", d.Delegate)

	ds, err := s.Delegators("bob")
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "carol", ds[0].Delegator)

	require.NoError(t, s.RemoveDelegation("carol"))
	require.NoError(t, s.RemoveDelegation("carol"))
	ds, err = s.Delegators("bob")
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestRoleWeightUpsert(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.SetRoleWeight(&types.RoleWeight{ProposalID: 0, Role: types.RoleProvider, Weight: 2}))
	require.NoError(t, s.SetRoleWeight(&types.RoleWeight{ProposalID: 0, Role: types.RoleProvider, Weight: 4}))

	w, err := s.RoleWeights(0)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{types.RoleProvider: 4}, w)

	w, err = s.RoleWeights(7)
	require.NoError(t, err)
	assert.Empty(t, w)
}

func TestDirectoryReads(t *testing.T) {
	s := testDB(t)
	testMembers(t, s)

	active, err := s.IsActiveMember("alice", 100)
	require.NoError(t, err)
	assert.True(t, active)

	// Expiry height is exclusive of activity.
	active, err = s.IsActiveMember("xena", 49)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = s.IsActiveMember("xena", 50)
	require.NoError(t, err)
	assert.False(t, active)

	// Pending membership is not active membership; unknown principals are
	// simply not members.
	active, err = s.IsActiveMember("paula", 100)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = s.IsActiveMember("nobody", 100)
	require.NoError(t, err)
	assert.False(t, active)

	role, err := s.Role("alice")
	require.NoError(t, err)
	assert.Equal(t, types.RoleProvider, role)
	_, err = s.Role("nobody")
	require.ErrorIs(t, err, engine.ErrNotAMember)

	credits, err := s.Credits("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), credits)

	admin, err := s.IsAdmin("carol")
	require.NoError(t, err)
	assert.True(t, admin)
	admin, err = s.IsAdmin("alice")
	require.NoError(t, err)
	assert.False(t, admin)
}

func testMembers(t *testing.T, s *store.DB) []types.Member {
	t.Helper()
	members := []types.Member{
		{Address: "alice", Role: types.RoleProvider, Status: types.MemberStatusActive, Credits: 100},
		{Address: "carol", Role: types.RoleAdmin, Status: types.MemberStatusActive, IsAdmin: true},
		{Address: "xena", Role: types.RolePatient, Status: types.MemberStatusActive, ExpiresAt: 50},
		{Address: "paula", Role: types.RolePatient, Status: types.MemberStatusPending},
	}
	for i := range members {
		require.NoError(t, s.PutMember(&members[i]))
	}
	return members
}

func TestTreasuryActions(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.AddTreasuryAction(&types.TreasuryAction{ProposalID: 3, Recipient: "r", Amount: 100}))

	a, err := s.TreasuryAction(3)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.False(t, a.Dispatched)

	require.NoError(t, s.MarkTreasuryDispatched(3))
	a, err = s.TreasuryAction(3)
	require.NoError(t, err)
	assert.True(t, a.Dispatched)

	a, err = s.TreasuryAction(4)
	require.NoError(t, err)
	assert.Nil(t, a)
}

// The engine runs unmodified on the SQL-backed store; this is the same
// lifecycle the memstore tests cover, pushed through real transactions.
func TestEngineOnSQL(t *testing.T) {
	s := testDB(t)
	testMembers(t, s)
	require.NoError(t, s.PutMember(&types.Member{Address: "bob", Role: types.RolePatient, Status: types.MemberStatusActive}))

	clock := &fakeClock{h: 100}
	eng := engine.New(s, s, s, clock, engine.Config{DefaultQuorum: 1})

	p, err := eng.CreateProposal("alice", engine.ProposalInput{
		Title: "Fund the clinic", Category: types.CategoryTreasury,
		Mechanism: types.MechanismSimple, VoteStart: 100, VoteEnd: 200, Quorum: 2,
		ExecRecipient: "recipient", ExecAmount: 12,
	})
	require.NoError(t, err)
	require.NoError(t, eng.SubmitProposal("alice", p.ID))
	require.NoError(t, eng.SponsorProposal("bob", p.ID))

	_, err = eng.CastVote("bob", p.ID, types.ChoiceFor)
	require.NoError(t, err)
	_, err = eng.CastVote("bob", p.ID, types.ChoiceFor)
	require.ErrorIs(t, err, engine.ErrAlreadyVoted)
	_, err = eng.CastVote("carol", p.ID, types.ChoiceFor)
	require.NoError(t, err)

	clock.h = 200
	out, err := eng.Finalize("anyone", p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPassed, out.Status)

	action, err := eng.TreasuryAction(p.ID)
	require.NoError(t, err)
	require.NotNil(t, action)

	trail, err := eng.AuditTrail(p.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 7)
}

type fakeClock struct{ h uint64 }

func (c *fakeClock) Height() uint64 { return c.h }
