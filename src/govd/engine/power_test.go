package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
)

func TestSimpleMechanismOneMemberOneVote(t *testing.T) {
	f := newFixture(t)
	id := f.active(t, "alice", "bob", engine.ProposalInput{Mechanism: types.MechanismSimple})

	// alice holds 100 credits and the provider role, but simple majority
	// still grants a flat 1.
	v, err := f.eng.CastVote("dave", id, types.ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Power)
}

func TestQuadraticMechanism(t *testing.T) {
	f := newFixture(t)
	id := f.active(t, "alice", "bob", engine.ProposalInput{Mechanism: types.MechanismQuadratic})

	// dave holds 25 credits: floor(sqrt(25)) = 5.
	v, err := f.eng.CastVote("dave", id, types.ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v.Power)

	// bob holds 9 credits: 3.
	v, err = f.eng.CastVote("bob", id, types.ChoiceAgainst)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v.Power)

	// carol holds no credits: zero power, vote rejected.
	_, err = f.eng.CastVote("carol", id, types.ChoiceFor)
	require.ErrorIs(t, err, engine.ErrNoVotingPower)

	tally, err := f.eng.Tally(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tally.For)
	assert.Equal(t, uint64(3), tally.Against)
	assert.Equal(t, uint64(8), tally.PowerUsed)
}

func TestRoleWeightedMechanism(t *testing.T) {
	f := newFixture(t)
	id := f.active(t, "alice", "bob", engine.ProposalInput{Mechanism: types.MechanismRoleWeighted})

	// Global table: patient 1, provider 2, admin 3.
	v, err := f.eng.CastVote("dave", id, types.ChoiceFor) // provider
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.Power)

	v, err = f.eng.CastVote("carol", id, types.ChoiceAgainst) // admin
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v.Power)

	tally, err := f.eng.Tally(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tally.For)
	assert.Equal(t, uint64(3), tally.Against)
}

func TestRoleWeightedOverrideTable(t *testing.T) {
	f := newFixture(t)
	id := f.active(t, "alice", "bob", engine.ProposalInput{
		Mechanism:   types.MechanismRoleWeighted,
		RoleWeights: map[string]uint64{types.RoleProvider: 7},
	})

	// The override table wins wholesale over the global one.
	v, err := f.eng.CastVote("dave", id, types.ChoiceFor) // provider
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v.Power)

	// carol's admin role is absent from the override: weight 0, rejected.
	_, err = f.eng.CastVote("carol", id, types.ChoiceFor)
	require.ErrorIs(t, err, engine.ErrNoVotingPower)
}

func TestRoleWeightEntryLimit(t *testing.T) {
	f := newFixture(t)
	weights := make(map[string]uint64)
	for i := 0; i < 11; i++ {
		weights[string(rune('a'+i))] = 1
	}
	_, err := f.eng.CreateProposal("alice", engine.ProposalInput{
		Title: "x", Category: types.CategoryGeneral, Mechanism: types.MechanismRoleWeighted,
		VoteStart: 100, VoteEnd: 200, RoleWeights: weights,
	})
	require.ErrorIs(t, err, engine.ErrInvalidParameter)
}

func TestDelegationAggregatesOneHop(t *testing.T) {
	f := newFixture(t)
	id := f.active(t, "alice", "carol", engine.ProposalInput{Mechanism: types.MechanismQuadratic})

	// bob (9 credits -> 3) delegates to dave (25 credits -> 5).
	require.NoError(t, f.eng.SetDelegation("bob", "dave"))

	// A delegator cannot cast directly while delegated.
	_, err := f.eng.CastVote("bob", id, types.ChoiceFor)
	require.ErrorIs(t, err, engine.ErrDelegated)

	v, err := f.eng.CastVote("dave", id, types.ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), v.Power)
}

func TestDelegationDoesNotChain(t *testing.T) {
	f := newFixture(t)

	// alice (100 -> 10) delegates to bob, bob (9 -> 3) delegates to dave
	// (25 -> 5). Only bob's own power reaches dave; alice's stays behind
	// the first hop.
	require.NoError(t, f.eng.SetDelegation("alice", "bob"))
	require.NoError(t, f.eng.SetDelegation("bob", "dave"))

	id := f.active(t, "carol", "dave", engine.ProposalInput{Mechanism: types.MechanismQuadratic})
	v, err := f.eng.CastVote("dave", id, types.ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), v.Power)
}

func TestInactiveDelegatorContributesNothing(t *testing.T) {
	f := newFixture(t)
	f.ms.PutMember(types.Member{Address: "fading", Role: types.RolePatient, Status: types.MemberStatusActive, Credits: 100, ExpiresAt: 150})
	require.NoError(t, f.eng.SetDelegation("fading", "dave"))

	id := f.active(t, "alice", "bob", engine.ProposalInput{Mechanism: types.MechanismQuadratic, VoteStart: 100, VoteEnd: 400})

	// While fading is still active their 10 power rides along.
	v, err := f.eng.CastVote("dave", id, types.ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), v.Power)

	// Past expiry the delegation stops counting; power is fetched at cast
	// time, not pre-aggregated.
	f.clock.h = 150
	id2 := f.active(t, "alice", "bob", engine.ProposalInput{Mechanism: types.MechanismQuadratic, VoteStart: 100, VoteEnd: 400})
	v, err = f.eng.CastVote("dave", id2, types.ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v.Power)
}

func TestVotePowerSnapshotImmune(t *testing.T) {
	f := newFixture(t)
	id := f.active(t, "alice", "bob", engine.ProposalInput{Mechanism: types.MechanismQuadratic})

	v, err := f.eng.CastVote("dave", id, types.ChoiceFor)
	require.NoError(t, err)
	require.Equal(t, uint64(5), v.Power)

	// Credits change after the cast; the recorded vote and tallies do not.
	f.ms.PutMember(types.Member{Address: "dave", Role: types.RoleProvider, Status: types.MemberStatusActive, Credits: 10000})
	tally, err := f.eng.Tally(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tally.For)
}
