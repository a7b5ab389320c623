package engine

import (
	"fmt"

	"github.com/stake-plus/member-gov/src/govd/types"
)

// resolvePower computes the effective power a voter applies to a ballot on the
// given proposal: the voter's own base power plus the base power of every
// principal who delegated directly to them. Only one hop is honored; a
// delegator's own delegators do not transfer.
func (e *Engine) resolvePower(s Store, voter string, p *types.Proposal, at uint64) (uint64, error) {
	active, err := e.dir.IsActiveMember(voter, at)
	if err != nil {
		return 0, fmt.Errorf("membership lookup for %s: %w", voter, err)
	}
	if !active {
		return 0, ErrNotAMember
	}

	if d, err := s.Delegation(voter); err != nil {
		return 0, err
	} else if d != nil {
		return 0, ErrDelegated
	}

	weights, err := e.weightTable(s, p)
	if err != nil {
		return 0, err
	}

	power, err := e.basePower(voter, p.Mechanism, weights)
	if err != nil {
		return 0, err
	}

	delegators, err := s.Delegators(voter)
	if err != nil {
		return 0, err
	}
	for _, d := range delegators {
		active, err := e.dir.IsActiveMember(d.Delegator, at)
		if err != nil {
			return 0, fmt.Errorf("membership lookup for %s: %w", d.Delegator, err)
		}
		if !active {
			continue
		}
		dp, err := e.basePower(d.Delegator, p.Mechanism, weights)
		if err != nil {
			return 0, err
		}
		power += dp
	}

	return power, nil
}

// weightTable returns the proposal's override table when it has entries,
// otherwise the global table.
func (e *Engine) weightTable(s Store, p *types.Proposal) (map[string]uint64, error) {
	if p.Mechanism != types.MechanismRoleWeighted {
		return nil, nil
	}
	override, err := s.RoleWeights(p.ID)
	if err != nil {
		return nil, err
	}
	if len(override) > 0 {
		return override, nil
	}
	return s.RoleWeights(0)
}

func (e *Engine) basePower(address, mechanism string, weights map[string]uint64) (uint64, error) {
	switch mechanism {
	case types.MechanismSimple:
		return 1, nil
	case types.MechanismQuadratic:
		credits, err := e.dir.Credits(address)
		if err != nil {
			return 0, err
		}
		return isqrt(credits), nil
	case types.MechanismRoleWeighted:
		role, err := e.dir.Role(address)
		if err != nil {
			return 0, err
		}
		return weights[role], nil // unknown role weighs zero
	default:
		return 0, ErrInvalidMechanism
	}
}

// isqrt returns floor(sqrt(n)) using Newton's method on integers.
func isqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
