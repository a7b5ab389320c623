package engine

import "github.com/stake-plus/member-gov/src/govd/types"

// Outcome is the finalization verdict for a proposal.
type Outcome struct {
	Status        string
	Participation uint64
	QuorumMet     bool
}

// evaluateOutcome decides the terminal status from the accumulated tallies.
// Abstentions count toward participation but never toward the for/against
// comparison; exact ties fail. A proposal nobody voted on expires rather than
// fails so auditors can tell apathy from rejection.
func evaluateOutcome(p *types.Proposal) Outcome {
	participation := p.VotesFor + p.VotesAgainst + p.VotesAbstain

	if participation == 0 {
		return Outcome{Status: types.StatusExpired, Participation: 0, QuorumMet: false}
	}
	if participation < p.Quorum {
		return Outcome{Status: types.StatusFailed, Participation: participation, QuorumMet: false}
	}
	if p.VotesFor > p.VotesAgainst {
		return Outcome{Status: types.StatusPassed, Participation: participation, QuorumMet: true}
	}
	return Outcome{Status: types.StatusFailed, Participation: participation, QuorumMet: true}
}
