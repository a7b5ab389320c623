package data

import "time"

// BlockClock derives the ambient ledger height from wall time: one block per
// BlockSeconds since GenesisUnix. All proposal windows and membership expiry
// compare against this height.
type BlockClock struct {
	GenesisUnix  int64
	BlockSeconds int64
}

func (c BlockClock) Height() uint64 {
	secs := time.Now().Unix() - c.GenesisUnix
	if secs < 0 || c.BlockSeconds <= 0 {
		return 0
	}
	return uint64(secs / c.BlockSeconds)
}
