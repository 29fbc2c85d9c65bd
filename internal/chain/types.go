package chain

import "time"

// ResultBlock is the result payload of the Tendermint "block" RPC method
type ResultBlock struct {
	BlockID BlockID `json:"block_id"`
	Block   *Block  `json:"block"`
}

// BlockID identifies a block by hash
type BlockID struct {
	Hash string `json:"hash"`
}

// Block is the subset of block metadata chainwait decodes.
// Transactions and evidence are not interpreted.
type Block struct {
	Header     Header `json:"header"`
	LastCommit Commit `json:"last_commit"`
}

// Header holds block header fields
type Header struct {
	ChainID string    `json:"chain_id"`
	Height  uint64    `json:"height,string"`
	Time    time.Time `json:"time"`
}

// Commit is the commit for the previous block carried inside a block
type Commit struct {
	Height uint64 `json:"height,string"`
	Round  int32  `json:"round"`
}

// Height returns the progress height used to pace the orchestrator,
// taken from the block's last commit.
func (b *Block) Height() uint64 {
	return b.LastCommit.Height
}
