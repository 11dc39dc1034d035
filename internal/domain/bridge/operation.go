// internal/domain/bridge/operation.go
package bridge

import "github.com/blocto/solana-go-sdk/common"

// ========================================
// 入出力（各オペレーションの契約）
// ========================================

// Receipt is the committed outcome of one transaction.
type Receipt struct {
	Signature string
	Logs      []string
	Events    []Event
}

type InitializeParams struct {
	Signer common.PublicKey // becomes the authority
	Seed   uint64
}

type InitializeResult struct {
	Bridge  common.PublicKey
	Bump    uint8
	Receipt Receipt
}

// RequestParams moves one unit of Mint from UserHolding into custody.
type RequestParams struct {
	Bridge      common.PublicKey
	Backend     common.PublicKey
	Mint        common.PublicKey
	UserHolding common.PublicKey
	RequestID   string
}

type RequestResult struct {
	BridgeHolding common.PublicKey
	Event         Event
	Receipt       Receipt
}

// BurnParams destroys one custodied unit. A zero BridgeHolding means
// the bridge's associated holding for Mint.
type BurnParams struct {
	Bridge        common.PublicKey
	Backend       common.PublicKey
	Mint          common.PublicKey
	BridgeHolding common.PublicKey
}

type BurnResult struct {
	BridgeHolding common.PublicKey
	Receipt       Receipt
}

// IssueParams creates a unique asset for Recipient.
// SeedP1/SeedP2/ID only feed the mint derivation.
type IssueParams struct {
	Bridge    common.PublicKey
	Backend   common.PublicKey
	Recipient common.PublicKey
	ID        uint64
	SeedP1    string
	SeedP2    string
	Name      string
	Symbol    string
	URI       string
	RequestID string
}

type IssueResult struct {
	Mint     common.PublicKey
	Holding  common.PublicKey
	Metadata common.PublicKey
	Edition  common.PublicKey
	Event    Event
	Receipt  Receipt
}
