// internal/infra/solana/instructions.go
package solana

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	bridgedom "solana-bridge/internal/domain/bridge"
)

// Anchor instruction names.
const (
	IxInitializeBridge = "initialize_bridge"
	IxNewRequest       = "new_request"
	IxCreateNFT        = "create_nft"
	IxBurnToken        = "burn_token"
)

type initializeArgs struct {
	Seed uint64
}

type newRequestArgs struct {
	RequestID string
}

// anchorData = sha256("global:<name>")[:8] || borsh(args)
func anchorData(name string, args any) ([]byte, error) {
	disc := bridgedom.InstructionDiscriminator(name)
	if args == nil {
		return disc[:], nil
	}
	body, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("solana: serialize %s args: %w", name, err)
	}
	return append(disc[:], body...), nil
}

// InitializeBridgeIx
// Accounts:
// 0. [writable] bridge
// 1. [writable,signer] signer
// 2. [] system program
func InitializeBridgeIx(programID, bridge, signer common.PublicKey, seed uint64) (types.Instruction, error) {
	data, err := anchorData(IxInitializeBridge, initializeArgs{Seed: seed})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{PubKey: bridge, IsSigner: false, IsWritable: true},
			{PubKey: signer, IsSigner: true, IsWritable: true},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

type NewRequestAccounts struct {
	Bridge        common.PublicKey
	Mint          common.PublicKey
	UserHolding   common.PublicKey
	BridgeHolding common.PublicKey
	Backend       common.PublicKey
}

// NewRequestIx
// Accounts:
// 0. [writable] bridge
// 1. [writable] mint
// 2. [writable] user token account
// 3. [writable] bridge token account (init: 同一 mint の 2 回目は already in use)
// 4. [writable,signer] backend
// 5. [] system program
// 6. [] token program
// 7. [] associated token program
func NewRequestIx(programID common.PublicKey, a NewRequestAccounts, requestID string) (types.Instruction, error) {
	data, err := anchorData(IxNewRequest, newRequestArgs{RequestID: requestID})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{PubKey: a.Bridge, IsSigner: false, IsWritable: true},
			{PubKey: a.Mint, IsSigner: false, IsWritable: true},
			{PubKey: a.UserHolding, IsSigner: false, IsWritable: true},
			{PubKey: a.BridgeHolding, IsSigner: false, IsWritable: true},
			{PubKey: a.Backend, IsSigner: true, IsWritable: true},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SPLAssociatedTokenAccountProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

type CreateNFTAccounts struct {
	Bridge    common.PublicKey
	Backend   common.PublicKey
	Mint      common.PublicKey
	Holding   common.PublicKey
	Recipient common.PublicKey
	Edition   common.PublicKey
	Metadata  common.PublicKey
}

// CreateNFTArgs は borsh でそのまま直列化する（field 順 = 命令引数順）。
type CreateNFTArgs struct {
	ID        uint64
	SeedP1    string
	SeedP2    string
	Name      string
	Symbol    string
	URI       string
	RequestID string
}

// CreateNFTIx
// Accounts:
// 0.  [writable] bridge
// 1.  [writable,signer] backend
// 2.  [writable] mint (PDA, init)
// 3.  [writable] destination token account (init_if_needed)
// 4.  [] associated token program
// 5.  [] recipient
// 6.  [] rent sysvar
// 7.  [] system program
// 8.  [] token program
// 9.  [] metadata program
// 10. [writable] master edition
// 11. [writable] metadata
func CreateNFTIx(programID common.PublicKey, a CreateNFTAccounts, args CreateNFTArgs) (types.Instruction, error) {
	data, err := anchorData(IxCreateNFT, args)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{PubKey: a.Bridge, IsSigner: false, IsWritable: true},
			{PubKey: a.Backend, IsSigner: true, IsWritable: true},
			{PubKey: a.Mint, IsSigner: false, IsWritable: true},
			{PubKey: a.Holding, IsSigner: false, IsWritable: true},
			{PubKey: common.SPLAssociatedTokenAccountProgramID, IsSigner: false, IsWritable: false},
			{PubKey: a.Recipient, IsSigner: false, IsWritable: false},
			{PubKey: common.SysVarRentPubkey, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.MetaplexTokenMetaProgramID, IsSigner: false, IsWritable: false},
			{PubKey: a.Edition, IsSigner: false, IsWritable: true},
			{PubKey: a.Metadata, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}, nil
}

type BurnTokenAccounts struct {
	Bridge        common.PublicKey
	Mint          common.PublicKey
	BridgeHolding common.PublicKey
	Backend       common.PublicKey
}

// BurnTokenIx
// Accounts:
// 0. [writable] bridge
// 1. [writable] mint
// 2. [writable] bridge token account
// 3. [writable,signer] backend
// 4. [] token program
// 5. [] system program
func BurnTokenIx(programID common.PublicKey, a BurnTokenAccounts) (types.Instruction, error) {
	data, err := anchorData(IxBurnToken, nil)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{PubKey: a.Bridge, IsSigner: false, IsWritable: true},
			{PubKey: a.Mint, IsSigner: false, IsWritable: true},
			{PubKey: a.BridgeHolding, IsSigner: false, IsWritable: true},
			{PubKey: a.Backend, IsSigner: true, IsWritable: true},
			{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}
