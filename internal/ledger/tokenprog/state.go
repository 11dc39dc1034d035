// internal/ledger/tokenprog/state.go
package tokenprog

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// SPL byte layouts
const (
	MintSize    = 82
	HoldingSize = 165
)

// Mint is the SPL mint account.
type Mint struct {
	MintAuthority   *common.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *common.PublicKey
}

type HoldingState uint8

const (
	HoldingUninitialized HoldingState = iota
	HoldingInitialized
	HoldingFrozen
)

// Holding is the SPL token account.
type Holding struct {
	Mint            common.PublicKey
	Owner           common.PublicKey
	Amount          uint64
	Delegate        *common.PublicKey
	State           HoldingState
	DelegatedAmount uint64
	CloseAuthority  *common.PublicKey
}

// COption<Pubkey>: u32 tag + 32 bytes
func putOptionKey(b []byte, k *common.PublicKey) {
	if k == nil {
		binary.LittleEndian.PutUint32(b[0:4], 0)
		clear(b[4:36])
		return
	}
	binary.LittleEndian.PutUint32(b[0:4], 1)
	copy(b[4:36], k.Bytes())
}

func optionKey(b []byte) (*common.PublicKey, error) {
	switch binary.LittleEndian.Uint32(b[0:4]) {
	case 0:
		return nil, nil
	case 1:
		k := common.PublicKeyFromBytes(b[4:36])
		return &k, nil
	default:
		return nil, fmt.Errorf("%w: bad option tag", ErrInvalidAccount)
	}
}

func (m Mint) Encode() []byte {
	b := make([]byte, MintSize)
	putOptionKey(b[0:36], m.MintAuthority)
	binary.LittleEndian.PutUint64(b[36:44], m.Supply)
	b[44] = m.Decimals
	if m.IsInitialized {
		b[45] = 1
	}
	putOptionKey(b[46:82], m.FreezeAuthority)
	return b
}

func DecodeMint(b []byte) (Mint, error) {
	if len(b) != MintSize {
		return Mint{}, fmt.Errorf("%w: mint size %d", ErrInvalidAccount, len(b))
	}
	auth, err := optionKey(b[0:36])
	if err != nil {
		return Mint{}, err
	}
	freeze, err := optionKey(b[46:82])
	if err != nil {
		return Mint{}, err
	}
	m := Mint{
		MintAuthority:   auth,
		Supply:          binary.LittleEndian.Uint64(b[36:44]),
		Decimals:        b[44],
		IsInitialized:   b[45] == 1,
		FreezeAuthority: freeze,
	}
	if !m.IsInitialized {
		return Mint{}, fmt.Errorf("%w: mint not initialized", ErrInvalidAccount)
	}
	return m, nil
}

func (h Holding) Encode() []byte {
	b := make([]byte, HoldingSize)
	copy(b[0:32], h.Mint.Bytes())
	copy(b[32:64], h.Owner.Bytes())
	binary.LittleEndian.PutUint64(b[64:72], h.Amount)
	putOptionKey(b[72:108], h.Delegate)
	b[108] = byte(h.State)
	// is_native: always None (b[109:121] zero)
	binary.LittleEndian.PutUint64(b[121:129], h.DelegatedAmount)
	putOptionKey(b[129:165], h.CloseAuthority)
	return b
}

func DecodeHolding(b []byte) (Holding, error) {
	if len(b) != HoldingSize {
		return Holding{}, fmt.Errorf("%w: holding size %d", ErrInvalidAccount, len(b))
	}
	delegate, err := optionKey(b[72:108])
	if err != nil {
		return Holding{}, err
	}
	closeAuth, err := optionKey(b[129:165])
	if err != nil {
		return Holding{}, err
	}
	h := Holding{
		Mint:            common.PublicKeyFromBytes(b[0:32]),
		Owner:           common.PublicKeyFromBytes(b[32:64]),
		Amount:          binary.LittleEndian.Uint64(b[64:72]),
		Delegate:        delegate,
		State:           HoldingState(b[108]),
		DelegatedAmount: binary.LittleEndian.Uint64(b[121:129]),
		CloseAuthority:  closeAuth,
	}
	if h.State == HoldingUninitialized || h.State > HoldingFrozen {
		return Holding{}, fmt.Errorf("%w: holding state %d", ErrInvalidAccount, h.State)
	}
	return h, nil
}
