// internal/ledger/metaprog/program.go
package metaprog

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"

	"solana-bridge/internal/ledger"
	"solana-bridge/internal/ledger/tokenprog"
	"solana-bridge/internal/program/pda"
)

// Limits
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxSellerFee    = 10000
)

// Errors
var (
	ErrNameTooLong          = errors.New("metadata: name too long")
	ErrSymbolTooLong        = errors.New("metadata: symbol too long")
	ErrURITooLong           = errors.New("metadata: uri too long")
	ErrInvalidSellerFee     = errors.New("metadata: invalid seller fee basis points")
	ErrMetadataNotFound     = errors.New("metadata: metadata account not found")
	ErrEditionNeedsOneToken = errors.New("metadata: editions must have exactly one token")
	ErrEditionDecimals      = errors.New("metadata: edition mint must have zero decimals")
)

// Program is the metadata/edition service: Metaplex semantics over the ledger.
type Program struct {
	id     common.PublicKey
	tokens *tokenprog.Program
}

func New(tokens *tokenprog.Program) *Program {
	return &Program{id: common.MetaplexTokenMetaProgramID, tokens: tokens}
}

func (p *Program) ID() common.PublicKey { return p.id }

// MetadataOf decodes the metadata record of mint.
func (p *Program) MetadataOf(r ledger.Reader, mint common.PublicKey) (Metadata, error) {
	addr, err := pda.MetadataAddress(mint)
	if err != nil {
		return Metadata{}, err
	}
	acc, ok := r.Account(addr)
	if !ok || acc.Owner != p.id {
		return Metadata{}, ErrMetadataNotFound
	}
	return DecodeMetadata(acc.Data)
}

// EditionOf decodes the master edition of mint.
func (p *Program) EditionOf(r ledger.Reader, mint common.PublicKey) (MasterEdition, error) {
	addr, err := pda.EditionAddress(mint)
	if err != nil {
		return MasterEdition{}, err
	}
	acc, ok := r.Account(addr)
	if !ok || acc.Owner != p.id {
		return MasterEdition{}, fmt.Errorf("%w: edition %s", ledger.ErrAccountNotFound, addr.ToBase58())
	}
	return DecodeMasterEdition(acc.Data)
}

// CreateMetadata anchors data to mint. authority must be the mint authority
// and becomes the update authority.
func (p *Program) CreateMetadata(
	tx *ledger.Tx,
	mint, payer common.PublicKey,
	authority ledger.Authority,
	data token_metadata.DataV2,
	isMutable bool,
) (common.PublicKey, error) {
	if err := tx.RequireSigner(payer); err != nil {
		return common.PublicKey{}, err
	}
	if err := validateData(data); err != nil {
		return common.PublicKey{}, err
	}
	m, err := p.tokens.MintOf(tx, mint)
	if err != nil {
		return common.PublicKey{}, err
	}
	if m.MintAuthority == nil {
		return common.PublicKey{}, tokenprog.ErrFixedSupply
	}
	if err := tx.Authorize(authority, *m.MintAuthority); err != nil {
		return common.PublicKey{}, err
	}

	addr, err := pda.MetadataAddress(mint)
	if err != nil {
		return common.PublicKey{}, err
	}
	raw, err := Metadata{
		Key:                  keyMetadataV1,
		UpdateAuthority:      authority.Address(),
		Mint:                 mint,
		Name:                 data.Name,
		Symbol:               data.Symbol,
		URI:                  data.Uri,
		SellerFeeBasisPoints: data.SellerFeeBasisPoints,
		HasCreators:          data.Creators != nil,
		IsMutable:            isMutable,
	}.encode()
	if err != nil {
		return common.PublicKey{}, err
	}
	if err := tx.Create(p.id, addr, raw); err != nil {
		return common.PublicKey{}, err
	}
	tx.Logf("IX: Create Metadata Accounts v3")
	return addr, nil
}

// CreateEditionMarker fixes the copies of mint at maxSupply (nil = unlimited)
// and hands the mint and freeze authorities to the edition account, so the
// mint's supply can no longer change through its former authority.
func (p *Program) CreateEditionMarker(
	tx *ledger.Tx,
	mint, payer common.PublicKey,
	authority ledger.Authority,
	maxSupply *uint64,
) (common.PublicKey, error) {
	if err := tx.RequireSigner(payer); err != nil {
		return common.PublicKey{}, err
	}
	md, err := p.MetadataOf(tx, mint)
	if err != nil {
		return common.PublicKey{}, err
	}
	if err := tx.Authorize(authority, md.UpdateAuthority); err != nil {
		return common.PublicKey{}, err
	}
	m, err := p.tokens.MintOf(tx, mint)
	if err != nil {
		return common.PublicKey{}, err
	}
	if m.Decimals != 0 {
		return common.PublicKey{}, ErrEditionDecimals
	}
	if m.Supply != 1 {
		return common.PublicKey{}, ErrEditionNeedsOneToken
	}

	addr, err := pda.EditionAddress(mint)
	if err != nil {
		return common.PublicKey{}, err
	}
	ed := MasterEdition{Key: keyMasterEditionV2}
	if maxSupply != nil {
		ed.HasMaxSupply = true
		ed.MaxSupply = *maxSupply
	}
	raw, err := ed.encode()
	if err != nil {
		return common.PublicKey{}, err
	}
	if err := tx.Create(p.id, addr, raw); err != nil {
		return common.PublicKey{}, err
	}

	if err := p.tokens.SetAuthority(tx, mint, tokenprog.AuthorityMintTokens, authority, &addr); err != nil {
		return common.PublicKey{}, err
	}
	if m.FreezeAuthority != nil && *m.FreezeAuthority == authority.Address() {
		if err := p.tokens.SetAuthority(tx, mint, tokenprog.AuthorityFreezeAccount, authority, &addr); err != nil {
			return common.PublicKey{}, err
		}
	}
	tx.Logf("IX: Create Master Edition V3")
	return addr, nil
}

func validateData(d token_metadata.DataV2) error {
	switch {
	case len(d.Name) > MaxNameLength:
		return ErrNameTooLong
	case len(d.Symbol) > MaxSymbolLength:
		return ErrSymbolTooLong
	case len(d.Uri) > MaxURILength:
		return ErrURITooLong
	case d.SellerFeeBasisPoints > MaxSellerFee:
		return ErrInvalidSellerFee
	}
	return nil
}
