package escrow

import (
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

// AuthorityTag is the fixed namespace tag mixed into every derived escrow
// authority. Changing it invalidates custody of all existing escrows.
const AuthorityTag = "wagerd-escrow"

// Mode selects how an escrow holds stake.
type Mode uint8

const (
	// Native escrow: the protocol program directly owns a ledger account
	// holding native units.
	Native Mode = iota
	// Asset escrow: a fungible-asset token account whose transfer authority
	// is reassigned to a derived authority at lock time.
	Asset
)

func (m Mode) String() string {
	switch m {
	case Native:
		return "native"
	case Asset:
		return "asset"
	default:
		return "unknown"
	}
}

// DeriveAuthority computes the key-less custody authority for an escrow: a
// stable identifier derived from the namespace tag and the escrow's own
// address. No private key exists for it, so only the custody layer can
// present it as a transfer signer.
func DeriveAuthority(tag string, escrowID common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte(tag), escrowID[:])
}

// Custody moves stake in and out of escrow accounts the protocol never holds
// a private key for. All balance arithmetic is checked: a movement that would
// underflow the source or overflow the destination aborts the transition.
type Custody struct {
	ProgramID      common.Hash // owner of native escrows
	TokenProgramID common.Hash // owner of asset token accounts
}

func NewCustody(programID, tokenProgramID common.Hash) *Custody {
	return &Custody{ProgramID: programID, TokenProgramID: tokenProgramID}
}

// Balance returns the escrowed amount: native units for native mode, token
// amount for asset mode.
func (c *Custody) Balance(mode Mode, escrow *ledger.Account) (uint64, error) {
	switch mode {
	case Native:
		return escrow.Balance, nil
	case Asset:
		asset, err := c.assetAccount(escrow)
		if err != nil {
			return 0, err
		}
		return asset.Amount, nil
	default:
		return 0, protocol.ErrInvalidAccountInput
	}
}

// Mint returns the asset identity held by an asset-mode escrow.
func (c *Custody) Mint(escrow *ledger.Account) (common.Hash, error) {
	asset, err := c.assetAccount(escrow)
	if err != nil {
		return common.Hash{}, err
	}
	return asset.Mint, nil
}

// Lock takes custody of an escrow at bet creation. Asset mode reassigns the
// account's transfer authority from the signing owner to the derived
// authority; native mode verifies the protocol already owns the account.
// Called at most once per escrow: the coupled record creation rejects
// re-initialization.
func (c *Custody) Lock(mode Mode, escrow *ledger.Account, owner common.Hash, ownerSigned bool) error {
	switch mode {
	case Native:
		if escrow.Owner != c.ProgramID {
			return protocol.ErrIncorrectOwner
		}
		return nil

	case Asset:
		asset, err := c.assetAccount(escrow)
		if err != nil {
			return err
		}
		if !ownerSigned {
			return protocol.ErrIncorrectSigner
		}
		if asset.Authority != owner {
			return protocol.ErrUnauthorizedAccount
		}
		asset.Authority = DeriveAuthority(AuthorityTag, escrow.ID)
		return writeAssetAccount(escrow, asset)

	default:
		return protocol.ErrInvalidAccountInput
	}
}

// MoveOut debits the escrow and credits the destination, presenting the
// derived authority as signer for asset mode. The capability check is the
// authority comparison: an asset account that was never locked (or was locked
// for a different address) cannot be debited.
func (c *Custody) MoveOut(mode Mode, escrow, dest *ledger.Account, amount uint64) error {
	switch mode {
	case Native:
		newBal, err := checkedSub(escrow.Balance, amount)
		if err != nil {
			return err
		}
		newDest, err := checkedAdd(dest.Balance, amount)
		if err != nil {
			return err
		}
		escrow.Balance = newBal
		dest.Balance = newDest
		return nil

	case Asset:
		src, err := c.assetAccount(escrow)
		if err != nil {
			return err
		}
		if src.Authority != DeriveAuthority(AuthorityTag, escrow.ID) {
			return protocol.ErrUnauthorizedAccount
		}
		dst, err := c.assetAccount(dest)
		if err != nil {
			return err
		}
		if dst.Mint != src.Mint {
			return protocol.ErrInvalidMint
		}
		newSrc, err := checkedSub(src.Amount, amount)
		if err != nil {
			return err
		}
		newDst, err := checkedAdd(dst.Amount, amount)
		if err != nil {
			return err
		}
		src.Amount = newSrc
		dst.Amount = newDst
		if err := writeAssetAccount(escrow, src); err != nil {
			return err
		}
		return writeAssetAccount(dest, dst)

	default:
		return protocol.ErrInvalidAccountInput
	}
}

// PullIn moves funds from an external payment account into a custody
// account. The debit is authorized by signature: in native mode the payment
// account itself must be presented as a signer and payer is its address; in
// asset mode payer is the account's recorded transfer authority.
func (c *Custody) PullIn(mode Mode, src, dest *ledger.Account, payer common.Hash, payerSigned bool, amount uint64) error {
	if !payerSigned {
		return protocol.ErrIncorrectSigner
	}

	switch mode {
	case Native:
		if src.ID != payer {
			return protocol.ErrUnauthorizedAccount
		}
		newSrc, err := checkedSub(src.Balance, amount)
		if err != nil {
			return err
		}
		newDst, err := checkedAdd(dest.Balance, amount)
		if err != nil {
			return err
		}
		src.Balance = newSrc
		dest.Balance = newDst
		return nil

	case Asset:
		from, err := c.assetAccount(src)
		if err != nil {
			return err
		}
		if from.Authority != payer {
			return protocol.ErrUnauthorizedAccount
		}
		to, err := c.assetAccount(dest)
		if err != nil {
			return err
		}
		if to.Mint != from.Mint {
			return protocol.ErrInvalidMint
		}
		newFrom, err := checkedSub(from.Amount, amount)
		if err != nil {
			return err
		}
		newTo, err := checkedAdd(to.Amount, amount)
		if err != nil {
			return err
		}
		from.Amount = newFrom
		to.Amount = newTo
		if err := writeAssetAccount(src, from); err != nil {
			return err
		}
		return writeAssetAccount(dest, to)

	default:
		return protocol.ErrInvalidAccountInput
	}
}

// assetAccount checks token-program ownership and decodes the asset state.
func (c *Custody) assetAccount(acc *ledger.Account) (*AssetAccount, error) {
	if acc.Owner != c.TokenProgramID {
		return nil, protocol.ErrIsNotAssetAccount
	}
	return ParseAssetAccount(acc.Data)
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, protocol.ErrAmountUnderflow
	}
	return a - b, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, protocol.ErrAmountOverflow
	}
	return a + b, nil
}
