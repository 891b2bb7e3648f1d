package escrow

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

var (
	programID      = common.HexToHash("0x01")
	tokenProgramID = common.HexToHash("0x02")
	mintID         = common.HexToHash("0x03")
	aliceID        = common.HexToHash("0xa1")
	escrowID       = common.HexToHash("0xe1")
	destID         = common.HexToHash("0xd1")
)

func newAssetAcc(id, owner, authority common.Hash, amount uint64) *ledger.Account {
	acc := &ledger.Account{ID: id, Owner: owner, Data: make([]byte, AssetAccountLen)}
	InitAssetAccount(acc, mintID, authority, amount)
	return acc
}

func TestDeriveAuthorityIsStable(t *testing.T) {
	a := DeriveAuthority(AuthorityTag, escrowID)
	b := DeriveAuthority(AuthorityTag, escrowID)
	if a != b {
		t.Error("derivation not deterministic")
	}
	if a == DeriveAuthority(AuthorityTag, destID) {
		t.Error("different escrows derived the same authority")
	}
	if a == (common.Hash{}) {
		t.Error("derived authority is zero")
	}
}

func TestNativeLockRequiresProgramOwner(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)

	escrow := &ledger.Account{ID: escrowID, Owner: programID, Balance: 1000}
	if err := c.Lock(Native, escrow, aliceID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}

	stray := &ledger.Account{ID: escrowID, Owner: aliceID, Balance: 1000}
	if err := c.Lock(Native, stray, aliceID, true); !errors.Is(err, protocol.ErrIncorrectOwner) {
		t.Errorf("err = %v, want ErrIncorrectOwner", err)
	}
}

func TestAssetLockReassignsAuthority(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)
	escrow := newAssetAcc(escrowID, tokenProgramID, aliceID, 1000)

	if err := c.Lock(Asset, escrow, aliceID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}

	asset, err := ParseAssetAccount(escrow.Data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := DeriveAuthority(AuthorityTag, escrowID)
	if asset.Authority != want {
		t.Errorf("authority = %s, want derived %s", asset.Authority, want)
	}
}

func TestAssetLockRejections(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)

	// Missing signature.
	escrow := newAssetAcc(escrowID, tokenProgramID, aliceID, 1000)
	if err := c.Lock(Asset, escrow, aliceID, false); !errors.Is(err, protocol.ErrIncorrectSigner) {
		t.Errorf("unsigned: err = %v, want ErrIncorrectSigner", err)
	}

	// Signer is not the current transfer authority.
	other := common.HexToHash("0xb2")
	if err := c.Lock(Asset, escrow, other, true); !errors.Is(err, protocol.ErrUnauthorizedAccount) {
		t.Errorf("wrong authority: err = %v, want ErrUnauthorizedAccount", err)
	}

	// Not a token account at all.
	plain := &ledger.Account{ID: escrowID, Owner: aliceID, Data: make([]byte, AssetAccountLen)}
	if err := c.Lock(Asset, plain, aliceID, true); !errors.Is(err, protocol.ErrIsNotAssetAccount) {
		t.Errorf("plain account: err = %v, want ErrIsNotAssetAccount", err)
	}
}

func TestMoveOutRequiresDerivedAuthority(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)

	// Never locked: still under the user's authority.
	escrow := newAssetAcc(escrowID, tokenProgramID, aliceID, 1000)
	dest := newAssetAcc(destID, tokenProgramID, aliceID, 0)
	if err := c.MoveOut(Asset, escrow, dest, 100); !errors.Is(err, protocol.ErrUnauthorizedAccount) {
		t.Errorf("unlocked escrow: err = %v, want ErrUnauthorizedAccount", err)
	}

	if err := c.Lock(Asset, escrow, aliceID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := c.MoveOut(Asset, escrow, dest, 100); err != nil {
		t.Fatalf("move out: %v", err)
	}

	srcAsset, _ := ParseAssetAccount(escrow.Data)
	dstAsset, _ := ParseAssetAccount(dest.Data)
	if srcAsset.Amount != 900 || dstAsset.Amount != 100 {
		t.Errorf("amounts = %d/%d, want 900/100", srcAsset.Amount, dstAsset.Amount)
	}
}

func TestMoveOutMintMismatch(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)

	escrow := newAssetAcc(escrowID, tokenProgramID, DeriveAuthority(AuthorityTag, escrowID), 1000)
	dest := &ledger.Account{ID: destID, Owner: tokenProgramID, Data: make([]byte, AssetAccountLen)}
	InitAssetAccount(dest, common.HexToHash("0x99"), aliceID, 0)

	if err := c.MoveOut(Asset, escrow, dest, 100); !errors.Is(err, protocol.ErrInvalidMint) {
		t.Errorf("err = %v, want ErrInvalidMint", err)
	}
}

func TestNativeMoveOutChecked(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)
	escrow := &ledger.Account{ID: escrowID, Owner: programID, Balance: 100}
	dest := &ledger.Account{ID: destID, Balance: 0}

	if err := c.MoveOut(Native, escrow, dest, 101); !errors.Is(err, protocol.ErrAmountUnderflow) {
		t.Errorf("overdraft: err = %v, want ErrAmountUnderflow", err)
	}
	// Nothing moved on the failed attempt.
	if escrow.Balance != 100 || dest.Balance != 0 {
		t.Errorf("balances mutated on failure: %d/%d", escrow.Balance, dest.Balance)
	}

	if err := c.MoveOut(Native, escrow, dest, 100); err != nil {
		t.Fatalf("move out: %v", err)
	}
	if escrow.Balance != 0 || dest.Balance != 100 {
		t.Errorf("balances = %d/%d, want 0/100", escrow.Balance, dest.Balance)
	}
}

func TestPullIn(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)

	src := &ledger.Account{ID: aliceID, Balance: 500}
	dest := &ledger.Account{ID: escrowID, Owner: programID, Balance: 0}

	if err := c.PullIn(Native, src, dest, aliceID, false, 100); !errors.Is(err, protocol.ErrIncorrectSigner) {
		t.Errorf("unsigned: err = %v, want ErrIncorrectSigner", err)
	}

	// The payer can only debit their own account.
	other := &ledger.Account{ID: destID, Balance: 500}
	if err := c.PullIn(Native, other, dest, aliceID, true, 100); !errors.Is(err, protocol.ErrUnauthorizedAccount) {
		t.Errorf("foreign account: err = %v, want ErrUnauthorizedAccount", err)
	}

	if err := c.PullIn(Native, src, dest, aliceID, true, 100); err != nil {
		t.Fatalf("pull in: %v", err)
	}
	if src.Balance != 400 || dest.Balance != 100 {
		t.Errorf("balances = %d/%d, want 400/100", src.Balance, dest.Balance)
	}
}

func TestPullInAssetAuthority(t *testing.T) {
	c := NewCustody(programID, tokenProgramID)

	src := newAssetAcc(aliceID, tokenProgramID, aliceID, 500)
	dest := newAssetAcc(escrowID, tokenProgramID, DeriveAuthority(AuthorityTag, escrowID), 0)

	other := common.HexToHash("0xb2")
	if err := c.PullIn(Asset, src, dest, other, true, 100); !errors.Is(err, protocol.ErrUnauthorizedAccount) {
		t.Errorf("wrong payer: err = %v, want ErrUnauthorizedAccount", err)
	}

	if err := c.PullIn(Asset, src, dest, aliceID, true, 100); err != nil {
		t.Fatalf("pull in: %v", err)
	}
	from, _ := ParseAssetAccount(src.Data)
	to, _ := ParseAssetAccount(dest.Data)
	if from.Amount != 400 || to.Amount != 100 {
		t.Errorf("amounts = %d/%d, want 400/100", from.Amount, to.Amount)
	}
}
