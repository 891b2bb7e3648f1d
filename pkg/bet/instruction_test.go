package bet

import (
	"errors"
	"testing"

	"github.com/openwager/wagerd/pkg/protocol"
)

func TestInstructionRoundTrip(t *testing.T) {
	divisor := int64(250)
	in := NewCreateBetInstruction(
		creatorID, creatorPayID, betStateID, betEscrowID, productID, txPriceID, marketID,
		CreateBetArgs{
			BetSize:          500,
			Odds:             120,
			ExpirationTime:   t0 + 60,
			Direction:        "below",
			BetPrice:         -10,
			CancelAbovePrice: 100,
			CancelBelowPrice: -100,
			CancelTime:       t0 + 30,
			VariableOdds:     &divisor,
		})

	raw, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeInstruction(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Type != TxCreateBet {
		t.Errorf("type = %s, want %s", got.Type, TxCreateBet)
	}
	if len(got.Accounts) != createBetAccounts {
		t.Fatalf("accounts = %d, want %d", len(got.Accounts), createBetAccounts)
	}
	if !got.Accounts[0].Signer || got.Accounts[0].ID != creatorID {
		t.Errorf("creator meta = %+v", got.Accounts[0])
	}
	if got.CreateBet == nil || got.CreateBet.BetPrice != -10 {
		t.Errorf("args = %+v", got.CreateBet)
	}
	if got.CreateBet.VariableOdds == nil || *got.CreateBet.VariableOdds != 250 {
		t.Errorf("variable odds = %v", got.CreateBet.VariableOdds)
	}
}

func TestDecodeInstructionRejectsGarbage(t *testing.T) {
	if _, err := DecodeInstruction([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	// Unknown tag.
	in := &Instruction{Type: "transfer"}
	if err := in.Validate(); !errors.Is(err, protocol.ErrInvalidInstruction) {
		t.Errorf("unknown tag: err = %v, want ErrInvalidInstruction", err)
	}

	// Right tag, wrong account count.
	in = NewCancelBetInstruction(creatorID, creatorPayID, betStateID, betEscrowID, marketID)
	in.Accounts = in.Accounts[:3]
	if err := in.Validate(); !errors.Is(err, protocol.ErrInvalidInstruction) {
		t.Errorf("short accounts: err = %v, want ErrInvalidInstruction", err)
	}

	// Tagged payload without its argument body.
	in = NewAcceptBetInstruction(
		acceptorID, acceptorPayID, betStateID, betEscrowID, accStateID, accEscrowID,
		productID, txPriceID, marketID, AcceptBetArgs{BetSize: 1})
	in.AcceptBet = nil
	if err := in.Validate(); !errors.Is(err, protocol.ErrInvalidInstruction) {
		t.Errorf("missing args: err = %v, want ErrInvalidInstruction", err)
	}
}
