package bet

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/protocol"
)

func TestDecodeRejectsUndersized(t *testing.T) {
	if _, err := DecodeMarketConfig(make([]byte, MarketConfigLen-1)); !errors.Is(err, protocol.ErrDataTypeMismatch) {
		t.Errorf("market config: err = %v, want ErrDataTypeMismatch", err)
	}
	if _, err := DecodeBetRecord(make([]byte, BetRecordLen-1)); !errors.Is(err, protocol.ErrDataTypeMismatch) {
		t.Errorf("bet record: err = %v, want ErrDataTypeMismatch", err)
	}
	if _, err := DecodeAcceptedBetRecord(nil); !errors.Is(err, protocol.ErrDataTypeMismatch) {
		t.Errorf("accepted record: err = %v, want ErrDataTypeMismatch", err)
	}
}

func TestEncodeRejectsUndersized(t *testing.T) {
	rec := &BetRecord{Initialized: true}
	if err := rec.Encode(make([]byte, BetRecordLen-1)); !errors.Is(err, protocol.ErrDataTypeMismatch) {
		t.Errorf("err = %v, want ErrDataTypeMismatch", err)
	}
}

func TestBetRecordRoundTrip(t *testing.T) {
	rec := &BetRecord{
		Initialized:     true,
		Market:          common.HexToHash("0x01"),
		Creator:         common.HexToHash("0x02"),
		CreatorPayment:  common.HexToHash("0x03"),
		Escrow:          common.HexToHash("0x04"),
		Odds:            150,
		BetSize:         1_000_000,
		OracleProduct:   common.HexToHash("0x05"),
		OraclePrice:     common.HexToHash("0x06"),
		ExpirationTime:  1_900_000_000,
		Direction:       Below,
		BetPrice:        -250, // negative price targets survive the trip
		Cancel:          CancelCondition{AbovePrice: 60_000, BelowPrice: -100, Time: 1_850_000_000},
		StartPrice:      50_000,
		HasVariableOdds: true,
		VariableOdds:    100,
		TotalAccepted:   42,
		Cancelled:       true,
	}

	data := make([]byte, BetRecordLen)
	if err := rec.Encode(data); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBetRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *rec {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestZeroedDataDecodesUninitialized(t *testing.T) {
	rec, err := DecodeBetRecord(make([]byte, BetRecordLen))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Initialized {
		t.Error("zeroed account decoded as initialized")
	}

	cfg, err := DecodeMarketConfig(make([]byte, MarketConfigLen))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Initialized {
		t.Error("zeroed market decoded as initialized")
	}
}

func TestMarketConfigMode(t *testing.T) {
	native := &MarketConfig{NativePayment: true}
	if native.Mode().String() != "native" {
		t.Errorf("mode = %s, want native", native.Mode())
	}
	asset := &MarketConfig{HasMint: true, PaymentMint: common.HexToHash("0x07")}
	if asset.Mode().String() != "asset" {
		t.Errorf("mode = %s, want asset", asset.Mode())
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("above"); err != nil || d != Above {
		t.Errorf("ParseDirection(above) = %v, %v", d, err)
	}
	if d, err := ParseDirection("below"); err != nil || d != Below {
		t.Errorf("ParseDirection(below) = %v, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, protocol.ErrInvalidInstruction) {
		t.Errorf("err = %v, want ErrInvalidInstruction", err)
	}
}
