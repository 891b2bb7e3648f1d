package oracle

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

var (
	oracleProgram = common.HexToHash("0x10")
	productID     = common.HexToHash("0x20")
	priceID       = common.HexToHash("0x21")
)

func newOraclePair() (product, price *ledger.Account) {
	product = &ledger.Account{ID: productID, Owner: oracleProgram}
	WriteProduct(product, priceID)
	price = &ledger.Account{ID: priceID, Owner: oracleProgram}
	WritePrice(price, -1500, 10)
	return product, price
}

func TestValidateAccepts(t *testing.T) {
	product, price := newOraclePair()
	var a Adapter

	if err := a.Validate(oracleProgram, product, price); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sample, err := a.CurrentPrice(price)
	if err != nil {
		t.Fatalf("current price: %v", err)
	}
	if sample.Value != -1500 {
		t.Errorf("value = %d, want -1500 (sign preserved)", sample.Value)
	}
	if sample.Confidence != 10 {
		t.Errorf("confidence = %d, want 10", sample.Confidence)
	}
}

func TestValidateRejectsForeignOwner(t *testing.T) {
	product, price := newOraclePair()
	var a Adapter

	product.Owner = common.HexToHash("0x99")
	if err := a.Validate(oracleProgram, product, price); !errors.Is(err, protocol.ErrInvalidOracleConfig) {
		t.Errorf("foreign product owner: err = %v, want ErrInvalidOracleConfig", err)
	}

	product.Owner = oracleProgram
	price.Owner = common.HexToHash("0x99")
	if err := a.Validate(oracleProgram, product, price); !errors.Is(err, protocol.ErrInvalidOracleConfig) {
		t.Errorf("foreign price owner: err = %v, want ErrInvalidOracleConfig", err)
	}
}

func TestValidateRejectsMismatchedPair(t *testing.T) {
	product, _ := newOraclePair()
	var a Adapter

	// Right program, but not the price account the product points at.
	other := &ledger.Account{ID: common.HexToHash("0x77"), Owner: oracleProgram}
	WritePrice(other, 100, 1)

	if err := a.Validate(oracleProgram, product, other); !errors.Is(err, protocol.ErrInvalidOracleConfig) {
		t.Errorf("err = %v, want ErrInvalidOracleConfig", err)
	}
}

func TestValidateRejectsBadHeader(t *testing.T) {
	product, price := newOraclePair()
	var a Adapter

	product.Data[0] ^= 0xff // corrupt magic
	if err := a.Validate(oracleProgram, product, price); !errors.Is(err, protocol.ErrInvalidOracleConfig) {
		t.Errorf("bad magic: err = %v, want ErrInvalidOracleConfig", err)
	}

	short := &ledger.Account{ID: productID, Owner: oracleProgram, Data: make([]byte, ProductAccountLen-1)}
	if err := a.Validate(oracleProgram, short, price); !errors.Is(err, protocol.ErrInvalidOracleConfig) {
		t.Errorf("short data: err = %v, want ErrInvalidOracleConfig", err)
	}
}

func TestCurrentPriceRejectsNonTrading(t *testing.T) {
	var a Adapter

	price := &ledger.Account{ID: priceID, Owner: oracleProgram}
	WritePriceStatus(price, 100, 1, StatusHalted)
	if _, err := a.CurrentPrice(price); !errors.Is(err, protocol.ErrInvalidPriceAccount) {
		t.Errorf("halted: err = %v, want ErrInvalidPriceAccount", err)
	}

	WritePriceStatus(price, 100, 1, StatusUnknown)
	if _, err := a.CurrentPrice(price); !errors.Is(err, protocol.ErrInvalidPriceAccount) {
		t.Errorf("unknown: err = %v, want ErrInvalidPriceAccount", err)
	}

	price.Data = price.Data[:PriceAccountLen-1]
	if _, err := a.CurrentPrice(price); !errors.Is(err, protocol.ErrInvalidPriceAccount) {
		t.Errorf("truncated: err = %v, want ErrInvalidPriceAccount", err)
	}
}
