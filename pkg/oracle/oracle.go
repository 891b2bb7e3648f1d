package oracle

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

// External collaborator boundary for the price oracle. The protocol consumes
// oracle accounts through exactly two questions: does this product/price pair
// belong to the trusted oracle program, and what is the current price.

// Account schema constants. Magic and version are asserted on every read so
// a foreign account owned by the right program still fails validation.
const (
	Magic   uint32 = 0xa1b2c3d4
	Version uint32 = 2

	accountTypeProduct uint32 = 1
	accountTypePrice   uint32 = 2
)

// Price aggregation status. Anything other than trading means there is no
// current aggregate and reads fail.
const (
	StatusUnknown uint32 = iota
	StatusTrading
	StatusHalted
)

// Product account layout:
//   magic    4
//   version  4
//   type     4
//   price    32  (address of the paired price account)
const ProductAccountLen = 4 + 4 + 4 + 32

// Price account layout:
//   magic       4
//   version     4
//   type        4
//   status      4
//   price       8  (signed)
//   confidence  8
const PriceAccountLen = 4 + 4 + 4 + 4 + 8 + 8

// Price is a current price sample with its confidence interval.
type Price struct {
	Value      int64
	Confidence uint64
}

// Adapter validates oracle account pairs and reads price samples.
type Adapter struct{}

// Validate fails unless both accounts are owned by the trusted oracle
// program, the product account carries the expected magic/version/type, and
// the product's embedded price reference equals the price account's own
// address.
func (Adapter) Validate(trustedProgram common.Hash, product, price *ledger.Account) error {
	if product.Owner != trustedProgram || price.Owner != trustedProgram {
		return protocol.ErrInvalidOracleConfig
	}
	if len(product.Data) < ProductAccountLen {
		return protocol.ErrInvalidOracleConfig
	}
	if binary.LittleEndian.Uint32(product.Data[0:4]) != Magic ||
		binary.LittleEndian.Uint32(product.Data[4:8]) != Version ||
		binary.LittleEndian.Uint32(product.Data[8:12]) != accountTypeProduct {
		return protocol.ErrInvalidOracleConfig
	}
	var ref common.Hash
	copy(ref[:], product.Data[12:44])
	if ref != price.ID {
		return protocol.ErrInvalidOracleConfig
	}
	return nil
}

// CurrentPrice returns the price account's current aggregate. Fails with
// InvalidPriceAccount when the account is malformed or has no current
// aggregate.
func (Adapter) CurrentPrice(price *ledger.Account) (Price, error) {
	if len(price.Data) < PriceAccountLen {
		return Price{}, protocol.ErrInvalidPriceAccount
	}
	if binary.LittleEndian.Uint32(price.Data[0:4]) != Magic ||
		binary.LittleEndian.Uint32(price.Data[4:8]) != Version ||
		binary.LittleEndian.Uint32(price.Data[8:12]) != accountTypePrice {
		return Price{}, protocol.ErrInvalidPriceAccount
	}
	if binary.LittleEndian.Uint32(price.Data[12:16]) != StatusTrading {
		return Price{}, protocol.ErrInvalidPriceAccount
	}
	return Price{
		Value:      int64(binary.LittleEndian.Uint64(price.Data[16:24])),
		Confidence: binary.LittleEndian.Uint64(price.Data[24:32]),
	}, nil
}

// WriteProduct fills a product account's data. Used by devnet bootstrap and
// tests to provision oracle accounts.
func WriteProduct(acc *ledger.Account, priceID common.Hash) {
	data := make([]byte, ProductAccountLen)
	binary.LittleEndian.PutUint32(data[0:4], Magic)
	binary.LittleEndian.PutUint32(data[4:8], Version)
	binary.LittleEndian.PutUint32(data[8:12], accountTypeProduct)
	copy(data[12:44], priceID[:])
	acc.Data = data
}

// WritePrice fills a price account's data with a trading-status sample.
func WritePrice(acc *ledger.Account, value int64, confidence uint64) {
	WritePriceStatus(acc, value, confidence, StatusTrading)
}

// WritePriceStatus fills a price account's data with an explicit status.
func WritePriceStatus(acc *ledger.Account, value int64, confidence uint64, status uint32) {
	data := make([]byte, PriceAccountLen)
	binary.LittleEndian.PutUint32(data[0:4], Magic)
	binary.LittleEndian.PutUint32(data[4:8], Version)
	binary.LittleEndian.PutUint32(data[8:12], accountTypePrice)
	binary.LittleEndian.PutUint32(data[12:16], status)
	binary.LittleEndian.PutUint64(data[16:24], uint64(value))
	binary.LittleEndian.PutUint64(data[24:32], confidence)
	acc.Data = data
}
