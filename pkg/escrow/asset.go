package escrow

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

// AssetAccount is the narrow slice of a fungible-asset token account the
// custody layer needs: which asset it holds, who may authorize transfers out
// of it, and how much it holds.
//
// Layout (little-endian, fixed width):
//   mint      32
//   authority 32
//   amount     8
const AssetAccountLen = 32 + 32 + 8

type AssetAccount struct {
	Mint      common.Hash
	Authority common.Hash
	Amount    uint64
}

// ParseAssetAccount decodes an asset account, rejecting undersized storage
// before any field access.
func ParseAssetAccount(data []byte) (*AssetAccount, error) {
	if len(data) < AssetAccountLen {
		return nil, protocol.ErrDataTypeMismatch
	}
	var a AssetAccount
	copy(a.Mint[:], data[0:32])
	copy(a.Authority[:], data[32:64])
	a.Amount = binary.LittleEndian.Uint64(data[64:72])
	return &a, nil
}

// writeAssetAccount encodes the asset state back into account data.
func writeAssetAccount(acc *ledger.Account, a *AssetAccount) error {
	if len(acc.Data) < AssetAccountLen {
		return protocol.ErrDataTypeMismatch
	}
	copy(acc.Data[0:32], a.Mint[:])
	copy(acc.Data[32:64], a.Authority[:])
	binary.LittleEndian.PutUint64(acc.Data[64:72], a.Amount)
	return nil
}

// InitAssetAccount allocates and fills asset-account data. Used by genesis
// bootstrap and tests to provision token accounts.
func InitAssetAccount(acc *ledger.Account, mint, authority common.Hash, amount uint64) {
	acc.Data = make([]byte, AssetAccountLen)
	_ = writeAssetAccount(acc, &AssetAccount{Mint: mint, Authority: authority, Amount: amount})
}
