package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Pebble key schema. A single prefix is enough: every record is an account
// addressed by its 32-byte ID.
//
//   acct:<hex id> → Account (JSON)

const prefixAccount = "acct:"

func accountKey(id common.Hash) []byte {
	return []byte(fmt.Sprintf("%s%s", prefixAccount, id.Hex()))
}
