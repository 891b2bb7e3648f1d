package ledger

import (
	"github.com/ethereum/go-ethereum/common"
)

// Account is one ledger-resident record. Every piece of protocol state lives
// at a 32-byte address: bet records, escrows, market configs, oracle accounts
// and plain payment accounts are all Accounts distinguished by their owning
// program and data layout.
type Account struct {
	ID      common.Hash // account address
	Owner   common.Hash // program allowed to mutate the account
	Balance uint64      // native units held by the account
	Data    []byte      // fixed-width record payload (layout depends on Owner)
}

// Clone returns a deep copy. Transitions mutate clones staged in a Txn so a
// failed transition never touches committed state.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Data = make([]byte, len(a.Data))
	copy(cp.Data, a.Data)
	return &cp
}

// AccountMeta is one position in a transition's ordered account list. The
// signer flag is trusted input: signature verification happens at the host
// boundary, not in the core.
type AccountMeta struct {
	ID       common.Hash `json:"id"`
	Signer   bool        `json:"signer,omitempty"`
	Writable bool        `json:"writable,omitempty"`
}

// Meta builds a writable account position.
func Meta(id common.Hash, signer bool) AccountMeta {
	return AccountMeta{ID: id, Signer: signer, Writable: true}
}

// ReadOnly builds a read-only account position.
func ReadOnly(id common.Hash) AccountMeta {
	return AccountMeta{ID: id}
}
