package ledger

// Rent is the deterministic minimum-balance rule for state accounts. An
// account is rent exempt when its balance covers the per-byte charge for its
// data plus a fixed base overhead.
type Rent struct {
	Base    uint64 // flat charge per account
	PerByte uint64 // charge per byte of account data
}

// DefaultRent mirrors the reference ledger's exemption curve closely enough
// for precondition checks: small state accounts need a few thousand native
// units to be exempt.
func DefaultRent() Rent {
	return Rent{Base: 890880, PerByte: 6960}
}

// MinBalance returns the exemption threshold for an account with dataLen
// bytes of record data.
func (r Rent) MinBalance(dataLen int) uint64 {
	return r.Base + r.PerByte*uint64(dataLen)
}

// IsExempt reports whether the account's balance meets the threshold for its
// current data size.
func (r Rent) IsExempt(a *Account) bool {
	return a.Balance >= r.MinBalance(len(a.Data))
}
