package protocol

import "fmt"

// Code is the stable numeric identifier a rejected transition reports to the
// submitting client. Values are dense and append-only: clients map them back
// to a symbolic reason, so existing codes must never be renumbered.
type Code uint32

const (
	CodeInvalidInstruction Code = iota
	CodeIncorrectSigner
	CodeNotRentExempt
	CodeInvalidMint
	CodeExpectedAmountMismatch
	CodeUnauthorizedAccount
	CodeIncorrectOwner
	CodeIsNotAssetAccount
	CodeAccountAlreadyInitialized
	CodeInvalidAccounts
	CodeInvalidBetAccount
	CodeInvalidSystemProgram
	CodeAmountOverflow
	CodeAmountUnderflow
	CodeDataTypeMismatch
	CodeInvalidPriceAccount
	CodeInvalidAccountInput
	CodeInvalidOracleConfig
	CodeNoPaymentAsset
	CodeBetNoLongerValid
	CodeInvalidOdds
	CodeBetCancelled
	CodeBetFinalized
	CodeBeforeExpiryTime
)

// Error is a protocol-level rejection: a stable code plus a human-readable
// diagnostic. All transition failures surface as exactly one Error; the
// processor never retries and never leaves partially-applied state.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Msg, e.Code)
}

var (
	ErrInvalidInstruction        = &Error{CodeInvalidInstruction, "invalid instruction"}
	ErrIncorrectSigner           = &Error{CodeIncorrectSigner, "incorrect signer"}
	ErrNotRentExempt             = &Error{CodeNotRentExempt, "state account not rent exempt"}
	ErrInvalidMint               = &Error{CodeInvalidMint, "invalid mint"}
	ErrExpectedAmountMismatch    = &Error{CodeExpectedAmountMismatch, "expected amount mismatch"}
	ErrUnauthorizedAccount       = &Error{CodeUnauthorizedAccount, "unauthorized account"}
	ErrIncorrectOwner            = &Error{CodeIncorrectOwner, "incorrect account owner"}
	ErrIsNotAssetAccount         = &Error{CodeIsNotAssetAccount, "account is not an asset token account"}
	ErrAccountAlreadyInitialized = &Error{CodeAccountAlreadyInitialized, "account already initialized"}
	ErrInvalidAccounts           = &Error{CodeInvalidAccounts, "invalid accounts"}
	ErrInvalidBetAccount         = &Error{CodeInvalidBetAccount, "invalid bet account"}
	ErrInvalidSystemProgram      = &Error{CodeInvalidSystemProgram, "invalid system program"}
	ErrAmountOverflow            = &Error{CodeAmountOverflow, "amount overflow moving funds"}
	ErrAmountUnderflow           = &Error{CodeAmountUnderflow, "amount underflow moving funds"}
	ErrDataTypeMismatch          = &Error{CodeDataTypeMismatch, "data type mismatch"}
	ErrInvalidPriceAccount       = &Error{CodeInvalidPriceAccount, "invalid price account"}
	ErrInvalidAccountInput       = &Error{CodeInvalidAccountInput, "invalid account input"}
	ErrInvalidOracleConfig       = &Error{CodeInvalidOracleConfig, "invalid oracle config"}
	ErrNoPaymentAsset            = &Error{CodeNoPaymentAsset, "no payment asset given"}
	ErrBetNoLongerValid          = &Error{CodeBetNoLongerValid, "bet no longer valid"}
	ErrInvalidOdds               = &Error{CodeInvalidOdds, "invalid odds"}
	ErrBetCancelled              = &Error{CodeBetCancelled, "bet cancelled"}
	ErrBetFinalized              = &Error{CodeBetFinalized, "bet already finalized"}
	ErrBeforeExpiryTime          = &Error{CodeBeforeExpiryTime, "before expiry time"}
)

var byCode = map[Code]*Error{}

func init() {
	for _, e := range []*Error{
		ErrInvalidInstruction, ErrIncorrectSigner, ErrNotRentExempt, ErrInvalidMint,
		ErrExpectedAmountMismatch, ErrUnauthorizedAccount, ErrIncorrectOwner,
		ErrIsNotAssetAccount, ErrAccountAlreadyInitialized, ErrInvalidAccounts,
		ErrInvalidBetAccount, ErrInvalidSystemProgram, ErrAmountOverflow,
		ErrAmountUnderflow, ErrDataTypeMismatch, ErrInvalidPriceAccount,
		ErrInvalidAccountInput, ErrInvalidOracleConfig, ErrNoPaymentAsset,
		ErrBetNoLongerValid, ErrInvalidOdds, ErrBetCancelled, ErrBetFinalized,
		ErrBeforeExpiryTime,
	} {
		byCode[e.Code] = e
	}
}

// FromCode maps a numeric code back to its canonical Error.
// Returns nil for unknown codes.
func FromCode(c Code) *Error {
	return byCode[c]
}
