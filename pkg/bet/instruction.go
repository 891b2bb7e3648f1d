package bet

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

// InstructionType tags the transition an envelope requests.
type InstructionType string

const (
	TxInitializeMarket InstructionType = "initialize_market"
	TxCreateBet        InstructionType = "create_bet"
	TxAcceptBet        InstructionType = "accept_bet"
	TxCancelBet        InstructionType = "cancel_bet"
	TxFinalizeBet      InstructionType = "finalize_bet"
)

// Expected account counts per transition. The positional ordering is part of
// the protocol; see the builder for each transition.
const (
	initializeMarketAccounts = 3
	createBetAccounts        = 7
	acceptBetAccounts        = 9
	cancelBetAccounts        = 5
	finalizeBetAccounts      = 11
)

// Instruction is one transition request: a type tag, the ordered account
// list, and the per-type arguments. Decoded once at the boundary, then
// matched exhaustively by the processor.
type Instruction struct {
	Type     InstructionType      `json:"type"`
	Accounts []ledger.AccountMeta `json:"accounts"`

	InitializeMarket *InitializeMarketArgs `json:"initialize_market,omitempty"`
	CreateBet        *CreateBetArgs        `json:"create_bet,omitempty"`
	AcceptBet        *AcceptBetArgs        `json:"accept_bet,omitempty"`
}

// InitializeMarketArgs provisions a per-asset-class market configuration.
type InitializeMarketArgs struct {
	NativePayment bool         `json:"native_payment"`
	PaymentMint   *common.Hash `json:"payment_mint,omitempty"`
	OracleProgram common.Hash  `json:"oracle_program"`
}

// CreateBetArgs are the creator's terms for a new bet.
type CreateBetArgs struct {
	BetSize          uint64 `json:"bet_size"`
	Odds             uint16 `json:"odds"` // scaled ×100, e.g. even odds = 200
	ExpirationTime   int64  `json:"expiration_time"`
	Direction        string `json:"direction"` // "above" / "below"
	BetPrice         int64  `json:"bet_price"`
	CancelAbovePrice int64  `json:"cancel_above_price"`
	CancelBelowPrice int64  `json:"cancel_below_price"`
	CancelTime       int64  `json:"cancel_time"`
	VariableOdds     *int64 `json:"variable_odds,omitempty"`
}

// AcceptBetArgs take all or part of the opposing side.
type AcceptBetArgs struct {
	BetSize uint64 `json:"bet_size"`
}

// DecodeInstruction parses and validates a transition envelope.
func DecodeInstruction(data []byte) (*Instruction, error) {
	var in Instruction
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, protocol.ErrInvalidInstruction
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// Encode serializes the envelope for submission.
func (in *Instruction) Encode() ([]byte, error) {
	return json.Marshal(in)
}

// Validate checks the tag, the argument payload, and the account count.
func (in *Instruction) Validate() error {
	switch in.Type {
	case TxInitializeMarket:
		if in.InitializeMarket == nil || len(in.Accounts) != initializeMarketAccounts {
			return protocol.ErrInvalidInstruction
		}
	case TxCreateBet:
		if in.CreateBet == nil || len(in.Accounts) != createBetAccounts {
			return protocol.ErrInvalidInstruction
		}
	case TxAcceptBet:
		if in.AcceptBet == nil || len(in.Accounts) != acceptBetAccounts {
			return protocol.ErrInvalidInstruction
		}
	case TxCancelBet:
		if len(in.Accounts) != cancelBetAccounts {
			return protocol.ErrInvalidInstruction
		}
	case TxFinalizeBet:
		if len(in.Accounts) != finalizeBetAccounts {
			return protocol.ErrInvalidInstruction
		}
	default:
		return protocol.ErrInvalidInstruction
	}
	return nil
}

// NewInitializeMarketInstruction builds the registry bootstrap envelope.
//
//	0 [signer]   market owner
//	1 [writable] market config account
//	2 []         fee commission account
func NewInitializeMarketInstruction(owner, market, feeAccount common.Hash, args InitializeMarketArgs) *Instruction {
	return &Instruction{
		Type: TxInitializeMarket,
		Accounts: []ledger.AccountMeta{
			ledger.Meta(owner, true),
			ledger.Meta(market, false),
			ledger.ReadOnly(feeAccount),
		},
		InitializeMarket: &args,
	}
}

// NewCreateBetInstruction builds a create-bet envelope.
//
//	0 [signer]   creator
//	1 [writable] creator payment account
//	2 [writable] bet state account
//	3 [writable] bet escrow account
//	4 []         oracle product account
//	5 []         oracle price account
//	6 []         market config account
func NewCreateBetInstruction(creator, creatorPayment, betState, betEscrow, oracleProduct, oraclePrice, market common.Hash, args CreateBetArgs) *Instruction {
	return &Instruction{
		Type: TxCreateBet,
		Accounts: []ledger.AccountMeta{
			ledger.Meta(creator, true),
			ledger.Meta(creatorPayment, false),
			ledger.Meta(betState, false),
			ledger.Meta(betEscrow, false),
			ledger.ReadOnly(oracleProduct),
			ledger.ReadOnly(oraclePrice),
			ledger.ReadOnly(market),
		},
		CreateBet: &args,
	}
}

// NewAcceptBetInstruction builds an accept-bet envelope.
//
//	0 [signer]   acceptor
//	1 [signer]   acceptor payment account, debited for the premium
//	2 [writable] bet state account
//	3 [writable] bet escrow account
//	4 [writable] accepted-bet state account
//	5 [writable] accepted-bet escrow account
//	6 []         oracle product account
//	7 []         oracle price account
//	8 []         market config account
func NewAcceptBetInstruction(acceptor, acceptorPayment, betState, betEscrow, acceptedState, acceptedEscrow, oracleProduct, oraclePrice, market common.Hash, args AcceptBetArgs) *Instruction {
	return &Instruction{
		Type: TxAcceptBet,
		Accounts: []ledger.AccountMeta{
			ledger.Meta(acceptor, true),
			ledger.Meta(acceptorPayment, true),
			ledger.Meta(betState, false),
			ledger.Meta(betEscrow, false),
			ledger.Meta(acceptedState, false),
			ledger.Meta(acceptedEscrow, false),
			ledger.ReadOnly(oracleProduct),
			ledger.ReadOnly(oraclePrice),
			ledger.ReadOnly(market),
		},
		AcceptBet: &args,
	}
}

// NewCancelBetInstruction builds a cancel-bet envelope.
//
//	0 [signer]   creator
//	1 [writable] creator payment account
//	2 [writable] bet state account
//	3 [writable] bet escrow account
//	4 []         market config account
func NewCancelBetInstruction(creator, creatorPayment, betState, betEscrow, market common.Hash) *Instruction {
	return &Instruction{
		Type: TxCancelBet,
		Accounts: []ledger.AccountMeta{
			ledger.Meta(creator, true),
			ledger.Meta(creatorPayment, false),
			ledger.Meta(betState, false),
			ledger.Meta(betEscrow, false),
			ledger.ReadOnly(market),
		},
	}
}

// NewFinalizeBetInstruction builds a finalize-bet envelope. Any party may be
// the finalizer; it earns the finalizer fee.
//
//	 0 [signer]   finalizer
//	 1 [writable] finalizer payment account
//	 2 []         bet state account
//	 3 [writable] accepted-bet state account
//	 4 [writable] accepted-bet escrow account
//	 5 [writable] creator payment account
//	 6 [writable] acceptor payment account
//	 7 [writable] fee commission account
//	 8 []         oracle product account
//	 9 []         oracle price account
//	10 []         market config account
func NewFinalizeBetInstruction(finalizer, finalizerPayment, betState, acceptedState, acceptedEscrow, creatorPayment, acceptorPayment, feeAccount, oracleProduct, oraclePrice, market common.Hash) *Instruction {
	return &Instruction{
		Type: TxFinalizeBet,
		Accounts: []ledger.AccountMeta{
			ledger.Meta(finalizer, true),
			ledger.Meta(finalizerPayment, false),
			ledger.ReadOnly(betState),
			ledger.Meta(acceptedState, false),
			ledger.Meta(acceptedEscrow, false),
			ledger.Meta(creatorPayment, false),
			ledger.Meta(acceptorPayment, false),
			ledger.Meta(feeAccount, false),
			ledger.ReadOnly(oracleProduct),
			ledger.ReadOnly(oraclePrice),
			ledger.ReadOnly(market),
		},
	}
}
