package bet

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/openwager/wagerd/pkg/escrow"
	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/metrics"
	"github.com/openwager/wagerd/pkg/oracle"
	"github.com/openwager/wagerd/pkg/protocol"
	"github.com/openwager/wagerd/pkg/util"
)

// Event describes one applied transition, for subscribers.
type Event struct {
	Type      InstructionType `json:"type"`
	Bet       common.Hash     `json:"bet"`
	Accepted  common.Hash     `json:"accepted,omitempty"`
	Timestamp int64           `json:"ts"`
}

// Processor orchestrates the transitions: it validates the precondition
// checklist for each one, invokes custody, oracle and odds arithmetic, and
// commits record mutations atomically. Any failure aborts the whole
// transition with exactly one error code and no partial state change.
//
// Apply holds a coarse lock: the embedding host is responsible for
// scheduling, and the core only promises that two transitions never
// interleave.
type Processor struct {
	mu        sync.Mutex
	store     *ledger.Store
	custody   *escrow.Custody
	oracle    oracle.Adapter
	clock     util.Clock
	rent      ledger.Rent
	programID common.Hash
	log       *zap.SugaredLogger

	// Metrics and OnTransition are optional hooks, set after construction.
	Metrics      *metrics.Metrics
	OnTransition func(Event)
}

func NewProcessor(store *ledger.Store, custody *escrow.Custody, clock util.Clock, programID common.Hash, log *zap.SugaredLogger) *Processor {
	return &Processor{
		store:     store,
		custody:   custody,
		clock:     clock,
		rent:      ledger.DefaultRent(),
		programID: programID,
		log:       log,
	}
}

// Apply executes one transition envelope end to end.
func (p *Processor) Apply(in *Instruction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := in.Validate(); err != nil {
		return p.reject(in, err)
	}

	txn := p.store.Begin()
	ev := Event{Type: in.Type, Timestamp: p.clock.Now().Unix()}

	var err error
	switch in.Type {
	case TxInitializeMarket:
		err = p.applyInitializeMarket(txn, in, &ev)
	case TxCreateBet:
		err = p.applyCreateBet(txn, in, &ev)
	case TxAcceptBet:
		err = p.applyAcceptBet(txn, in, &ev)
	case TxCancelBet:
		err = p.applyCancelBet(txn, in, &ev)
	case TxFinalizeBet:
		err = p.applyFinalizeBet(txn, in, &ev)
	default:
		err = protocol.ErrInvalidInstruction
	}
	if err != nil {
		return p.reject(in, err)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", in.Type, err)
	}

	if p.Metrics != nil {
		p.Metrics.Applied(string(in.Type))
	}
	if p.OnTransition != nil {
		p.OnTransition(ev)
	}
	return nil
}

func (p *Processor) reject(in *Instruction, err error) error {
	code := uint32(math.MaxUint32)
	var pe *protocol.Error
	if errors.As(err, &pe) {
		code = uint32(pe.Code)
	}
	p.log.Infow("transition_rejected", "type", in.Type, "code", code, "err", err)
	if p.Metrics != nil {
		p.Metrics.Rejected(string(in.Type), code)
	}
	return err
}

// account resolves a positional meta to its staged ledger account.
func (p *Processor) account(txn *ledger.Txn, meta ledger.AccountMeta) (*ledger.Account, error) {
	acc, err := txn.Get(meta.ID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, protocol.ErrInvalidAccountInput
	}
	return acc, nil
}

// stateAccount resolves a program-owned record account and checks rent
// exemption.
func (p *Processor) stateAccount(txn *ledger.Txn, meta ledger.AccountMeta) (*ledger.Account, error) {
	acc, err := p.account(txn, meta)
	if err != nil {
		return nil, err
	}
	if acc.Owner != p.programID {
		return nil, protocol.ErrIncorrectOwner
	}
	if !p.rent.IsExempt(acc) {
		return nil, protocol.ErrNotRentExempt
	}
	return acc, nil
}

// marketConfig resolves and decodes an initialized market registry record.
func (p *Processor) marketConfig(txn *ledger.Txn, meta ledger.AccountMeta) (*MarketConfig, error) {
	acc, err := p.account(txn, meta)
	if err != nil {
		return nil, err
	}
	if acc.Owner != p.programID {
		return nil, protocol.ErrIncorrectOwner
	}
	cfg, err := DecodeMarketConfig(acc.Data)
	if err != nil {
		return nil, err
	}
	if !cfg.Initialized {
		return nil, protocol.ErrInvalidAccounts
	}
	return cfg, nil
}

func (p *Processor) applyInitializeMarket(txn *ledger.Txn, in *Instruction, ev *Event) error {
	args := in.InitializeMarket
	ownerMeta := in.Accounts[0]
	marketMeta := in.Accounts[1]
	feeMeta := in.Accounts[2]

	if !ownerMeta.Signer {
		return protocol.ErrIncorrectSigner
	}

	marketAcc, err := p.stateAccount(txn, marketMeta)
	if err != nil {
		return err
	}
	cfg, err := DecodeMarketConfig(marketAcc.Data)
	if err != nil {
		return err
	}
	if cfg.Initialized {
		return protocol.ErrAccountAlreadyInitialized
	}

	if !args.NativePayment {
		if args.PaymentMint == nil {
			return protocol.ErrNoPaymentAsset
		}
		// The commission sink must be able to receive the payment asset,
		// or every finalization in this market would strand its escrow.
		feeAcc, err := p.account(txn, feeMeta)
		if err != nil {
			return err
		}
		mint, err := p.custody.Mint(feeAcc)
		if err != nil {
			return err
		}
		if mint != *args.PaymentMint {
			return protocol.ErrInvalidMint
		}
	}

	cfg = &MarketConfig{
		Initialized:   true,
		Owner:         ownerMeta.ID,
		FeeAccount:    feeMeta.ID,
		OracleProgram: args.OracleProgram,
		NativePayment: args.NativePayment,
	}
	if args.PaymentMint != nil {
		cfg.HasMint = true
		cfg.PaymentMint = *args.PaymentMint
	}
	if err := cfg.Encode(marketAcc.Data); err != nil {
		return err
	}

	p.log.Infow("market_initialized",
		"market", marketMeta.ID,
		"fee_account", feeMeta.ID,
		"native_payment", args.NativePayment)
	return nil
}

func (p *Processor) applyCreateBet(txn *ledger.Txn, in *Instruction, ev *Event) error {
	args := in.CreateBet
	creatorMeta := in.Accounts[0]
	paymentMeta := in.Accounts[1]
	betMeta := in.Accounts[2]
	escrowMeta := in.Accounts[3]
	productMeta := in.Accounts[4]
	priceMeta := in.Accounts[5]
	marketMeta := in.Accounts[6]

	if !creatorMeta.Signer {
		return protocol.ErrIncorrectSigner
	}

	direction, err := ParseDirection(args.Direction)
	if err != nil {
		return err
	}
	if args.Odds < MinOdds {
		return protocol.ErrInvalidOdds
	}

	cfg, err := p.marketConfig(txn, marketMeta)
	if err != nil {
		return err
	}

	betAcc, err := p.stateAccount(txn, betMeta)
	if err != nil {
		return err
	}
	rec, err := DecodeBetRecord(betAcc.Data)
	if err != nil {
		return err
	}
	if rec.Initialized {
		return protocol.ErrAccountAlreadyInitialized
	}

	mode := cfg.Mode()
	escrowAcc, err := p.account(txn, escrowMeta)
	if err != nil {
		return err
	}
	if mode == escrow.Asset {
		mint, err := p.custody.Mint(escrowAcc)
		if err != nil {
			return err
		}
		if !cfg.HasMint || mint != cfg.PaymentMint {
			return protocol.ErrInvalidMint
		}
	}

	// The escrow must already satisfy the full stake before the bet opens.
	bal, err := p.custody.Balance(mode, escrowAcc)
	if err != nil {
		return err
	}
	if bal < args.BetSize {
		return protocol.ErrAmountUnderflow
	}

	productAcc, err := p.account(txn, productMeta)
	if err != nil {
		return err
	}
	priceAcc, err := p.account(txn, priceMeta)
	if err != nil {
		return err
	}
	if err := p.oracle.Validate(cfg.OracleProgram, productAcc, priceAcc); err != nil {
		return err
	}

	if err := p.custody.Lock(mode, escrowAcc, creatorMeta.ID, creatorMeta.Signer); err != nil {
		return err
	}

	sample, err := p.oracle.CurrentPrice(priceAcc)
	if err != nil {
		return err
	}

	rec = &BetRecord{
		Initialized:    true,
		Market:         marketMeta.ID,
		Creator:        creatorMeta.ID,
		CreatorPayment: paymentMeta.ID,
		Escrow:         escrowMeta.ID,
		Odds:           args.Odds,
		BetSize:        args.BetSize,
		OracleProduct:  productMeta.ID,
		OraclePrice:    priceMeta.ID,
		ExpirationTime: args.ExpirationTime,
		Direction:      direction,
		BetPrice:       args.BetPrice,
		Cancel: CancelCondition{
			AbovePrice: args.CancelAbovePrice,
			BelowPrice: args.CancelBelowPrice,
			Time:       args.CancelTime,
		},
		StartPrice: sample.Value,
	}
	if args.VariableOdds != nil {
		rec.HasVariableOdds = true
		rec.VariableOdds = *args.VariableOdds
	}
	if err := rec.Encode(betAcc.Data); err != nil {
		return err
	}

	ev.Bet = betMeta.ID
	p.log.Infow("bet_created",
		"bet", betMeta.ID,
		"creator", creatorMeta.ID,
		"size", args.BetSize,
		"odds", args.Odds,
		"direction", direction.String(),
		"bet_price", args.BetPrice,
		"start_price", sample.Value,
		"mode", mode.String())
	return nil
}

func (p *Processor) applyAcceptBet(txn *ledger.Txn, in *Instruction, ev *Event) error {
	args := in.AcceptBet
	acceptorMeta := in.Accounts[0]
	paymentMeta := in.Accounts[1]
	betMeta := in.Accounts[2]
	betEscrowMeta := in.Accounts[3]
	acceptedMeta := in.Accounts[4]
	acceptedEscrowMeta := in.Accounts[5]
	productMeta := in.Accounts[6]
	priceMeta := in.Accounts[7]
	marketMeta := in.Accounts[8]

	if !acceptorMeta.Signer {
		return protocol.ErrIncorrectSigner
	}

	cfg, err := p.marketConfig(txn, marketMeta)
	if err != nil {
		return err
	}

	betAcc, err := p.stateAccount(txn, betMeta)
	if err != nil {
		return err
	}
	rec, err := DecodeBetRecord(betAcc.Data)
	if err != nil {
		return err
	}
	if !rec.Initialized {
		return protocol.ErrInvalidBetAccount
	}

	// The supplied accounts must be exactly the ones the bet was created
	// against.
	if rec.Market != marketMeta.ID ||
		rec.Escrow != betEscrowMeta.ID ||
		rec.OracleProduct != productMeta.ID ||
		rec.OraclePrice != priceMeta.ID {
		return protocol.ErrInvalidAccounts
	}

	if rec.Cancelled {
		return protocol.ErrBetCancelled
	}

	productAcc, err := p.account(txn, productMeta)
	if err != nil {
		return err
	}
	priceAcc, err := p.account(txn, priceMeta)
	if err != nil {
		return err
	}
	if err := p.oracle.Validate(cfg.OracleProgram, productAcc, priceAcc); err != nil {
		return err
	}
	sample, err := p.oracle.CurrentPrice(priceAcc)
	if err != nil {
		return err
	}

	now := p.clock.Now().Unix()
	if sample.Value > rec.Cancel.AbovePrice || sample.Value < rec.Cancel.BelowPrice {
		return protocol.ErrBetNoLongerValid
	}
	if now > rec.Cancel.Time || now > rec.ExpirationTime {
		return protocol.ErrBetNoLongerValid
	}

	acceptedAcc, err := p.stateAccount(txn, acceptedMeta)
	if err != nil {
		return err
	}
	accepted, err := DecodeAcceptedBetRecord(acceptedAcc.Data)
	if err != nil {
		return err
	}
	if accepted.Initialized {
		return protocol.ErrAccountAlreadyInitialized
	}

	odds, err := AcceptanceOdds(rec, sample.Value)
	if err != nil {
		return err
	}
	if odds > math.MaxUint16 {
		return protocol.ErrInvalidOdds
	}
	payment, err := RequiredPayment(args.BetSize, odds)
	if err != nil {
		return err
	}

	mode := cfg.Mode()
	betEscrowAcc, err := p.account(txn, betEscrowMeta)
	if err != nil {
		return err
	}
	acceptedEscrowAcc, err := p.account(txn, acceptedEscrowMeta)
	if err != nil {
		return err
	}
	paymentAcc, err := p.account(txn, paymentMeta)
	if err != nil {
		return err
	}

	if err := p.custody.Lock(mode, acceptedEscrowAcc, acceptorMeta.ID, acceptorMeta.Signer); err != nil {
		return err
	}

	// Matched stake leaves the bet escrow; an oversized fill fails here with
	// AmountUnderflow, which is the double-spend guard for concurrent fills.
	if err := p.custody.MoveOut(mode, betEscrowAcc, acceptedEscrowAcc, args.BetSize); err != nil {
		return err
	}
	// The premium debit is authorized per mode: natively the payment
	// account signs for itself, in asset mode its transfer authority does.
	payerID, payerSigned := acceptorMeta.ID, acceptorMeta.Signer
	if mode == escrow.Native {
		payerID, payerSigned = paymentMeta.ID, paymentMeta.Signer
	}
	if err := p.custody.PullIn(mode, paymentAcc, acceptedEscrowAcc, payerID, payerSigned, payment); err != nil {
		return err
	}

	accepted = &AcceptedBetRecord{
		Initialized:     true,
		Bet:             betMeta.ID,
		Escrow:          acceptedEscrowMeta.ID,
		Acceptor:        acceptorMeta.ID,
		AcceptorPayment: paymentMeta.ID,
		BetSize:         args.BetSize,
		Odds:            uint16(odds),
	}
	if err := accepted.Encode(acceptedAcc.Data); err != nil {
		return err
	}

	ev.Bet = betMeta.ID
	ev.Accepted = acceptedMeta.ID
	p.log.Infow("bet_accepted",
		"bet", betMeta.ID,
		"accepted", acceptedMeta.ID,
		"acceptor", acceptorMeta.ID,
		"size", args.BetSize,
		"odds", odds,
		"payment", payment)
	return nil
}

func (p *Processor) applyCancelBet(txn *ledger.Txn, in *Instruction, ev *Event) error {
	creatorMeta := in.Accounts[0]
	paymentMeta := in.Accounts[1]
	betMeta := in.Accounts[2]
	escrowMeta := in.Accounts[3]
	marketMeta := in.Accounts[4]

	if !creatorMeta.Signer {
		return protocol.ErrIncorrectSigner
	}

	cfg, err := p.marketConfig(txn, marketMeta)
	if err != nil {
		return err
	}

	betAcc, err := p.stateAccount(txn, betMeta)
	if err != nil {
		return err
	}
	rec, err := DecodeBetRecord(betAcc.Data)
	if err != nil {
		return err
	}
	if !rec.Initialized {
		return protocol.ErrInvalidBetAccount
	}
	if rec.Creator != creatorMeta.ID {
		return protocol.ErrUnauthorizedAccount
	}
	if rec.Market != marketMeta.ID ||
		rec.Escrow != escrowMeta.ID ||
		rec.CreatorPayment != paymentMeta.ID {
		return protocol.ErrInvalidAccounts
	}
	if rec.Cancelled {
		return protocol.ErrBetCancelled
	}

	mode := cfg.Mode()
	escrowAcc, err := p.account(txn, escrowMeta)
	if err != nil {
		return err
	}
	paymentAcc, err := p.account(txn, paymentMeta)
	if err != nil {
		return err
	}

	// The entire remaining escrow goes back to the creator; outstanding
	// fills keep their own escrows and settle independently.
	bal, err := p.custody.Balance(mode, escrowAcc)
	if err != nil {
		return err
	}
	if err := p.custody.MoveOut(mode, escrowAcc, paymentAcc, bal); err != nil {
		return err
	}

	rec.Cancelled = true
	if err := rec.Encode(betAcc.Data); err != nil {
		return err
	}

	ev.Bet = betMeta.ID
	p.log.Infow("bet_cancelled", "bet", betMeta.ID, "refund", bal)
	return nil
}

func (p *Processor) applyFinalizeBet(txn *ledger.Txn, in *Instruction, ev *Event) error {
	finalizerMeta := in.Accounts[0]
	finalizerPaymentMeta := in.Accounts[1]
	betMeta := in.Accounts[2]
	acceptedMeta := in.Accounts[3]
	acceptedEscrowMeta := in.Accounts[4]
	creatorPaymentMeta := in.Accounts[5]
	acceptorPaymentMeta := in.Accounts[6]
	feeMeta := in.Accounts[7]
	productMeta := in.Accounts[8]
	priceMeta := in.Accounts[9]
	marketMeta := in.Accounts[10]

	if !finalizerMeta.Signer {
		return protocol.ErrIncorrectSigner
	}

	cfg, err := p.marketConfig(txn, marketMeta)
	if err != nil {
		return err
	}

	betAcc, err := p.stateAccount(txn, betMeta)
	if err != nil {
		return err
	}
	rec, err := DecodeBetRecord(betAcc.Data)
	if err != nil {
		return err
	}
	if !rec.Initialized {
		return protocol.ErrInvalidBetAccount
	}

	acceptedAcc, err := p.stateAccount(txn, acceptedMeta)
	if err != nil {
		return err
	}
	accepted, err := DecodeAcceptedBetRecord(acceptedAcc.Data)
	if err != nil {
		return err
	}
	if !accepted.Initialized {
		return protocol.ErrInvalidBetAccount
	}
	if accepted.Finalized {
		return protocol.ErrBetFinalized
	}

	if accepted.Bet != betMeta.ID ||
		accepted.Escrow != acceptedEscrowMeta.ID ||
		accepted.AcceptorPayment != acceptorPaymentMeta.ID ||
		rec.CreatorPayment != creatorPaymentMeta.ID ||
		rec.Market != marketMeta.ID ||
		rec.OracleProduct != productMeta.ID ||
		rec.OraclePrice != priceMeta.ID ||
		cfg.FeeAccount != feeMeta.ID {
		return protocol.ErrInvalidAccounts
	}

	now := p.clock.Now().Unix()
	if now < rec.ExpirationTime {
		return protocol.ErrBeforeExpiryTime
	}

	productAcc, err := p.account(txn, productMeta)
	if err != nil {
		return err
	}
	priceAcc, err := p.account(txn, priceMeta)
	if err != nil {
		return err
	}
	if err := p.oracle.Validate(cfg.OracleProgram, productAcc, priceAcc); err != nil {
		return err
	}
	sample, err := p.oracle.CurrentPrice(priceAcc)
	if err != nil {
		return err
	}

	settlement := Settle(rec, accepted, sample.Value)

	winnerMeta := creatorPaymentMeta
	if !settlement.CreatorWins {
		winnerMeta = acceptorPaymentMeta
	}

	mode := cfg.Mode()
	escrowAcc, err := p.account(txn, acceptedEscrowMeta)
	if err != nil {
		return err
	}
	winnerAcc, err := p.account(txn, winnerMeta)
	if err != nil {
		return err
	}
	feeAcc, err := p.account(txn, feeMeta)
	if err != nil {
		return err
	}
	finalizerAcc, err := p.account(txn, finalizerPaymentMeta)
	if err != nil {
		return err
	}

	// Three disjoint movements; each share is exact, so the escrow is never
	// over-debited.
	if err := p.custody.MoveOut(mode, escrowAcc, winnerAcc, settlement.WinnerAmount); err != nil {
		return err
	}
	if err := p.custody.MoveOut(mode, escrowAcc, feeAcc, settlement.Commission); err != nil {
		return err
	}
	if err := p.custody.MoveOut(mode, escrowAcc, finalizerAcc, settlement.FinalizerFee); err != nil {
		return err
	}

	accepted.Finalized = true
	if err := accepted.Encode(acceptedAcc.Data); err != nil {
		return err
	}

	ev.Bet = betMeta.ID
	ev.Accepted = acceptedMeta.ID
	p.log.Infow("bet_finalized",
		"bet", betMeta.ID,
		"accepted", acceptedMeta.ID,
		"final_price", sample.Value,
		"creator_wins", settlement.CreatorWins,
		"winner_amount", settlement.WinnerAmount,
		"commission", settlement.Commission,
		"finalizer_fee", settlement.FinalizerFee)
	return nil
}
