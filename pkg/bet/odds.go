package bet

import (
	"math"

	"github.com/openwager/wagerd/pkg/protocol"
)

// Odds and settlement arithmetic. All divisions are native integer division,
// truncating toward zero: the sign and truncation behavior is part of the
// protocol, not an implementation detail.

// AcceptanceOdds computes the effective odds for accepting a bet at the
// current price. Fixed-odds bets return the creator's odds unchanged.
// Variable-odds bets shift by one 0.01 step per VariableOdds units of price
// movement, in the direction that compensates the side the market moved
// against: when the target sits above the start price, a price rise toward
// the target lowers the odds.
func AcceptanceOdds(b *BetRecord, currentPrice int64) (int64, error) {
	odds := int64(b.Odds)
	if !b.HasVariableOdds || b.VariableOdds == 0 {
		return odds, nil
	}

	priceChange := currentPrice - b.StartPrice
	step := priceChange / b.VariableOdds
	if b.BetPrice > b.StartPrice {
		step = -step
	}
	odds += step

	if odds < MinOdds {
		return 0, protocol.ErrInvalidOdds
	}
	return odds, nil
}

// RequiredPayment is what the acceptor must add on top of the matched stake:
// size × (odds − 100) / 100, truncating. At break-even odds the payment is
// zero.
func RequiredPayment(size uint64, odds int64) (uint64, error) {
	if odds < MinOdds {
		return 0, protocol.ErrInvalidOdds
	}
	premium := uint64(odds - MinOdds)
	if premium != 0 && size > math.MaxUint64/premium {
		return 0, protocol.ErrAmountOverflow
	}
	return size * premium / 100, nil
}

// Settlement is the outcome of one accepted fill: three disjoint amounts
// that sum exactly to the fill's bet size.
type Settlement struct {
	CreatorWins  bool
	WinnerAmount uint64
	Commission   uint64
	FinalizerFee uint64
}

// Settle decides the winner and splits the stake. The creator wins the
// boundary: an Above bet settles creator-side when the final price equals
// the target exactly.
func Settle(b *BetRecord, a *AcceptedBetRecord, finalPrice int64) Settlement {
	creatorWins := (b.Direction == Above && finalPrice >= b.BetPrice) ||
		(b.Direction == Below && finalPrice <= b.BetPrice)

	commission := a.BetSize / 50
	finalizerFee := commission / 4

	return Settlement{
		CreatorWins:  creatorWins,
		WinnerAmount: a.BetSize - commission - finalizerFee,
		Commission:   commission,
		FinalizerFee: finalizerFee,
	}
}
