package bet

import (
	"errors"
	"math"
	"testing"

	"github.com/openwager/wagerd/pkg/protocol"
)

func TestAcceptanceOddsFixed(t *testing.T) {
	b := &BetRecord{Odds: 150, StartPrice: 50_000, BetPrice: 55_000}

	// Price movement is irrelevant without variable odds.
	for _, price := range []int64{40_000, 50_000, 60_000} {
		odds, err := AcceptanceOdds(b, price)
		if err != nil {
			t.Fatalf("AcceptanceOdds(%d): %v", price, err)
		}
		if odds != 150 {
			t.Errorf("odds at price %d = %d, want 150", price, odds)
		}
	}

	// Explicit zero divisor also means fixed odds.
	b.HasVariableOdds = true
	b.VariableOdds = 0
	odds, err := AcceptanceOdds(b, 99_000)
	if err != nil {
		t.Fatalf("AcceptanceOdds: %v", err)
	}
	if odds != 150 {
		t.Errorf("odds = %d, want 150", odds)
	}
}

func TestAcceptanceOddsVariable(t *testing.T) {
	// Above bet: target above start, so a rise toward the target cuts the
	// odds and a fall raises them.
	b := &BetRecord{
		Odds:            200,
		StartPrice:      50_000,
		BetPrice:        55_000,
		HasVariableOdds: true,
		VariableOdds:    100,
	}

	cases := []struct {
		price int64
		want  int64
	}{
		{50_000, 200},
		{50_099, 200}, // sub-step movement truncates away
		{50_100, 199},
		{51_000, 190},
		{49_000, 210},
		{49_901, 200}, // truncation toward zero, not floor
	}
	for _, tc := range cases {
		odds, err := AcceptanceOdds(b, tc.price)
		if err != nil {
			t.Fatalf("AcceptanceOdds(%d): %v", tc.price, err)
		}
		if odds != tc.want {
			t.Errorf("odds at price %d = %d, want %d", tc.price, odds, tc.want)
		}
	}

	// Below bet: the shift direction inverts.
	b.BetPrice = 45_000
	odds, err := AcceptanceOdds(b, 51_000)
	if err != nil {
		t.Fatalf("AcceptanceOdds: %v", err)
	}
	if odds != 210 {
		t.Errorf("below-target odds = %d, want 210", odds)
	}
}

func TestAcceptanceOddsFloor(t *testing.T) {
	b := &BetRecord{
		Odds:            105,
		StartPrice:      50_000,
		BetPrice:        55_000,
		HasVariableOdds: true,
		VariableOdds:    100,
	}

	// A shift down to exactly 100 is still acceptable.
	odds, err := AcceptanceOdds(b, 50_500)
	if err != nil {
		t.Fatalf("AcceptanceOdds: %v", err)
	}
	if odds != 100 {
		t.Errorf("odds = %d, want 100", odds)
	}

	// One more step crosses the floor.
	if _, err := AcceptanceOdds(b, 50_600); !errors.Is(err, protocol.ErrInvalidOdds) {
		t.Errorf("err = %v, want ErrInvalidOdds", err)
	}
}

func TestRequiredPayment(t *testing.T) {
	cases := []struct {
		size uint64
		odds int64
		want uint64
	}{
		{100, 100, 0},  // break-even odds cost nothing extra
		{100, 150, 50},
		{1000, 200, 1000},
		{3, 150, 1}, // 3*50/100 truncates
		{1, 101, 0},
	}
	for _, tc := range cases {
		got, err := RequiredPayment(tc.size, tc.odds)
		if err != nil {
			t.Fatalf("RequiredPayment(%d, %d): %v", tc.size, tc.odds, err)
		}
		if got != tc.want {
			t.Errorf("RequiredPayment(%d, %d) = %d, want %d", tc.size, tc.odds, got, tc.want)
		}
	}

	if _, err := RequiredPayment(100, 99); !errors.Is(err, protocol.ErrInvalidOdds) {
		t.Errorf("odds below floor: err = %v, want ErrInvalidOdds", err)
	}
	if _, err := RequiredPayment(math.MaxUint64, 200); !errors.Is(err, protocol.ErrAmountOverflow) {
		t.Errorf("overflow: err = %v, want ErrAmountOverflow", err)
	}
}

func TestSettleDirectionBoundary(t *testing.T) {
	a := &AcceptedBetRecord{BetSize: 1000}

	cases := []struct {
		direction   Direction
		finalPrice  int64
		creatorWins bool
	}{
		{Above, 101, true},
		{Above, 100, true}, // creator takes the exact boundary
		{Above, 99, false},
		{Below, 99, true},
		{Below, 100, true},
		{Below, 101, false},
	}
	for _, tc := range cases {
		b := &BetRecord{Direction: tc.direction, BetPrice: 100}
		s := Settle(b, a, tc.finalPrice)
		if s.CreatorWins != tc.creatorWins {
			t.Errorf("%s target=100 final=%d: creatorWins = %v, want %v",
				tc.direction, tc.finalPrice, s.CreatorWins, tc.creatorWins)
		}
	}
}

func TestSettleSplit(t *testing.T) {
	b := &BetRecord{Direction: Above, BetPrice: 100}
	a := &AcceptedBetRecord{BetSize: 1000}

	s := Settle(b, a, 200)
	if s.Commission != 20 {
		t.Errorf("commission = %d, want 20", s.Commission)
	}
	if s.FinalizerFee != 5 {
		t.Errorf("finalizer fee = %d, want 5", s.FinalizerFee)
	}
	if s.WinnerAmount != 975 {
		t.Errorf("winner amount = %d, want 975", s.WinnerAmount)
	}

	// The three shares always reconstruct the stake exactly, including
	// sizes where the divisions truncate.
	for _, size := range []uint64{0, 1, 49, 50, 99, 1000, 12345, 1 << 40} {
		a.BetSize = size
		s := Settle(b, a, 200)
		if sum := s.WinnerAmount + s.Commission + s.FinalizerFee; sum != size {
			t.Errorf("size %d: shares sum to %d", size, sum)
		}
	}
}
