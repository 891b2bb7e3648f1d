package bet

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/pkg/escrow"
	"github.com/openwager/wagerd/pkg/protocol"
)

// Fixed-width record layouts. Each length constant is the sum of the field
// widths in declaration order: booleans 1 byte, u16 2, i64/u64 8, identities
// 32, optional fields a 1-byte presence flag plus the reserved payload.
// Decoding rejects accounts whose data is smaller than the declared length
// before any field access.

const idLen = 32

// MarketConfigLen: initialized, owner, feeAccount, oracleProgram,
// nativePayment, paymentMint (optional).
const MarketConfigLen = 1 + idLen + idLen + idLen + 1 + 1 + idLen

// BetRecordLen: initialized, market, creator, creatorPayment, escrow, odds,
// betSize, oracleProduct, oraclePrice, expirationTime, direction, betPrice,
// cancelAbovePrice, cancelBelowPrice, cancelTime, startPrice, variableOdds
// (optional), totalAmountAccepted, cancelled.
const BetRecordLen = 1 + idLen + idLen + idLen + idLen + 2 + 8 + idLen + idLen + 8 + 1 + 8 + 8 + 8 + 8 + 8 + 1 + 8 + 8 + 1

// AcceptedBetRecordLen: initialized, bet, escrow, acceptor, acceptorPayment,
// betSize, odds, finalized.
const AcceptedBetRecordLen = 1 + idLen + idLen + idLen + idLen + 8 + 2 + 1

// MinOdds is the break-even floor: odds are scaled ×100, so 100 means the
// acceptor pays nothing beyond matching the stake.
const MinOdds = 100

// Direction says which side of the target price the creator backs.
type Direction uint8

const (
	Above Direction = iota
	Below
)

func (d Direction) String() string {
	switch d {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return "unknown"
	}
}

// ParseDirection maps the wire spelling to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "above":
		return Above, nil
	case "below":
		return Below, nil
	default:
		return 0, protocol.ErrInvalidInstruction
	}
}

// MarketConfig is the per-asset-class registry record: payment mode, fee
// destination, and the trusted oracle program. Written once at bootstrap,
// read-only thereafter.
type MarketConfig struct {
	Initialized   bool
	Owner         common.Hash
	FeeAccount    common.Hash
	OracleProgram common.Hash
	NativePayment bool
	HasMint       bool
	PaymentMint   common.Hash
}

// Mode maps the payment flag to the custody mode.
func (m *MarketConfig) Mode() escrow.Mode {
	if m.NativePayment {
		return escrow.Native
	}
	return escrow.Asset
}

// CancelCondition is the price band and deadline beyond which a bet may no
// longer be accepted. Distinct from creator-initiated cancellation.
type CancelCondition struct {
	AbovePrice int64
	BelowPrice int64
	Time       int64
}

// BetRecord is the canonical representation of one open bet.
type BetRecord struct {
	Initialized     bool
	Market          common.Hash
	Creator         common.Hash
	CreatorPayment  common.Hash
	Escrow          common.Hash
	Odds            uint16 // scaled ×100, never below MinOdds
	BetSize         uint64
	OracleProduct   common.Hash
	OraclePrice     common.Hash
	ExpirationTime  int64
	Direction       Direction
	BetPrice        int64
	Cancel          CancelCondition
	StartPrice      int64
	HasVariableOdds bool
	VariableOdds    int64 // price change per 0.01 odds step
	TotalAccepted   uint64
	Cancelled       bool
}

// AcceptedBetRecord is one fill against a bet, with its own escrow and its
// own terminal finalized flag. It back-references the parent bet but never
// owns it.
type AcceptedBetRecord struct {
	Initialized     bool
	Bet             common.Hash
	Escrow          common.Hash
	Acceptor        common.Hash
	AcceptorPayment common.Hash
	BetSize         uint64
	Odds            uint16 // locked in at acceptance time
	Finalized       bool
}

// --- codec ---

type recordReader struct {
	buf []byte
	off int
}

func (r *recordReader) id() (h common.Hash) {
	copy(h[:], r.buf[r.off:r.off+idLen])
	r.off += idLen
	return
}

func (r *recordReader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *recordReader) i64() int64 { return int64(r.u64()) }

func (r *recordReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *recordReader) boolean() bool {
	v := r.buf[r.off] != 0
	r.off++
	return v
}

func (r *recordReader) byte8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

type recordWriter struct {
	buf []byte
	off int
}

func (w *recordWriter) id(h common.Hash) {
	copy(w.buf[w.off:], h[:])
	w.off += idLen
}

func (w *recordWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *recordWriter) i64(v int64) { w.u64(uint64(v)) }

func (w *recordWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *recordWriter) boolean(v bool) {
	if v {
		w.buf[w.off] = 1
	} else {
		w.buf[w.off] = 0
	}
	w.off++
}

func (w *recordWriter) byte8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

// DecodeMarketConfig reads a market registry record from account data.
func DecodeMarketConfig(data []byte) (*MarketConfig, error) {
	if len(data) < MarketConfigLen {
		return nil, protocol.ErrDataTypeMismatch
	}
	r := &recordReader{buf: data}
	m := &MarketConfig{}
	m.Initialized = r.boolean()
	m.Owner = r.id()
	m.FeeAccount = r.id()
	m.OracleProgram = r.id()
	m.NativePayment = r.boolean()
	m.HasMint = r.boolean()
	m.PaymentMint = r.id()
	return m, nil
}

// Encode writes the record into account data sized at least MarketConfigLen.
func (m *MarketConfig) Encode(data []byte) error {
	if len(data) < MarketConfigLen {
		return protocol.ErrDataTypeMismatch
	}
	w := &recordWriter{buf: data}
	w.boolean(m.Initialized)
	w.id(m.Owner)
	w.id(m.FeeAccount)
	w.id(m.OracleProgram)
	w.boolean(m.NativePayment)
	w.boolean(m.HasMint)
	w.id(m.PaymentMint)
	return nil
}

// DecodeBetRecord reads a bet record from account data.
func DecodeBetRecord(data []byte) (*BetRecord, error) {
	if len(data) < BetRecordLen {
		return nil, protocol.ErrDataTypeMismatch
	}
	r := &recordReader{buf: data}
	b := &BetRecord{}
	b.Initialized = r.boolean()
	b.Market = r.id()
	b.Creator = r.id()
	b.CreatorPayment = r.id()
	b.Escrow = r.id()
	b.Odds = r.u16()
	b.BetSize = r.u64()
	b.OracleProduct = r.id()
	b.OraclePrice = r.id()
	b.ExpirationTime = r.i64()
	b.Direction = Direction(r.byte8())
	b.BetPrice = r.i64()
	b.Cancel.AbovePrice = r.i64()
	b.Cancel.BelowPrice = r.i64()
	b.Cancel.Time = r.i64()
	b.StartPrice = r.i64()
	b.HasVariableOdds = r.boolean()
	b.VariableOdds = r.i64()
	b.TotalAccepted = r.u64()
	b.Cancelled = r.boolean()
	return b, nil
}

// Encode writes the record into account data sized at least BetRecordLen.
func (b *BetRecord) Encode(data []byte) error {
	if len(data) < BetRecordLen {
		return protocol.ErrDataTypeMismatch
	}
	w := &recordWriter{buf: data}
	w.boolean(b.Initialized)
	w.id(b.Market)
	w.id(b.Creator)
	w.id(b.CreatorPayment)
	w.id(b.Escrow)
	w.u16(b.Odds)
	w.u64(b.BetSize)
	w.id(b.OracleProduct)
	w.id(b.OraclePrice)
	w.i64(b.ExpirationTime)
	w.byte8(uint8(b.Direction))
	w.i64(b.BetPrice)
	w.i64(b.Cancel.AbovePrice)
	w.i64(b.Cancel.BelowPrice)
	w.i64(b.Cancel.Time)
	w.i64(b.StartPrice)
	w.boolean(b.HasVariableOdds)
	w.i64(b.VariableOdds)
	w.u64(b.TotalAccepted)
	w.boolean(b.Cancelled)
	return nil
}

// DecodeAcceptedBetRecord reads an accepted-bet record from account data.
func DecodeAcceptedBetRecord(data []byte) (*AcceptedBetRecord, error) {
	if len(data) < AcceptedBetRecordLen {
		return nil, protocol.ErrDataTypeMismatch
	}
	r := &recordReader{buf: data}
	a := &AcceptedBetRecord{}
	a.Initialized = r.boolean()
	a.Bet = r.id()
	a.Escrow = r.id()
	a.Acceptor = r.id()
	a.AcceptorPayment = r.id()
	a.BetSize = r.u64()
	a.Odds = r.u16()
	a.Finalized = r.boolean()
	return a, nil
}

// Encode writes the record into account data sized at least
// AcceptedBetRecordLen.
func (a *AcceptedBetRecord) Encode(data []byte) error {
	if len(data) < AcceptedBetRecordLen {
		return protocol.ErrDataTypeMismatch
	}
	w := &recordWriter{buf: data}
	w.boolean(a.Initialized)
	w.id(a.Bet)
	w.id(a.Escrow)
	w.id(a.Acceptor)
	w.id(a.AcceptorPayment)
	w.u64(a.BetSize)
	w.u16(a.Odds)
	w.boolean(a.Finalized)
	return nil
}
