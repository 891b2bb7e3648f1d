package api

// API response types for REST endpoints and WebSocket messages

// ==============================
// REST Response Types
// ==============================

// MarketInfo represents a market registry record
type MarketInfo struct {
	ID            string `json:"id"`            // Market account (0x hash)
	Owner         string `json:"owner"`         // Administrator identity
	FeeAccount    string `json:"feeAccount"`    // Commission destination
	OracleProgram string `json:"oracleProgram"` // Trusted oracle namespace
	NativePayment bool   `json:"nativePayment"` // Balances vs asset accounts
	PaymentMint   string `json:"paymentMint,omitempty"`
}

// BetInfo represents an open offer
type BetInfo struct {
	ID               string `json:"id"`
	Market           string `json:"market"`
	Creator          string `json:"creator"`
	CreatorPayment   string `json:"creatorPayment"`
	Escrow           string `json:"escrow"`
	Odds             uint16 `json:"odds"` // Hundredths, 150 = 1.5x
	BetSize          uint64 `json:"betSize"`
	OracleProduct    string `json:"oracleProduct"`
	OraclePrice      string `json:"oraclePrice"`
	ExpirationTime   int64  `json:"expirationTime"`
	Direction        string `json:"direction"` // "above" or "below"
	BetPrice         int64  `json:"betPrice"`
	CancelAbovePrice int64  `json:"cancelAbovePrice"`
	CancelBelowPrice int64  `json:"cancelBelowPrice"`
	CancelTime       int64  `json:"cancelTime"`
	StartPrice       int64  `json:"startPrice"`
	VariableOdds     *int64 `json:"variableOdds,omitempty"`
	TotalAccepted    uint64 `json:"totalAccepted"`
	Cancelled        bool   `json:"cancelled"`
}

// AcceptedBetInfo represents one fill against an offer
type AcceptedBetInfo struct {
	ID              string `json:"id"`
	Bet             string `json:"bet"`
	Escrow          string `json:"escrow"`
	Acceptor        string `json:"acceptor"`
	AcceptorPayment string `json:"acceptorPayment"`
	BetSize         uint64 `json:"betSize"`
	Odds            uint16 `json:"odds"` // Locked at acceptance
	Finalized       bool   `json:"finalized"`
}

// AccountInfo represents a raw ledger account
type AccountInfo struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
	DataLen int    `json:"dataLen"`
}

// SubmitTransactionResponse is the response from transaction submission
type SubmitTransactionResponse struct {
	Status string `json:"status"` // "applied", "rejected"
	Type   string `json:"type"`
}

// ErrorResponse is returned for all errors. Code carries the stable numeric
// protocol code when the failure came from transition validation.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Code    *uint32 `json:"code,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["transitions", "bets:0x..."]
}

// TransitionUpdate is broadcast after every applied transition
type TransitionUpdate struct {
	Type      string `json:"type"` // "transition"
	TxType    string `json:"txType"`
	Bet       string `json:"bet"`
	Accepted  string `json:"accepted,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
