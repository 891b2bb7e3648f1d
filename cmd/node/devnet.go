package main

import (
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwager/wagerd/params"
	"github.com/openwager/wagerd/pkg/bet"
	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/oracle"
)

// Deterministic devnet identities. Anything under 0x..01xx is protocol
// state, 0x..02xx is oracle state, 0x..03xx is user state.
var (
	devMarketID   = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000100")
	devFeeID      = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000101")
	devAdminID    = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000102")
	devProductID  = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000200")
	devPriceID    = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000201")
	devAliceID    = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000300")
	devBobID      = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000301")
	devBetStateID = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000302")
	devBetEscrow  = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000303")
	devAccStateID = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000304")
	devAccEscrow  = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000305")
)

const devFunding = 1_000_000_000

// seedDevnet writes a ready-to-use world: a priced oracle feed, an
// initialized native-payment market, funded user accounts, and empty
// record and escrow accounts for a first bet. Idempotent across restarts.
func seedDevnet(store *ledger.Store, cfg params.Config, log *zap.SugaredLogger) error {
	existing, err := store.Get(devMarketID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Infow("devnet_already_seeded", "market", devMarketID)
		return nil
	}

	rent := ledger.DefaultRent()

	// Oracle product and price feed, starting at 50_000.
	product := &ledger.Account{
		ID:      devProductID,
		Owner:   cfg.Protocol.OracleProgram,
		Balance: rent.MinBalance(oracle.ProductAccountLen),
		Data:    make([]byte, oracle.ProductAccountLen),
	}
	oracle.WriteProduct(product, devPriceID)

	price := &ledger.Account{
		ID:      devPriceID,
		Owner:   cfg.Protocol.OracleProgram,
		Balance: rent.MinBalance(oracle.PriceAccountLen),
		Data:    make([]byte, oracle.PriceAccountLen),
	}
	oracle.WritePrice(price, 50_000, 10)

	// Native-payment market with its fee sink.
	marketCfg := &bet.MarketConfig{
		Initialized:   true,
		Owner:         devAdminID,
		FeeAccount:    devFeeID,
		OracleProgram: cfg.Protocol.OracleProgram,
		NativePayment: true,
	}
	market := &ledger.Account{
		ID:      devMarketID,
		Owner:   cfg.Protocol.ProgramID,
		Balance: rent.MinBalance(bet.MarketConfigLen),
		Data:    make([]byte, bet.MarketConfigLen),
	}
	if err := marketCfg.Encode(market.Data); err != nil {
		return err
	}

	accounts := []*ledger.Account{
		product,
		price,
		market,
		{ID: devFeeID, Balance: rent.MinBalance(0)},
		{ID: devAdminID, Balance: devFunding},
		{ID: devAliceID, Balance: devFunding},
		{ID: devBobID, Balance: devFunding},
		// Empty record accounts for the first offer and fill.
		{
			ID:      devBetStateID,
			Owner:   cfg.Protocol.ProgramID,
			Balance: rent.MinBalance(bet.BetRecordLen),
			Data:    make([]byte, bet.BetRecordLen),
		},
		{
			ID:      devAccStateID,
			Owner:   cfg.Protocol.ProgramID,
			Balance: rent.MinBalance(bet.AcceptedBetRecordLen),
			Data:    make([]byte, bet.AcceptedBetRecordLen),
		},
		// Native escrows, pre-funded so a bet can open immediately.
		{ID: devBetEscrow, Owner: cfg.Protocol.ProgramID, Balance: devFunding},
		{ID: devAccEscrow, Owner: cfg.Protocol.ProgramID, Balance: devFunding},
	}

	for _, acc := range accounts {
		if err := store.Put(acc); err != nil {
			return err
		}
	}

	log.Infow("devnet_seeded",
		"market", devMarketID,
		"oracle_price", devPriceID,
		"accounts", len(accounts))
	return nil
}
