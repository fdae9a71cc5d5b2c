package oracle

import (
	"fmt"

	"mrgnwatch/internal/marginfi"

	"github.com/gagliardetto/solana-go"
)

// Resolve builds the price feed of a bank from the raw data of its oracle
// accounts, given in oracle key order. clock is the reference for staleness.
func Resolve(key solana.PublicKey, bank *marginfi.Bank, accounts [][]byte, clock Clock) (*PriceFeed, error) {
	setup := bank.Config.OracleSetup

	feed, err := resolve(&bank.Config, accounts, clock)
	if err != nil {
		return nil, &Error{Bank: key, Setup: setup, Err: err}
	}
	return feed, nil
}

func resolve(config *marginfi.BankConfig, accounts [][]byte, clock Clock) (*PriceFeed, error) {
	switch config.OracleSetup {
	case marginfi.OracleSetupNone:
		return nil, ErrOracleNotSetup
	case marginfi.OracleSetupPythLegacy, marginfi.OracleSetupSwitchboardV2:
		return nil, ErrDeprecatedOracle
	case marginfi.OracleSetupFixed:
		price := config.FixedPrice.Unwrap()
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrFixedPriceNegative, price)
		}
		return NewFixedFeed(price), nil
	}

	if n := config.OracleKeyCount(); n == 0 {
		return nil, fmt.Errorf("%w: setup %d", ErrUnsupportedOracle, config.OracleSetup)
	} else if err := requireAccounts(accounts, n); err != nil {
		return nil, err
	}

	maxAge := config.MaxAge()

	switch config.OracleSetup {
	case marginfi.OracleSetupPythPushOracle:
		return loadPythPush(accounts[0], clock, maxAge)

	case marginfi.OracleSetupSwitchboardPull:
		return loadSwitchboardPull(accounts[0], clock, maxAge)

	case marginfi.OracleSetupStakedWithPythPush:
		lst, err := DecodeMint(accounts[1])
		if err != nil {
			return nil, fmt.Errorf("lst mint: %w", err)
		}
		stake, err := DecodeStakeState(accounts[2])
		if err != nil {
			return nil, fmt.Errorf("stake pool: %w", err)
		}

		feed, err := loadPythPush(accounts[0], clock, maxAge)
		if err != nil {
			return nil, err
		}
		if err := scaleStaked(feed, stake, lst); err != nil {
			return nil, err
		}
		return feed, nil

	case marginfi.OracleSetupKaminoPythPush, marginfi.OracleSetupKaminoSwitchboardPull:
		var feed *PriceFeed
		var err error
		if config.OracleSetup == marginfi.OracleSetupKaminoPythPush {
			feed, err = loadPythPush(accounts[0], clock, maxAge)
		} else {
			feed, err = loadSwitchboardPull(accounts[0], clock, maxAge)
		}
		if err != nil {
			return nil, err
		}

		reserve, err := DecodeReserve(accounts[1])
		if err != nil {
			return nil, fmt.Errorf("kamino reserve: %w", err)
		}
		if err := scaleKamino(feed, reserve); err != nil {
			return nil, err
		}
		return feed, nil
	}

	return nil, fmt.Errorf("%w: setup %d", ErrUnsupportedOracle, config.OracleSetup)
}

func requireAccounts(accounts [][]byte, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: have %d, want %d", ErrMissingOracleAccount, len(accounts), n)
	}
	for i, data := range accounts[:n] {
		if len(data) == 0 {
			return fmt.Errorf("%w: oracle key %d", ErrMissingOracleAccount, i)
		}
	}
	return nil
}
