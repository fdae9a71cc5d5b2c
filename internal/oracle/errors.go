package oracle

import (
	"errors"
	"fmt"

	"mrgnwatch/internal/marginfi"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrOracleNotSetup           = errors.New("oracle not setup")
	ErrDeprecatedOracle         = errors.New("deprecated oracle kind")
	ErrUnsupportedOracle        = errors.New("unsupported oracle kind")
	ErrFixedPriceNegative       = errors.New("fixed oracle price is negative")
	ErrInsufficientVerification = errors.New("insufficient pyth verification level")
	ErrStalePrice               = errors.New("stale oracle price")
	ErrMaxConfidenceExceeded    = errors.New("oracle max confidence exceeded")
	ErrZeroSupplyInStakePool    = errors.New("zero supply in stake pool")
	ErrUnsupportedStakeState    = errors.New("stake account is not delegated")
	ErrMissingOracleAccount     = errors.New("missing oracle account")
)

// Error an oracle failure while building the feed of one bank
type Error struct {
	Bank  solana.PublicKey
	Setup marginfi.OracleSetup
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s of bank %s: %v", e.Setup, e.Bank, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
