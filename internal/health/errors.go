package health

import (
	"fmt"

	"mrgnwatch/internal/marginfi"

	"github.com/gagliardetto/solana-go"
)

// Lookup kinds
const (
	KindBank      = "bank"
	KindPriceFeed = "price feed"
)

// LookupError a bank or price feed the account references was not supplied
type LookupError struct {
	Bank solana.PublicKey
	Kind string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Bank)
}

// PositionError failure while valuing one side of a balance
type PositionError struct {
	Bank solana.PublicKey
	Side marginfi.BalanceSide
	Err  error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s of bank %s: %v", e.Side, e.Bank, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}
