// Package health computes the USD value and maintenance margin of a marginfi
// account from decoded banks and resolved price feeds.
//
// Assets are priced at the low end of the oracle confidence interval and
// liabilities at the high end. The on-chain risk engine prices liabilities at
// the low end too, so margins reported here can be lower than the program's
// for accounts with borrows.
package health

import (
	"fmt"

	"mrgnwatch/internal/marginfi"
	"mrgnwatch/internal/oracle"
	"mrgnwatch/pkg/fixed"

	"github.com/gagliardetto/solana-go"
)

// Price bias per side. Liabilities take the high side of the confidence
// interval so both sides are valued against the borrower.
const (
	AssetBias     = oracle.BiasLow
	LiabilityBias = oracle.BiasHigh
)

// Position valuation of one side of one balance
type Position struct {
	Bank   solana.PublicKey     `json:"bank"`
	Side   marginfi.BalanceSide `json:"side"`
	Amount fixed.I80F48         `json:"amount"`
	Price  fixed.I80F48         `json:"price"`
	// USD value, amount * price in token units
	Value         fixed.I80F48 `json:"value"`
	Weight        fixed.I80F48 `json:"weight"`
	WeightedValue fixed.I80F48 `json:"weighted_value"`
}

// Report health of one account
type Report struct {
	AssetValue          fixed.I80F48 `json:"asset_value"`
	LiabilityValue      fixed.I80F48 `json:"liability_value"`
	AssetValueMaint     fixed.I80F48 `json:"asset_value_maint"`
	LiabilityValueMaint fixed.I80F48 `json:"liability_value_maint"`
	Margin              fixed.I80F48 `json:"margin"`
	Liquidatable        bool         `json:"liquidatable"`

	Positions []Position `json:"positions"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// Evaluate values every non-empty side of the account's active balances and
// returns the maintenance margin. Any failure aborts the whole evaluation.
func Evaluate(
	account *marginfi.Account,
	banks map[solana.PublicKey]*marginfi.Bank,
	feeds map[solana.PublicKey]*oracle.PriceFeed,
) (*Report, error) {
	r := &Report{
		AssetValue:          fixed.Zero,
		LiabilityValue:      fixed.Zero,
		AssetValueMaint:     fixed.Zero,
		LiabilityValueMaint: fixed.Zero,
	}

	for _, balance := range account.ActiveBalances() {
		if balance.IsMixed() {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("balance of bank %s holds both asset and liability shares", balance.BankPk))
		}

		for _, side := range []marginfi.BalanceSide{marginfi.BalanceSideAssets, marginfi.BalanceSideLiabilities} {
			if balance.IsEmpty(side) {
				continue
			}

			p, err := value(balance, side, banks, feeds)
			if err != nil {
				return nil, &PositionError{Bank: balance.BankPk, Side: side, Err: err}
			}
			if err := r.add(p); err != nil {
				return nil, &PositionError{Bank: balance.BankPk, Side: side, Err: err}
			}
		}
	}

	margin, err := r.AssetValueMaint.CheckedSub(r.LiabilityValueMaint)
	if err != nil {
		return nil, fmt.Errorf("maintenance margin: %w", err)
	}
	r.Margin = margin
	r.Liquidatable = margin.IsNegative()

	return r, nil
}

func (r *Report) add(p Position) error {
	var err error
	if p.Side == marginfi.BalanceSideAssets {
		if r.AssetValue, err = r.AssetValue.CheckedAdd(p.Value); err != nil {
			return err
		}
		r.AssetValueMaint, err = r.AssetValueMaint.CheckedAdd(p.WeightedValue)
	} else {
		if r.LiabilityValue, err = r.LiabilityValue.CheckedAdd(p.Value); err != nil {
			return err
		}
		r.LiabilityValueMaint, err = r.LiabilityValueMaint.CheckedAdd(p.WeightedValue)
	}
	if err != nil {
		return err
	}

	r.Positions = append(r.Positions, p)
	return nil
}

func value(
	balance marginfi.Balance,
	side marginfi.BalanceSide,
	banks map[solana.PublicKey]*marginfi.Bank,
	feeds map[solana.PublicKey]*oracle.PriceFeed,
) (Position, error) {
	p := Position{Bank: balance.BankPk, Side: side}

	bank, ok := banks[balance.BankPk]
	if !ok || bank == nil {
		return p, &LookupError{Bank: balance.BankPk, Kind: KindBank}
	}
	feed, ok := feeds[balance.BankPk]
	if !ok || feed == nil {
		return p, &LookupError{Bank: balance.BankPk, Kind: KindPriceFeed}
	}

	bias := AssetBias
	if side == marginfi.BalanceSideLiabilities {
		bias = LiabilityBias
	}

	price, err := feed.Price(oracle.PriceQuery{
		Type:          oracle.PriceTypeRealTime,
		Bias:          bias,
		MaxConfidence: bank.Config.OracleMaxConfidence,
	})
	if err != nil {
		return p, err
	}

	amount, err := bank.Amount(side, balance.Shares(side))
	if err != nil {
		return p, fmt.Errorf("amount: %w", err)
	}
	native, err := amount.CheckedMul(price)
	if err != nil {
		return p, fmt.Errorf("value: %w", err)
	}
	usd, err := bank.DisplayAmount(native)
	if err != nil {
		return p, err
	}

	weight := bank.Config.MaintWeight(side)
	weighted, err := usd.CheckedMul(weight)
	if err != nil {
		return p, fmt.Errorf("weighted value: %w", err)
	}

	p.Amount = amount
	p.Price = price
	p.Value = usd
	p.Weight = weight
	p.WeightedValue = weighted
	return p, nil
}
