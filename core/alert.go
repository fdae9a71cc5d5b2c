package core

import (
	"context"

	"mrgnwatch/internal/health"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Alert liquidation alert sent for an unhealthy account
type Alert struct {
	Account        solana.PublicKey `json:"account"`
	AssetValue     decimal.Decimal  `json:"asset_value"`
	LiabilityValue decimal.Decimal  `json:"liability_value"`
	Margin         decimal.Decimal  `json:"margin"`
	Liquidatable   bool             `json:"liquidatable"`
	// transaction that emitted the triggering event, empty when evaluated on demand
	Signature string `json:"signature,omitempty"`
}

// NewAlert alert from a health report, in maintenance terms
func NewAlert(account solana.PublicKey, report *health.Report, signature string) *Alert {
	return &Alert{
		Account:        account,
		AssetValue:     report.AssetValueMaint.Decimal(),
		LiabilityValue: report.LiabilityValueMaint.Decimal(),
		Margin:         report.Margin.Decimal(),
		Liquidatable:   report.Liquidatable,
		Signature:      signature,
	}
}

// INotifier delivers liquidation alerts
type INotifier interface {
	Notify(ctx context.Context, alert *Alert) error
}
