package core

import (
	"context"

	"mrgnwatch/internal/health"
	"mrgnwatch/internal/marginfi"

	"github.com/gagliardetto/solana-go"
)

// IHealthService evaluates marginfi accounts against live chain state
type IHealthService interface {
	Evaluate(ctx context.Context, account solana.PublicKey) (*health.Report, error)
	// Account decoded marginfi account
	Account(ctx context.Context, key solana.PublicKey) (*marginfi.Account, error)
	// Bank decoded bank
	Bank(ctx context.Context, key solana.PublicKey) (*marginfi.Bank, error)
}
