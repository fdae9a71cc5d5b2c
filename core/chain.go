package core

import (
	"context"

	"mrgnwatch/internal/oracle"

	"github.com/gagliardetto/solana-go"
)

// IAccountFetcher reads raw account data from a solana node
type IAccountFetcher interface {
	// GetAccount returns ErrAccountNotFound if the account does not exist
	GetAccount(ctx context.Context, key solana.PublicKey) ([]byte, error)
	// GetAccounts returns the data in key order, nil for missing accounts
	GetAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error)
	GetClock(ctx context.Context) (oracle.Clock, error)
}
