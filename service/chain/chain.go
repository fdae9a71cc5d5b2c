// Package chain reads marginfi and oracle accounts over solana json rpc.
package chain

import (
	"context"
	"errors"
	"fmt"

	"mrgnwatch/core"
	"mrgnwatch/internal/oracle"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// MaxMultipleAccounts getMultipleAccounts key limit of solana nodes
const MaxMultipleAccounts = 100

type fetcher struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// New new account fetcher
func New(client *rpc.Client, commitment string) core.IAccountFetcher {
	return &fetcher{
		client:     client,
		commitment: rpc.CommitmentType(commitment),
	}
}

func (f *fetcher) GetAccount(ctx context.Context, key solana.PublicKey) ([]byte, error) {
	result, err := f.client.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: f.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, core.ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get account %s: %w", key, err)
	}

	return result.GetBinary(), nil
}

func (f *fetcher) GetAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	accounts := make([][]byte, 0, len(keys))

	for len(keys) > 0 {
		n := len(keys)
		if n > MaxMultipleAccounts {
			n = MaxMultipleAccounts
		}

		result, err := f.client.GetMultipleAccountsWithOpts(ctx, keys[:n], &rpc.GetMultipleAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: f.commitment,
		})
		if err != nil {
			return nil, fmt.Errorf("get %d accounts: %w", n, err)
		}
		if len(result.Value) != n {
			return nil, fmt.Errorf("get %d accounts: node returned %d", n, len(result.Value))
		}

		for _, account := range result.Value {
			if account == nil || account.Data == nil {
				accounts = append(accounts, nil)
				continue
			}
			accounts = append(accounts, account.Data.GetBinary())
		}

		keys = keys[n:]
	}

	return accounts, nil
}

func (f *fetcher) GetClock(ctx context.Context) (oracle.Clock, error) {
	data, err := f.GetAccount(ctx, solana.SysVarClockPubkey)
	if err != nil {
		return oracle.Clock{}, fmt.Errorf("clock sysvar: %w", err)
	}

	return oracle.DecodeClock(data)
}
