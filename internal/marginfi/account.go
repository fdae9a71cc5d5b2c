package marginfi

import (
	"time"
	"unsafe"

	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/layout"

	"github.com/gagliardetto/solana-go"
)

var (
	_ = [1]struct{}{}[unsafe.Sizeof(Balance{})-BalanceSize]
	_ = [1]struct{}{}[unsafe.Sizeof(HealthCache{})-HealthCacheSize]
	_ = [1]struct{}{}[unsafe.Sizeof(Account{})-AccountSize]
	_ = [1]struct{}{}[unsafe.Alignof(Account{})-8]
)

// Balance position of an account in one bank
type Balance struct {
	Active       uint8            `json:"active"`
	BankPk       solana.PublicKey `json:"bank_pk"`
	BankAssetTag uint8            `json:"bank_asset_tag"`
	Padding0     [6]byte          `json:"-"`

	AssetShares          fixed.WrappedI80F48 `json:"asset_shares"`
	LiabilityShares      fixed.WrappedI80F48 `json:"liability_shares"`
	EmissionsOutstanding fixed.WrappedI80F48 `json:"emissions_outstanding"`

	LastUpdate uint64    `json:"last_update"`
	Padding1   [1]uint64 `json:"-"`
}

func (b *Balance) IsActive() bool {
	return b.Active != 0
}

// Shares shares held on the given side
func (b *Balance) Shares(side BalanceSide) fixed.I80F48 {
	if side == BalanceSideAssets {
		return b.AssetShares.Unwrap()
	}
	return b.LiabilityShares.Unwrap()
}

// IsEmpty no shares on the given side
func (b *Balance) IsEmpty(side BalanceSide) bool {
	if side == BalanceSideAssets {
		return b.AssetShares.IsZero()
	}
	return b.LiabilityShares.IsZero()
}

// IsMixed both sides hold shares. The program never leaves a balance in this
// state, seeing it means the data is not what we expect.
func (b *Balance) IsMixed() bool {
	return !b.IsEmpty(BalanceSideAssets) && !b.IsEmpty(BalanceSideLiabilities)
}

// LendingAccount balance slots of an account
type LendingAccount struct {
	Balances [MaxBalances]Balance `json:"balances"`
	Padding  [8]uint64            `json:"-"`
}

// ActiveBalances active balances, in slot order
func (l *LendingAccount) ActiveBalances() []Balance {
	balances := make([]Balance, 0, MaxBalances)
	for _, b := range l.Balances {
		if b.IsActive() {
			balances = append(balances, b)
		}
	}
	return balances
}

// Health cache flags
const (
	HealthCacheHealthy  uint32 = 1 << 0
	HealthCacheEngineOk uint32 = 1 << 1
	HealthCacheOracleOk uint32 = 1 << 2
)

// HealthCache health snapshot the program writes when it simulates the
// account. Read only here.
type HealthCache struct {
	AssetValue           fixed.WrappedI80F48 `json:"asset_value"`
	LiabilityValue       fixed.WrappedI80F48 `json:"liability_value"`
	AssetValueMaint      fixed.WrappedI80F48 `json:"asset_value_maint"`
	LiabilityValueMaint  fixed.WrappedI80F48 `json:"liability_value_maint"`
	AssetValueEquity     fixed.WrappedI80F48 `json:"asset_value_equity"`
	LiabilityValueEquity fixed.WrappedI80F48 `json:"liability_value_equity"`

	Timestamp int64  `json:"timestamp"`
	Flags     uint32 `json:"flags"`
	MrgnErr   uint32 `json:"mrgn_err"`

	Prices [MaxBalances][8]byte `json:"-"`

	InternalErr           uint32   `json:"internal_err"`
	InternalLiqErr        uint32   `json:"internal_liq_err"`
	InternalBankruptcyErr uint32   `json:"internal_bankruptcy_err"`
	Reserved0             [4]byte  `json:"-"`
	ProgramVersion        uint8    `json:"program_version"`
	Padding0              [7]byte  `json:"-"`
	Reserved1             [40]byte `json:"-"`
}

// IsSet the program has written the cache at least once
func (h *HealthCache) IsSet() bool {
	return h.Timestamp != 0
}

func (h *HealthCache) IsHealthy() bool {
	return h.Flags&HealthCacheHealthy != 0
}

// UpdatedAt time of the snapshot
func (h *HealthCache) UpdatedAt() time.Time {
	return time.Unix(h.Timestamp, 0)
}

// Account a marginfi borrower account
type Account struct {
	Group          solana.PublicKey `json:"group"`
	Authority      solana.PublicKey `json:"authority"`
	LendingAccount LendingAccount   `json:"lending_account"`

	AccountFlags                uint64           `json:"account_flags"`
	EmissionsDestinationAccount solana.PublicKey `json:"emissions_destination_account"`

	HealthCache HealthCache `json:"health_cache"`

	MigratedFrom solana.PublicKey `json:"migrated_from"`
	MigratedTo   solana.PublicKey `json:"migrated_to"`
	Padding0     [13]uint64       `json:"-"`
}

func (Account) RecordName() string { return "MarginfiAccount" }
func (Account) RecordSize() int    { return AccountSize }
func (Account) RecordAlign() int   { return 8 }

// DecodeAccount decode a MarginfiAccount account
func DecodeAccount(data []byte) (*Account, error) {
	account, err := layout.DecodeChecked[Account](data, AccountDiscriminator)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ActiveBalances active balances of the lending account
func (a *Account) ActiveBalances() []Balance {
	return a.LendingAccount.ActiveBalances()
}

// BankKeys bank keys of the active balances, in slot order
func (a *Account) BankKeys() []solana.PublicKey {
	balances := a.ActiveBalances()
	keys := make([]solana.PublicKey, 0, len(balances))
	for _, b := range balances {
		keys = append(keys, b.BankPk)
	}
	return keys
}

// CachedHealth the program's own health snapshot, nil if never written
func (a *Account) CachedHealth() *HealthCache {
	if !a.HealthCache.IsSet() {
		return nil
	}
	h := a.HealthCache
	return &h
}
