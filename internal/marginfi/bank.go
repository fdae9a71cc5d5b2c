package marginfi

import (
	"fmt"
	"unsafe"

	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/layout"

	"github.com/gagliardetto/solana-go"
)

var (
	_ = [1]struct{}{}[unsafe.Sizeof(Bank{})-BankSize]
	_ = [1]struct{}{}[unsafe.Alignof(Bank{})-8]
	_ = [1]struct{}{}[unsafe.Sizeof(EmodeSettings{})-424]
	_ = [1]struct{}{}[unsafe.Sizeof(BankCache{})-160]
)

// MaxEmodeEntries entries in a bank emode config
const MaxEmodeEntries = 10

// EmodeEntry weights a bank grants to collateral carrying the given emode tag
type EmodeEntry struct {
	CollateralBankEmodeTag uint16              `json:"collateral_bank_emode_tag"`
	Flags                  uint8               `json:"flags"`
	Padding0               [5]byte             `json:"-"`
	AssetWeightInit        fixed.WrappedI80F48 `json:"asset_weight_init"`
	AssetWeightMaint       fixed.WrappedI80F48 `json:"asset_weight_maint"`
}

// EmodeSettings emode data of a bank. Decoded for inspection only, the
// weights are not applied to health.
type EmodeSettings struct {
	EmodeTag  uint16                      `json:"emode_tag"`
	Padding0  [6]byte                     `json:"-"`
	Timestamp int64                       `json:"timestamp"`
	Flags     uint64                      `json:"flags"`
	Entries   [MaxEmodeEntries]EmodeEntry `json:"entries"`
}

// ActiveEntries entries with a non-zero tag
func (e *EmodeSettings) ActiveEntries() []EmodeEntry {
	var entries []EmodeEntry
	for _, entry := range e.Entries {
		if entry.CollateralBankEmodeTag != 0 {
			entries = append(entries, entry)
		}
	}
	return entries
}

// BankCache rates cached by the program on the last accrual
type BankCache struct {
	BaseRate                   uint32              `json:"base_rate"`
	LendingRate                uint32              `json:"lending_rate"`
	BorrowingRate              uint32              `json:"borrowing_rate"`
	InterestAccumulatedFor     uint32              `json:"interest_accumulated_for"`
	AccumulatedSinceLastUpdate fixed.WrappedI80F48 `json:"accumulated_since_last_update"`
	Reserved0                  [128]byte           `json:"-"`
}

// Bank a lending pool for one mint
type Bank struct {
	Mint         solana.PublicKey `json:"mint"`
	MintDecimals uint8            `json:"mint_decimals"`
	Group        solana.PublicKey `json:"group"`
	Padding0     [7]byte          `json:"-"`

	AssetShareValue     fixed.WrappedI80F48 `json:"asset_share_value"`
	LiabilityShareValue fixed.WrappedI80F48 `json:"liability_share_value"`

	LiquidityVault              solana.PublicKey `json:"liquidity_vault"`
	LiquidityVaultBump          uint8            `json:"liquidity_vault_bump"`
	LiquidityVaultAuthorityBump uint8            `json:"liquidity_vault_authority_bump"`

	InsuranceVault              solana.PublicKey `json:"insurance_vault"`
	InsuranceVaultBump          uint8            `json:"insurance_vault_bump"`
	InsuranceVaultAuthorityBump uint8            `json:"insurance_vault_authority_bump"`
	Padding1                    [4]byte          `json:"-"`

	CollectedInsuranceFeesOutstanding fixed.WrappedI80F48 `json:"collected_insurance_fees_outstanding"`

	FeeVault              solana.PublicKey `json:"fee_vault"`
	FeeVaultBump          uint8            `json:"fee_vault_bump"`
	FeeVaultAuthorityBump uint8            `json:"fee_vault_authority_bump"`
	Padding2              [6]byte          `json:"-"`

	CollectedGroupFeesOutstanding fixed.WrappedI80F48 `json:"collected_group_fees_outstanding"`

	TotalLiabilityShares fixed.WrappedI80F48 `json:"total_liability_shares"`
	TotalAssetShares     fixed.WrappedI80F48 `json:"total_asset_shares"`

	LastUpdate int64      `json:"last_update"`
	Config     BankConfig `json:"config"`

	Flags              uint64              `json:"flags"`
	EmissionsRate      uint64              `json:"emissions_rate"`
	EmissionsRemaining fixed.WrappedI80F48 `json:"emissions_remaining"`
	EmissionsMint      solana.PublicKey    `json:"emissions_mint"`

	CollectedProgramFeesOutstanding fixed.WrappedI80F48 `json:"collected_program_fees_outstanding"`

	Emode                  EmodeSettings    `json:"emode"`
	FeesDestinationAccount solana.PublicKey `json:"fees_destination_account"`
	Cache                  BankCache        `json:"cache"`

	Padding3 [41]uint64 `json:"-"`
}

func (Bank) RecordName() string { return "Bank" }
func (Bank) RecordSize() int    { return BankSize }
func (Bank) RecordAlign() int   { return 8 }

// DecodeBank decode a Bank account
func DecodeBank(data []byte) (*Bank, error) {
	bank, err := layout.DecodeChecked[Bank](data, BankDiscriminator)
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

// AssetAmount underlying amount (native units) of asset shares. The share
// value is the underlying held by one share of the pool.
func (b *Bank) AssetAmount(shares fixed.I80F48) (fixed.I80F48, error) {
	return SharesToAmount(shares, fixed.One, b.AssetShareValue.Unwrap())
}

// LiabilityAmount underlying amount (native units) of liability shares
func (b *Bank) LiabilityAmount(shares fixed.I80F48) (fixed.I80F48, error) {
	return SharesToAmount(shares, fixed.One, b.LiabilityShareValue.Unwrap())
}

// Amount underlying amount of shares on the given side
func (b *Bank) Amount(side BalanceSide, shares fixed.I80F48) (fixed.I80F48, error) {
	if side == BalanceSideAssets {
		return b.AssetAmount(shares)
	}
	return b.LiabilityAmount(shares)
}

// TotalAssets underlying amount of every asset share of the bank
func (b *Bank) TotalAssets() (fixed.I80F48, error) {
	return b.AssetAmount(b.TotalAssetShares.Unwrap())
}

// TotalLiabilities underlying amount of every liability share of the bank
func (b *Bank) TotalLiabilities() (fixed.I80F48, error) {
	return b.LiabilityAmount(b.TotalLiabilityShares.Unwrap())
}

// DisplayAmount native units to token units
func (b *Bank) DisplayAmount(amount fixed.I80F48) (fixed.I80F48, error) {
	return ToDisplayAmount(amount, b.MintDecimals)
}

// SharesToAmount proportional claim of shares on a pool
//
// amount = shares * (totalUnderlying / totalShares)
func SharesToAmount(shares, totalShares, totalUnderlying fixed.I80F48) (fixed.I80F48, error) {
	if shares.IsZero() || totalShares.IsZero() || totalUnderlying.IsZero() {
		return fixed.Zero, nil
	}

	shareValue, err := totalUnderlying.CheckedDiv(totalShares)
	if err != nil {
		return fixed.Zero, fmt.Errorf("share value: %w", err)
	}
	v, err := shares.CheckedMul(shareValue)
	if err != nil {
		return fixed.Zero, fmt.Errorf("shares to amount: %w", err)
	}
	return v, nil
}

// ToDisplayAmount amount / 10^decimals
func ToDisplayAmount(amount fixed.I80F48, decimals uint8) (fixed.I80F48, error) {
	scale, err := fixed.Pow10(int(decimals))
	if err != nil {
		return fixed.Zero, fmt.Errorf("display amount: %w", err)
	}
	v, err := amount.CheckedDiv(scale)
	if err != nil {
		return fixed.Zero, fmt.Errorf("display amount: %w", err)
	}
	return v, nil
}

// BankSummary bank totals in token units and the weights health applies
type BankSummary struct {
	Mint             solana.PublicKey `json:"mint"`
	TotalAssets      fixed.I80F48     `json:"total_assets"`
	TotalLiabilities fixed.I80F48     `json:"total_liabilities"`

	AssetWeightInit      fixed.I80F48 `json:"asset_weight_init"`
	AssetWeightMaint     fixed.I80F48 `json:"asset_weight_maint"`
	LiabilityWeightInit  fixed.I80F48 `json:"liability_weight_init"`
	LiabilityWeightMaint fixed.I80F48 `json:"liability_weight_maint"`

	OracleSetup    OracleSetup        `json:"oracle_setup"`
	OracleAccounts []solana.PublicKey `json:"oracle_accounts"`
	OracleMaxAge   uint64             `json:"oracle_max_age"`

	EmodeTag     uint16       `json:"emode_tag"`
	EmodeEntries []EmodeEntry `json:"emode_entries,omitempty"`
}

// Summary totals and weights of the bank
func (b *Bank) Summary() (*BankSummary, error) {
	assets, err := b.TotalAssets()
	if err != nil {
		return nil, fmt.Errorf("total assets: %w", err)
	}
	if assets, err = b.DisplayAmount(assets); err != nil {
		return nil, err
	}

	liabilities, err := b.TotalLiabilities()
	if err != nil {
		return nil, fmt.Errorf("total liabilities: %w", err)
	}
	if liabilities, err = b.DisplayAmount(liabilities); err != nil {
		return nil, err
	}

	return &BankSummary{
		Mint:                 b.Mint,
		TotalAssets:          assets,
		TotalLiabilities:     liabilities,
		AssetWeightInit:      b.Config.InitWeight(BalanceSideAssets),
		AssetWeightMaint:     b.Config.MaintWeight(BalanceSideAssets),
		LiabilityWeightInit:  b.Config.InitWeight(BalanceSideLiabilities),
		LiabilityWeightMaint: b.Config.MaintWeight(BalanceSideLiabilities),
		OracleSetup:          b.Config.OracleSetup,
		OracleAccounts:       b.Config.OracleAccounts(),
		OracleMaxAge:         b.Config.MaxAge(),
		EmodeTag:             b.Emode.EmodeTag,
		EmodeEntries:         b.Emode.ActiveEntries(),
	}, nil
}
