package marginfi

import (
	"unsafe"

	"mrgnwatch/pkg/fixed"

	"github.com/gagliardetto/solana-go"
)

// static layout assertions, a size or alignment drift fails compilation
var (
	_ = [1]struct{}{}[unsafe.Sizeof(BankConfig{})-BankConfigSize]
	_ = [1]struct{}{}[unsafe.Alignof(BankConfig{})-8]
	_ = [1]struct{}{}[unsafe.Sizeof(InterestRateConfig{})-240]
)

// InterestRateConfig kept for layout, interest is not accrued here
type InterestRateConfig struct {
	OptimalUtilizationRate fixed.WrappedI80F48 `json:"optimal_utilization_rate"`
	PlateauInterestRate    fixed.WrappedI80F48 `json:"plateau_interest_rate"`
	MaxInterestRate        fixed.WrappedI80F48 `json:"max_interest_rate"`
	InsuranceFeeFixedApr   fixed.WrappedI80F48 `json:"insurance_fee_fixed_apr"`
	InsuranceIrFee         fixed.WrappedI80F48 `json:"insurance_ir_fee"`
	ProtocolFixedFeeApr    fixed.WrappedI80F48 `json:"protocol_fixed_fee_apr"`
	ProtocolIrFee          fixed.WrappedI80F48 `json:"protocol_ir_fee"`
	ProtocolOriginationFee fixed.WrappedI80F48 `json:"protocol_origination_fee"`
	Padding0               [16]byte            `json:"-"`
	Padding1               [3][32]byte         `json:"-"`
}

// BankConfig risk parameters and oracle setup of a bank
type BankConfig struct {
	AssetWeightInit      fixed.WrappedI80F48 `json:"asset_weight_init"`
	AssetWeightMaint     fixed.WrappedI80F48 `json:"asset_weight_maint"`
	LiabilityWeightInit  fixed.WrappedI80F48 `json:"liability_weight_init"`
	LiabilityWeightMaint fixed.WrappedI80F48 `json:"liability_weight_maint"`

	DepositLimit       uint64             `json:"deposit_limit"`
	InterestRateConfig InterestRateConfig `json:"interest_rate_config"`

	OperationalState BankOperationalState            `json:"operational_state"`
	OracleSetup      OracleSetup                     `json:"oracle_setup"`
	OracleKeys       [MaxOracleKeys]solana.PublicKey `json:"oracle_keys"`
	// state (1) + oracle setup (1) + keys (160) + 6 = next 8-byte boundary
	Padding0 [6]byte `json:"-"`

	BorrowLimit uint64   `json:"borrow_limit"`
	RiskTier    RiskTier `json:"risk_tier"`
	AssetTag    uint8    `json:"asset_tag"`
	ConfigFlags uint8    `json:"config_flags"`
	Padding1    [5]byte  `json:"-"`

	// UI USD value, 100 means $100
	TotalAssetValueInitLimit uint64 `json:"total_asset_value_init_limit"`

	// seconds an oracle price stays usable
	OracleMaxAge uint16  `json:"oracle_max_age"`
	Padding2     [2]byte `json:"-"`
	// fraction of u32::MAX, 0 means the default 10%
	OracleMaxConfidence uint32 `json:"oracle_max_confidence"`

	// only used by OracleSetupFixed
	FixedPrice fixed.WrappedI80F48 `json:"fixed_price"`
	Padding3   [16]byte            `json:"-"`
}

func (BankConfig) RecordName() string { return "BankConfig" }
func (BankConfig) RecordSize() int    { return BankConfigSize }
func (BankConfig) RecordAlign() int   { return 8 }

// MaxAge oracle max age in seconds, pyth push banks without one use the default
func (c *BankConfig) MaxAge() uint64 {
	if c.OracleMaxAge == 0 && c.OracleSetup == OracleSetupPythPushOracle {
		return MaxPythOracleAge
	}
	return uint64(c.OracleMaxAge)
}

// MaintWeight maintenance weight of the given side
func (c *BankConfig) MaintWeight(side BalanceSide) fixed.I80F48 {
	if side == BalanceSideAssets {
		return c.AssetWeightMaint.Unwrap()
	}
	return c.LiabilityWeightMaint.Unwrap()
}

// InitWeight initial weight of the given side
func (c *BankConfig) InitWeight(side BalanceSide) fixed.I80F48 {
	if side == BalanceSideAssets {
		return c.AssetWeightInit.Unwrap()
	}
	return c.LiabilityWeightInit.Unwrap()
}

// OracleKeyCount number of oracle accounts the configured setup reads
func (c *BankConfig) OracleKeyCount() int {
	switch c.OracleSetup {
	case OracleSetupPythPushOracle, OracleSetupSwitchboardPull:
		return 1
	case OracleSetupKaminoPythPush, OracleSetupKaminoSwitchboardPull:
		return 2
	case OracleSetupStakedWithPythPush:
		return 3
	default:
		return 0
	}
}

// OracleAccounts keys of the oracle accounts the configured setup reads
func (c *BankConfig) OracleAccounts() []solana.PublicKey {
	n := c.OracleKeyCount()
	keys := make([]solana.PublicKey, n)
	copy(keys, c.OracleKeys[:n])
	return keys
}
