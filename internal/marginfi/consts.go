package marginfi

import (
	"mrgnwatch/pkg/layout"

	"github.com/gagliardetto/solana-go"
)

// ProgramID marginfi v2 mainnet program
var ProgramID = solana.MustPublicKeyFromBase58("MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA")

const (
	// MaxOracleKeys oracle key slots in a bank config
	MaxOracleKeys = 5
	// MaxBalances balance slots in a lending account
	MaxBalances = 16

	// MaxPythOracleAge default max age for pyth push banks that left it unset
	MaxPythOracleAge uint64 = 60

	// published record sizes, without the discriminator
	BankConfigSize  = 544
	BankSize        = 1856
	BalanceSize     = 104
	AccountSize     = 2304
	HealthCacheSize = 304
)

func init() {
	layout.MustVerify(BankConfig{}, Bank{}, Account{})
}

// Asset tags partition which assets may share an account
const (
	AssetTagDefault uint8 = 0
	AssetTagSol     uint8 = 1
	AssetTagStaked  uint8 = 2
)

var (
	// BankDiscriminator tag of Bank accounts
	BankDiscriminator = layout.AccountDiscriminator("Bank")
	// AccountDiscriminator tag of MarginfiAccount accounts
	AccountDiscriminator = layout.AccountDiscriminator("MarginfiAccount")
	// HealthPulseDiscriminator tag of the HealthPulseEvent log
	HealthPulseDiscriminator = layout.EventDiscriminator("HealthPulseEvent")
)

// OracleSetup oracle kind configured on a bank
type OracleSetup uint8

const (
	OracleSetupNone OracleSetup = iota
	OracleSetupPythLegacy
	OracleSetupSwitchboardV2
	OracleSetupPythPushOracle
	OracleSetupSwitchboardPull
	OracleSetupStakedWithPythPush
	OracleSetupKaminoPythPush
	OracleSetupKaminoSwitchboardPull
	OracleSetupFixed
)

func (s OracleSetup) String() string {
	switch s {
	case OracleSetupNone:
		return "None"
	case OracleSetupPythLegacy:
		return "PythLegacy"
	case OracleSetupSwitchboardV2:
		return "SwitchboardV2"
	case OracleSetupPythPushOracle:
		return "PythPushOracle"
	case OracleSetupSwitchboardPull:
		return "SwitchboardPull"
	case OracleSetupStakedWithPythPush:
		return "StakedWithPythPush"
	case OracleSetupKaminoPythPush:
		return "KaminoPythPush"
	case OracleSetupKaminoSwitchboardPull:
		return "KaminoSwitchboardPull"
	case OracleSetupFixed:
		return "Fixed"
	default:
		return "Unknown"
	}
}

// BankOperationalState bank state
type BankOperationalState uint8

const (
	BankOperationalStatePaused BankOperationalState = iota
	BankOperationalStateOperational
	BankOperationalStateReduceOnly
)

func (s BankOperationalState) String() string {
	switch s {
	case BankOperationalStatePaused:
		return "Paused"
	case BankOperationalStateOperational:
		return "Operational"
	case BankOperationalStateReduceOnly:
		return "ReduceOnly"
	default:
		return "Unknown"
	}
}

// RiskTier risk tier
type RiskTier uint8

const (
	RiskTierCollateral RiskTier = iota
	RiskTierIsolated
)

func (t RiskTier) String() string {
	switch t {
	case RiskTierCollateral:
		return "Collateral"
	case RiskTierIsolated:
		return "Isolated"
	default:
		return "Unknown"
	}
}

// BalanceSide side of a balance
type BalanceSide uint8

const (
	BalanceSideAssets BalanceSide = iota
	BalanceSideLiabilities
)

func (s BalanceSide) String() string {
	switch s {
	case BalanceSideAssets:
		return "assets"
	case BalanceSideLiabilities:
		return "liabilities"
	default:
		return "unknown"
	}
}

func (s BalanceSide) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
