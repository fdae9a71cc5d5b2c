package oracle

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/layout"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

var _ = [1]struct{}{}[unsafe.Sizeof(ReserveHead{})-ReserveHeadSize]

// LamportsPerSol native units of one SOL
const LamportsPerSol uint64 = 1_000_000_000

// MintSize length of an spl token mint, token-2022 mints may be longer
const MintSize = 82

// stakeStateStake bincode tag of StakeStateV2::Stake
const stakeStateStake uint32 = 2

// Mint spl token mint
type Mint struct {
	MintAuthorityOption   uint32           `json:"-"`
	MintAuthority         solana.PublicKey `json:"mint_authority"`
	Supply                uint64           `json:"supply"`
	Decimals              uint8            `json:"decimals"`
	IsInitialized         bool             `json:"is_initialized"`
	FreezeAuthorityOption uint32           `json:"-"`
	FreezeAuthority       solana.PublicKey `json:"freeze_authority"`
}

// DecodeMint decode an spl token mint account
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) < MintSize {
		return nil, &layout.DecodeError{Record: "Mint", Len: len(data), Err: layout.ErrShortBuffer}
	}

	var m Mint
	if err := bin.NewBinDecoder(data[:MintSize]).Decode(&m); err != nil {
		return nil, &layout.DecodeError{Record: "Mint", Len: len(data), Err: err}
	}
	return &m, nil
}

// StakeDelegation the Stake variant of a native stake account
type StakeDelegation struct {
	RentExemptReserve   uint64           `json:"rent_exempt_reserve"`
	Staker              solana.PublicKey `json:"staker"`
	Withdrawer          solana.PublicKey `json:"withdrawer"`
	LockupUnixTimestamp int64            `json:"lockup_unix_timestamp"`
	LockupEpoch         uint64           `json:"lockup_epoch"`
	LockupCustodian     solana.PublicKey `json:"lockup_custodian"`
	Voter               solana.PublicKey `json:"voter"`
	Stake               uint64           `json:"stake"`
	ActivationEpoch     uint64           `json:"activation_epoch"`
	DeactivationEpoch   uint64           `json:"deactivation_epoch"`
	WarmupCooldownRate  float64          `json:"warmup_cooldown_rate"`
	CreditsObserved     uint64           `json:"credits_observed"`
}

// DecodeStakeState decode a native stake account, only delegated accounts
// are accepted
func DecodeStakeState(data []byte) (*StakeDelegation, error) {
	dec := bin.NewBinDecoder(data)
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, &layout.DecodeError{Record: "StakeStateV2", Len: len(data), Err: err}
	}
	if tag != stakeStateStake {
		return nil, fmt.Errorf("%w: state %d", ErrUnsupportedStakeState, tag)
	}

	var s StakeDelegation
	if err := dec.Decode(&s); err != nil {
		return nil, &layout.DecodeError{Record: "StakeStateV2", Len: len(data), Err: err}
	}
	return &s, nil
}

// ReserveDiscriminator tag of kamino lending Reserve accounts
var ReserveDiscriminator = layout.AccountDiscriminator("Reserve")

// ReserveHeadSize bytes of a kamino Reserve up to the collateral supply
const ReserveHeadSize = 2592

// ReserveHead leading part of a kamino lending Reserve: the liquidity and
// collateral supplies. sf values carry 60 fractional bits.
type ReserveHead struct {
	Version        uint64           `json:"version"`
	LastUpdateSlot uint64           `json:"last_update_slot"`
	LastUpdateMeta [8]byte          `json:"-"`
	LendingMarket  solana.PublicKey `json:"lending_market"`
	FarmCollateral solana.PublicKey `json:"farm_collateral"`
	FarmDebt       solana.PublicKey `json:"farm_debt"`

	LiquidityMint            solana.PublicKey `json:"liquidity_mint"`
	LiquiditySupplyVault     solana.PublicKey `json:"liquidity_supply_vault"`
	LiquidityFeeVault        solana.PublicKey `json:"liquidity_fee_vault"`
	AvailableAmount          uint64           `json:"available_amount"`
	BorrowedAmountSf         [16]byte         `json:"-"`
	MarketPriceSf            [16]byte         `json:"-"`
	MarketPriceLastUpdatedTs uint64           `json:"market_price_last_updated_ts"`
	MintDecimals             uint64           `json:"mint_decimals"`
	DepositLimitCrossedTs    uint64           `json:"-"`
	BorrowLimitCrossedTs     uint64           `json:"-"`
	CumulativeBorrowRateBsf  [48]byte         `json:"-"`
	AccumulatedProtocolFees  [16]byte         `json:"-"`
	AccumulatedReferrerFees  [16]byte         `json:"-"`
	PendingReferrerFees      [16]byte         `json:"-"`
	AbsoluteReferralRate     [16]byte         `json:"-"`
	TokenProgram             solana.PublicKey `json:"token_program"`
	LiquidityPadding         [920]byte        `json:"-"`
	ReserveLiquidityPadding  [150]uint64      `json:"-"`

	CollateralMint  solana.PublicKey `json:"collateral_mint"`
	MintTotalSupply uint64           `json:"mint_total_supply"`
}

func (ReserveHead) RecordName() string { return "Reserve" }
func (ReserveHead) RecordSize() int    { return ReserveHeadSize }
func (ReserveHead) RecordAlign() int   { return 8 }

// DecodeReserve decode the head of a kamino Reserve account
func DecodeReserve(data []byte) (*ReserveHead, error) {
	if err := layout.CheckDiscriminator("Reserve", data, ReserveDiscriminator); err != nil {
		return nil, err
	}

	r, err := layout.DecodePrefix[ReserveHead](data)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ScaledSupplies total liquidity (available + borrowed - fees) and total
// collateral of the reserve, in native units
func (r *ReserveHead) ScaledSupplies() (liquidity, collateral fixed.I80F48, err error) {
	liquidity, err = fixed.FromUint64(r.AvailableAmount).CheckedAdd(fromSf(r.BorrowedAmountSf))
	if err != nil {
		return
	}
	for _, sf := range [][16]byte{r.AccumulatedProtocolFees, r.AccumulatedReferrerFees, r.PendingReferrerFees} {
		if liquidity, err = liquidity.CheckedSub(fromSf(sf)); err != nil {
			return
		}
	}

	return liquidity, fixed.FromUint64(r.MintTotalSupply), nil
}

// fromSf u128 with 60 fractional bits to I80F48
func fromSf(sf [16]byte) fixed.I80F48 {
	var be [16]byte
	for i := range be {
		be[i] = sf[15-i]
	}

	var v uint256.Int
	v.SetBytes(be[:])
	v.Rsh(&v, 60-fixed.FracBits)

	// 68 integer bits always fit into 80
	var w fixed.WrappedI80F48
	b := v.Bytes32()
	for i := range w.Value {
		w.Value[i] = b[31-i]
	}
	return w.Unwrap()
}

// scaleStaked price * (stake - 1 SOL) / lst supply on the pyth spot and EMA
// mantissas, truncating like integer division
func scaleStaked(feed *PriceFeed, stake *StakeDelegation, lst *Mint) error {
	if lst.Supply == 0 {
		return ErrZeroSupplyInStakePool
	}
	if stake.Stake < LamportsPerSol {
		return fmt.Errorf("%w: stake %d below one SOL", fixed.ErrArithmetic, stake.Stake)
	}
	balance := stake.Stake - LamportsPerSol

	var err error
	if feed.price.Price, err = mulDiv(feed.price.Price, balance, lst.Supply); err != nil {
		return err
	}
	if feed.ema.Price, err = mulDiv(feed.ema.Price, balance, lst.Supply); err != nil {
		return err
	}
	return nil
}

// mulDiv v * num / den with a 128-bit intermediate, rounded toward zero
func mulDiv(v int64, num, den uint64) (int64, error) {
	neg := v < 0
	abs := uint64(v)
	if neg {
		abs = uint64(-v)
	}

	var z uint256.Int
	z.Mul(uint256.NewInt(abs), uint256.NewInt(num))
	z.Div(&z, uint256.NewInt(den))
	if !z.IsUint64() || z.Uint64() > math.MaxInt64 {
		return 0, fixed.ErrOverflow
	}

	r := int64(z.Uint64())
	if neg {
		r = -r
	}
	return r, nil
}

// scaleKamino multiplies price, EMA and confidence of the base feed by
// liquidity / collateral. A non-positive collateral keeps the feed unscaled.
func scaleKamino(feed *PriceFeed, reserve *ReserveHead) error {
	liquidity, collateral, err := reserve.ScaledSupplies()
	if err != nil {
		return err
	}
	if !collateral.IsPositive() {
		return nil
	}

	ratio, err := liquidity.CheckedDiv(collateral)
	if err != nil {
		return err
	}

	switch feed.Kind {
	case KindPythPush:
		for _, p := range []*PythPrice{&feed.price, &feed.ema} {
			if p.Price, err = adjustInt64(p.Price, ratio); err != nil {
				return err
			}
			if p.Conf, err = adjustUint64(p.Conf, ratio); err != nil {
				return err
			}
		}
	case KindSwitchboardPull:
		for _, v := range []*fixed.I80F48{&feed.switchboard.Value, &feed.switchboard.StdDev} {
			if *v, err = adjustInteger(*v, ratio); err != nil {
				return err
			}
		}
	}
	return nil
}

// adjustInteger floor(v * ratio) for an integer valued v
func adjustInteger(v, ratio fixed.I80F48) (fixed.I80F48, error) {
	scaled, err := v.CheckedMul(ratio)
	if err != nil {
		return fixed.Zero, err
	}
	return fixed.FromBig(scaled.Floor())
}

func adjustInt64(v int64, ratio fixed.I80F48) (int64, error) {
	scaled, err := adjustInteger(fixed.FromInt64(v), ratio)
	if err != nil {
		return 0, err
	}
	return scaled.Int64()
}

func adjustUint64(v uint64, ratio fixed.I80F48) (uint64, error) {
	scaled, err := adjustInteger(fixed.FromUint64(v), ratio)
	if err != nil {
		return 0, err
	}
	return scaled.Uint64()
}
