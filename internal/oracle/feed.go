package oracle

import (
	"fmt"

	"mrgnwatch/pkg/fixed"
)

var (
	// ConfIntervalMultiple pyth confidence to ~95% interval
	ConfIntervalMultiple = fixed.MustParse("2.12")
	// StdDevMultiple switchboard std dev to ~95% interval
	StdDevMultiple = fixed.MustParse("1.96")
	// MaxConfInterval applied interval never exceeds 5% of the price
	MaxConfInterval = fixed.MustParse("0.05")

	u32Max      = fixed.FromUint64(4294967295)
	u32MaxDiv10 = fixed.FromUint64(429496729)
)

// SwitchboardPrecision decimals of switchboard pull results
const SwitchboardPrecision = 18

// Kind variant of a resolved price feed. Derived oracle setups resolve to the
// kind of their base feed.
type Kind uint8

const (
	KindFixed Kind = iota
	KindPythPush
	KindSwitchboardPull
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindPythPush:
		return "pyth_push"
	case KindSwitchboardPull:
		return "switchboard_pull"
	default:
		return "unknown"
	}
}

// PriceType which pyth price to read
type PriceType uint8

const (
	// PriceTypeTimeWeighted EMA price
	PriceTypeTimeWeighted PriceType = iota
	// PriceTypeRealTime latest price
	PriceTypeRealTime
)

// PriceBias moves the price by the confidence interval
type PriceBias uint8

const (
	BiasNone PriceBias = iota
	BiasLow
	BiasHigh
)

func (b PriceBias) String() string {
	switch b {
	case BiasLow:
		return "low"
	case BiasHigh:
		return "high"
	default:
		return "none"
	}
}

// PriceQuery arguments of PriceFeed.Price
type PriceQuery struct {
	Type PriceType
	Bias PriceBias
	// fraction of u32::MAX, 0 means 10%
	MaxConfidence uint32
}

// PythPrice mantissa/exponent price as published by pyth
type PythPrice struct {
	Price       int64  `json:"price"`
	Conf        uint64 `json:"conf"`
	Exponent    int32  `json:"exponent"`
	PublishTime int64  `json:"publish_time"`
}

// SwitchboardResult integer value and std dev, scaled by 10^18
type SwitchboardResult struct {
	Value               fixed.I80F48 `json:"value"`
	StdDev              fixed.I80F48 `json:"std_dev"`
	LastUpdateTimestamp int64        `json:"last_update_timestamp"`
}

// PriceFeed a resolved oracle price of one bank
type PriceFeed struct {
	Kind Kind

	fixedPrice  fixed.I80F48
	price       PythPrice
	ema         PythPrice
	switchboard SwitchboardResult
}

// NewFixedFeed feed that always returns price
func NewFixedFeed(price fixed.I80F48) *PriceFeed {
	return &PriceFeed{Kind: KindFixed, fixedPrice: price}
}

// NewPythFeed feed over a pyth spot and EMA price
func NewPythFeed(price, ema PythPrice) *PriceFeed {
	return &PriceFeed{Kind: KindPythPush, price: price, ema: ema}
}

// NewSwitchboardFeed feed over a switchboard pull result
func NewSwitchboardFeed(result SwitchboardResult) *PriceFeed {
	return &PriceFeed{Kind: KindSwitchboardPull, switchboard: result}
}

// Pyth spot and EMA prices, zero values for other kinds
func (f *PriceFeed) Pyth() (price, ema PythPrice) {
	return f.price, f.ema
}

// Switchboard result, zero value for other kinds
func (f *PriceFeed) Switchboard() SwitchboardResult {
	return f.switchboard
}

// Price USD price of one token, biased as queried
func (f *PriceFeed) Price(q PriceQuery) (fixed.I80F48, error) {
	switch f.Kind {
	case KindFixed:
		return f.fixedPrice, nil
	case KindPythPush:
		return f.pythPrice(q)
	case KindSwitchboardPull:
		return f.switchboardPrice(q)
	default:
		return fixed.Zero, fmt.Errorf("%w: feed kind %d", ErrUnsupportedOracle, f.Kind)
	}
}

func (f *PriceFeed) pythPrice(q PriceQuery) (fixed.I80F48, error) {
	p := f.price
	if q.Type == PriceTypeTimeWeighted {
		p = f.ema
	}

	price, err := pythToFixed(fixed.FromInt64(p.Price), p.Exponent)
	if err != nil {
		return fixed.Zero, err
	}
	if q.Bias == BiasNone {
		return price, nil
	}

	conf, err := pythToFixed(fixed.FromUint64(p.Conf), p.Exponent)
	if err != nil {
		return fixed.Zero, err
	}
	interval, err := conf.CheckedMul(ConfIntervalMultiple)
	if err != nil {
		return fixed.Zero, err
	}

	return applyBias(price, interval, q)
}

func (f *PriceFeed) switchboardPrice(q PriceQuery) (fixed.I80F48, error) {
	scale, err := fixed.Pow10(SwitchboardPrecision)
	if err != nil {
		return fixed.Zero, err
	}

	price, err := f.switchboard.Value.CheckedDiv(scale)
	if err != nil {
		return fixed.Zero, err
	}
	if q.Bias == BiasNone {
		return price, nil
	}

	stdDev, err := f.switchboard.StdDev.CheckedDiv(scale)
	if err != nil {
		return fixed.Zero, err
	}
	interval, err := stdDev.CheckedMul(StdDevMultiple)
	if err != nil {
		return fixed.Zero, err
	}

	return applyBias(price, interval, q)
}

// pythToFixed mantissa * 10^exponent
func pythToFixed(mantissa fixed.I80F48, exponent int32) (fixed.I80F48, error) {
	if exponent == 0 {
		return mantissa, nil
	}

	abs := int(exponent)
	if abs < 0 {
		abs = -abs
	}
	scale, err := fixed.Pow10(abs)
	if err != nil {
		return fixed.Zero, err
	}

	if exponent < 0 {
		return mantissa.CheckedDiv(scale)
	}
	return mantissa.CheckedMul(scale)
}

func applyBias(price, interval fixed.I80F48, q PriceQuery) (fixed.I80F48, error) {
	interval, err := confidenceInterval(price, interval, q.MaxConfidence)
	if err != nil {
		return fixed.Zero, err
	}

	if q.Bias == BiasHigh {
		return price.CheckedAdd(interval)
	}
	return price.CheckedSub(interval)
}

// confidenceInterval rejects intervals wider than price * maxConfidence / u32::MAX
// and caps the rest at 5% of the price
func confidenceInterval(price, interval fixed.I80F48, maxConfidence uint32) (fixed.I80F48, error) {
	limit := u32MaxDiv10
	if maxConfidence > 0 {
		limit = fixed.FromUint64(uint64(maxConfidence))
	}

	maxConf, err := price.CheckedMul(limit)
	if err != nil {
		return fixed.Zero, err
	}
	if maxConf, err = maxConf.CheckedDiv(u32Max); err != nil {
		return fixed.Zero, err
	}
	if interval.GreaterThan(maxConf) {
		return fixed.Zero, fmt.Errorf("%w: interval %s, max %s", ErrMaxConfidenceExceeded, interval, maxConf)
	}

	capped, err := price.CheckedMul(MaxConfInterval)
	if err != nil {
		return fixed.Zero, err
	}
	if capped.IsNegative() || interval.IsNegative() {
		return fixed.Zero, fmt.Errorf("%w: negative confidence interval", fixed.ErrArithmetic)
	}

	return fixed.Min(interval, capped), nil
}
