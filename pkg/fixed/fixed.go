package fixed

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// FracBits number of fractional bits of I80F48
const FracBits = 48

// MaxPow10 largest n for which 10^n fits into the integer part
const MaxPow10 = 23

var (
	// ErrArithmetic any failure of a checked fixed-point operation
	ErrArithmetic = errors.New("fixed: arithmetic error")
	// ErrOverflow result does not fit into 128 bits
	ErrOverflow = fmt.Errorf("%w: overflow", ErrArithmetic)
	// ErrDivideByZero division by zero
	ErrDivideByZero = fmt.Errorf("%w: division by zero", ErrArithmetic)
)

var (
	allOnes = new(uint256.Int).Not(uint256.NewInt(0))
	two128  = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	pow5_48 = new(big.Int).Exp(big.NewInt(5), big.NewInt(FracBits), nil)
	two48   = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), FracBits), 0)

	// Zero 0
	Zero = I80F48{}
	// One 1
	One = FromInt64(1)

	pow10 [MaxPow10 + 1]I80F48
)

func init() {
	ten := uint256.NewInt(10)
	pow10[0] = One
	for i := 1; i <= MaxPow10; i++ {
		pow10[i].bits.Mul(&pow10[i-1].bits, ten)
	}
}

// I80F48 signed fixed-point number with 80 integer bits and 48 fractional bits.
//
// The raw i128 is kept sign-extended inside a 256-bit word so that products and
// shifted dividends never lose bits before the range check.
type I80F48 struct {
	bits uint256.Int
}

func signed(n int64) uint256.Int {
	var z uint256.Int
	if n < 0 {
		z.SetUint64(uint64(-n))
		z.Neg(&z)
	} else {
		z.SetUint64(uint64(n))
	}
	return z
}

func inRange(v *uint256.Int, bits uint) bool {
	var hi uint256.Int
	hi.SRsh(v, bits-1)
	return hi.IsZero() || hi.Eq(allOnes)
}

func checked(z I80F48) (I80F48, error) {
	if !inRange(&z.bits, 128) {
		return Zero, ErrOverflow
	}
	return z, nil
}

// FromInt64 integer to fixed
func FromInt64(n int64) I80F48 {
	var z I80F48
	z.bits = signed(n)
	z.bits.Lsh(&z.bits, FracBits)
	return z
}

// FromUint64 integer to fixed
func FromUint64(n uint64) I80F48 {
	var z I80F48
	z.bits.SetUint64(n)
	z.bits.Lsh(&z.bits, FracBits)
	return z
}

// FromBig integer to fixed, fails when n needs more than 80 integer bits
func FromBig(n *big.Int) (I80F48, error) {
	abs := new(big.Int).Abs(n)
	v, overflow := uint256.FromBig(abs)
	if overflow {
		return Zero, ErrOverflow
	}

	var z I80F48
	z.bits = *v
	if n.Sign() < 0 {
		z.bits.Neg(&z.bits)
	}
	z.bits.Lsh(&z.bits, FracBits)
	if !inRange(v, 256-FracBits) {
		return Zero, ErrOverflow
	}
	return checked(z)
}

// FromDecimal rounds d down to the nearest representable value
func FromDecimal(d decimal.Decimal) (I80F48, error) {
	raw := d.Mul(two48).Floor().BigInt()
	abs := new(big.Int).Abs(raw)
	v, overflow := uint256.FromBig(abs)
	if overflow {
		return Zero, ErrOverflow
	}

	var z I80F48
	z.bits = *v
	if raw.Sign() < 0 {
		z.bits.Neg(&z.bits)
	}
	return checked(z)
}

// MustParse parse decimal literal, panics on bad input. Meant for constants.
func MustParse(s string) I80F48 {
	z, err := FromDecimal(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return z
}

// Pow10 10^n
func Pow10(n int) (I80F48, error) {
	if n < 0 || n > MaxPow10 {
		return Zero, fmt.Errorf("%w: 10^%d", ErrOverflow, n)
	}
	return pow10[n], nil
}

// CheckedAdd a + b
func (a I80F48) CheckedAdd(b I80F48) (I80F48, error) {
	var z I80F48
	z.bits.Add(&a.bits, &b.bits)
	return checked(z)
}

// CheckedSub a - b
func (a I80F48) CheckedSub(b I80F48) (I80F48, error) {
	var z I80F48
	z.bits.Sub(&a.bits, &b.bits)
	return checked(z)
}

// CheckedMul a * b, rounded toward negative infinity
func (a I80F48) CheckedMul(b I80F48) (I80F48, error) {
	var z I80F48
	z.bits.Mul(&a.bits, &b.bits)
	z.bits.SRsh(&z.bits, FracBits)
	return checked(z)
}

// CheckedDiv a / b, rounded toward zero
func (a I80F48) CheckedDiv(b I80F48) (I80F48, error) {
	if b.bits.IsZero() {
		return Zero, ErrDivideByZero
	}

	var n, z I80F48
	n.bits.Lsh(&a.bits, FracBits)
	z.bits.SDiv(&n.bits, &b.bits)
	return checked(z)
}

// Neg -a
func (a I80F48) Neg() (I80F48, error) {
	var z I80F48
	z.bits.Neg(&a.bits)
	return checked(z)
}

// Cmp returns -1, 0 or 1
func (a I80F48) Cmp(b I80F48) int {
	switch {
	case a.bits.Slt(&b.bits):
		return -1
	case a.bits.Sgt(&b.bits):
		return 1
	default:
		return 0
	}
}

func (a I80F48) Sign() int {
	return a.bits.Sign()
}

func (a I80F48) IsZero() bool {
	return a.bits.IsZero()
}

func (a I80F48) IsNegative() bool {
	return a.bits.Sign() < 0
}

func (a I80F48) IsPositive() bool {
	return a.bits.Sign() > 0
}

func (a I80F48) Equal(b I80F48) bool {
	return a.bits.Eq(&b.bits)
}

func (a I80F48) LessThan(b I80F48) bool {
	return a.Cmp(b) < 0
}

func (a I80F48) GreaterThan(b I80F48) bool {
	return a.Cmp(b) > 0
}

// Min smaller of a and b
func Min(a, b I80F48) I80F48 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Floor integer part rounded toward negative infinity
func (a I80F48) Floor() *big.Int {
	var z uint256.Int
	z.SRsh(&a.bits, FracBits)
	return toBig(&z)
}

// Int64 integer part (floor), fails when it does not fit into int64
func (a I80F48) Int64() (int64, error) {
	n := a.Floor()
	if !n.IsInt64() {
		return 0, ErrOverflow
	}
	return n.Int64(), nil
}

// Uint64 integer part (floor), fails when negative or too large
func (a I80F48) Uint64() (uint64, error) {
	n := a.Floor()
	if !n.IsUint64() {
		return 0, ErrOverflow
	}
	return n.Uint64(), nil
}

// Raw underlying i128 value (value * 2^48)
func (a I80F48) Raw() *big.Int {
	return toBig(&a.bits)
}

// Decimal exact decimal representation
func (a I80F48) Decimal() decimal.Decimal {
	raw := toBig(&a.bits)
	return decimal.NewFromBigInt(raw.Mul(raw, pow5_48), -FracBits)
}

func (a I80F48) String() string {
	return a.Decimal().String()
}

// MarshalJSON exact decimal string
func (a I80F48) MarshalJSON() ([]byte, error) {
	return a.Decimal().MarshalJSON()
}

// Float64 lossy, only for logging and metrics
func (a I80F48) Float64() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

func toBig(v *uint256.Int) *big.Int {
	if v.Sign() >= 0 {
		return v.ToBig()
	}
	var abs uint256.Int
	abs.Neg(v)
	b := abs.ToBig()
	return b.Neg(b)
}
