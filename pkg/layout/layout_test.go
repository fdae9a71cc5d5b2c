package layout

import (
	"bytes"
	"encoding/hex"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Tag      uint8
	Padding0 [7]byte
	Amount   uint64
	Owner    [32]byte
}

func (sample) RecordName() string { return "Sample" }
func (sample) RecordSize() int    { return 48 }
func (sample) RecordAlign() int   { return 8 }

type misaligned struct {
	Tag    uint8
	Amount uint64
}

func (misaligned) RecordName() string { return "Misaligned" }
func (misaligned) RecordSize() int    { return 9 }
func (misaligned) RecordAlign() int   { return 8 }

var sampleDiscriminator = AccountDiscriminator("Sample")

func encodeSample(t *testing.T, s sample, disc Discriminator) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(disc[:])
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(&s))
	return buf.Bytes()
}

func TestAccountDiscriminator(t *testing.T) {
	// sha256("account:Bank")[:8]
	d := AccountDiscriminator("Bank")
	assert.Equal(t, "8e31a6f2324261bc", hex.EncodeToString(d[:]))
	assert.NotEqual(t, d, EventDiscriminator("Bank"))
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(sample{}))

	err := Verify(misaligned{})
	assert.ErrorIs(t, err, ErrLayout)
	assert.Panics(t, func() { MustVerify(sample{}, misaligned{}) })
}

func TestDecode(t *testing.T) {
	want := sample{Tag: 3, Amount: 1_000_000}
	want.Owner[0] = 0xab
	want.Owner[31] = 0xcd

	data := encodeSample(t, want, sampleDiscriminator)
	require.Len(t, data, DiscriminatorSize+48)

	got, err := DecodeChecked[sample](data, sampleDiscriminator)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeLength(t *testing.T) {
	data := encodeSample(t, sample{Tag: 1}, sampleDiscriminator)

	t.Run("short", func(t *testing.T) {
		_, err := Decode[sample](data[:len(data)-1])
		assert.ErrorIs(t, err, ErrShortBuffer)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Sample", de.Record)
		assert.Equal(t, len(data)-1, de.Len)
	})

	t.Run("long", func(t *testing.T) {
		_, err := Decode[sample](append(data, 0))
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("prefix allows trailing bytes", func(t *testing.T) {
		got, err := DecodePrefix[sample](append(data, 1, 2, 3))
		require.NoError(t, err)
		assert.Equal(t, uint8(1), got.Tag)
	})

	t.Run("prefix still needs the record", func(t *testing.T) {
		_, err := DecodePrefix[sample](data[:20])
		assert.ErrorIs(t, err, ErrShortBuffer)
	})
}

func TestDecodeDiscriminator(t *testing.T) {
	data := encodeSample(t, sample{}, AccountDiscriminator("Other"))

	_, err := DecodeChecked[sample](data, sampleDiscriminator)
	assert.ErrorIs(t, err, ErrDiscriminator)

	_, err = DecodeChecked[sample](data[:4], sampleDiscriminator)
	assert.ErrorIs(t, err, ErrShortBuffer)
}
