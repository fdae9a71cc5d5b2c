// Package layout decodes fixed-size account records that follow an 8-byte
// discriminator, the way Anchor programs store them.
package layout

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"reflect"

	bin "github.com/gagliardetto/binary"
)

// DiscriminatorSize length of the type tag in front of every account
const DiscriminatorSize = 8

var (
	// ErrShortBuffer buffer smaller than discriminator + record
	ErrShortBuffer = errors.New("buffer too short")
	// ErrSizeMismatch buffer length is not discriminator + record
	ErrSizeMismatch = errors.New("buffer size mismatch")
	// ErrDiscriminator unexpected account type tag
	ErrDiscriminator = errors.New("discriminator mismatch")
	// ErrLayout go type does not match the published layout
	ErrLayout = errors.New("record layout mismatch")
)

// Discriminator Anchor account discriminator, sha256("account:<name>")[:8]
type Discriminator [DiscriminatorSize]byte

// AccountDiscriminator discriminator of the Anchor account named name
func AccountDiscriminator(name string) Discriminator {
	return hashPrefix("account:" + name)
}

// EventDiscriminator discriminator of the Anchor event named name
func EventDiscriminator(name string) Discriminator {
	return hashPrefix("event:" + name)
}

func hashPrefix(preimage string) Discriminator {
	sum := sha256.Sum256([]byte(preimage))

	var d Discriminator
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// DecodeError failure to interpret a buffer as a record
type DecodeError struct {
	Record string
	Len    int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%d bytes): %v", e.Record, e.Len, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Record a fixed layout type. Size and Align are the published values; the
// go type must match them exactly.
type Record interface {
	RecordName() string
	RecordSize() int
	RecordAlign() int
}

// Verify compares the go memory layout of a record with its published size and
// alignment. Packages defining records check them with MustVerify from init.
func Verify(r Record) error {
	size := int(reflect.TypeOf(r).Size())
	align := reflect.TypeOf(r).Align()
	if size != r.RecordSize() || align != r.RecordAlign() {
		return fmt.Errorf("%w: %s is %d bytes align %d, want %d bytes align %d",
			ErrLayout, r.RecordName(), size, align, r.RecordSize(), r.RecordAlign())
	}
	return nil
}

// MustVerify panics when Verify fails
func MustVerify(records ...Record) {
	for _, r := range records {
		if err := Verify(r); err != nil {
			panic(err)
		}
	}
}

// Decode strips the discriminator and decodes the record. The buffer must be
// exactly discriminator + record size long.
func Decode[T Record](data []byte) (T, error) {
	var v T
	if err := checkLen(v, data, true); err != nil {
		return v, err
	}

	return v, decodeBody(&v, data[DiscriminatorSize:])
}

// DecodePrefix like Decode but allows trailing bytes after the record. Used for
// accounts owned by other programs, which may be over-allocated.
func DecodePrefix[T Record](data []byte) (T, error) {
	var v T
	if err := checkLen(v, data, false); err != nil {
		return v, err
	}

	return v, decodeBody(&v, data[DiscriminatorSize:DiscriminatorSize+v.RecordSize()])
}

// DecodeChecked Decode, plus the discriminator must equal want
func DecodeChecked[T Record](data []byte, want Discriminator) (T, error) {
	var v T
	if err := CheckDiscriminator(v.RecordName(), data, want); err != nil {
		return v, err
	}
	return Decode[T](data)
}

// CheckDiscriminator compares the first 8 bytes of data with want
func CheckDiscriminator(name string, data []byte, want Discriminator) error {
	if len(data) < DiscriminatorSize {
		return &DecodeError{Record: name, Len: len(data), Err: ErrShortBuffer}
	}
	if !bytes.Equal(data[:DiscriminatorSize], want[:]) {
		return &DecodeError{Record: name, Len: len(data), Err: ErrDiscriminator}
	}
	return nil
}

func checkLen(r Record, data []byte, exact bool) error {
	want := DiscriminatorSize + r.RecordSize()
	switch {
	case len(data) < want:
		return &DecodeError{Record: r.RecordName(), Len: len(data), Err: ErrShortBuffer}
	case exact && len(data) != want:
		return &DecodeError{Record: r.RecordName(), Len: len(data), Err: ErrSizeMismatch}
	}
	return nil
}

func decodeBody[T Record](v *T, body []byte) error {
	// records are packed little-endian with explicit padding, which is exactly
	// what the borsh decoder reads for fixed-size fields
	if err := bin.NewBorshDecoder(body).Decode(v); err != nil {
		return &DecodeError{Record: (*v).RecordName(), Len: len(body) + DiscriminatorSize, Err: err}
	}
	return nil
}
