package oracle

import (
	"encoding/binary"
	"fmt"

	"mrgnwatch/pkg/layout"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// PriceUpdateDiscriminator tag of pyth receiver PriceUpdateV2 accounts
var PriceUpdateDiscriminator = layout.AccountDiscriminator("PriceUpdateV2")

// VerificationLevel how many guardian signatures the update was checked with
type VerificationLevel struct {
	Full          bool  `json:"full"`
	NumSignatures uint8 `json:"num_signatures,omitempty"`
}

// AtLeast Full beats any Partial, Partial compares signature counts
func (v VerificationLevel) AtLeast(required VerificationLevel) bool {
	if v.Full {
		return true
	}
	if required.Full {
		return false
	}
	return v.NumSignatures >= required.NumSignatures
}

// MinPythVerification verification level required from pyth push updates
var MinPythVerification = VerificationLevel{Full: true}

// PriceFeedMessage price message carried by a PriceUpdateV2 account
type PriceFeedMessage struct {
	FeedID          [32]byte `json:"feed_id"`
	Price           int64    `json:"price"`
	Conf            uint64   `json:"conf"`
	Exponent        int32    `json:"exponent"`
	PublishTime     int64    `json:"publish_time"`
	PrevPublishTime int64    `json:"prev_publish_time"`
	EmaPrice        int64    `json:"ema_price"`
	EmaConf         uint64   `json:"ema_conf"`
}

// PriceUpdateV2 pyth receiver price account. The verification level is a borsh
// enum, so the record has no fixed size.
type PriceUpdateV2 struct {
	WriteAuthority    solana.PublicKey  `json:"write_authority"`
	VerificationLevel VerificationLevel `json:"verification_level"`
	PriceMessage      PriceFeedMessage  `json:"price_message"`
	PostedSlot        uint64            `json:"posted_slot"`
}

func (u *PriceUpdateV2) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := dec.Decode(&u.WriteAuthority); err != nil {
		return err
	}

	variant, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	switch variant {
	case 0:
		n, err := dec.ReadUint8()
		if err != nil {
			return err
		}
		u.VerificationLevel = VerificationLevel{NumSignatures: n}
	case 1:
		u.VerificationLevel = VerificationLevel{Full: true}
	default:
		return fmt.Errorf("unknown verification level %d", variant)
	}

	if err := dec.Decode(&u.PriceMessage); err != nil {
		return err
	}
	u.PostedSlot, err = dec.ReadUint64(binary.LittleEndian)
	return err
}

// DecodePriceUpdate decode a PriceUpdateV2 account
func DecodePriceUpdate(data []byte) (*PriceUpdateV2, error) {
	if err := layout.CheckDiscriminator("PriceUpdateV2", data, PriceUpdateDiscriminator); err != nil {
		return nil, err
	}

	var u PriceUpdateV2
	if err := bin.NewBorshDecoder(data[layout.DiscriminatorSize:]).Decode(&u); err != nil {
		return nil, &layout.DecodeError{Record: "PriceUpdateV2", Len: len(data), Err: err}
	}
	return &u, nil
}

// Prices spot and EMA prices of the update
func (u *PriceUpdateV2) Prices() (price, ema PythPrice) {
	m := u.PriceMessage
	price = PythPrice{Price: m.Price, Conf: m.Conf, Exponent: m.Exponent, PublishTime: m.PublishTime}
	ema = PythPrice{Price: m.EmaPrice, Conf: m.EmaConf, Exponent: m.Exponent, PublishTime: m.PublishTime}
	return
}

// loadPythPush decodes the price account and checks verification and age
func loadPythPush(data []byte, clock Clock, maxAge uint64) (*PriceFeed, error) {
	u, err := DecodePriceUpdate(data)
	if err != nil {
		return nil, err
	}

	if !u.VerificationLevel.AtLeast(MinPythVerification) {
		return nil, ErrInsufficientVerification
	}

	publishTime := u.PriceMessage.PublishTime
	if saturatingAdd(publishTime, maxAgeSeconds(maxAge)) < clock.UnixTimestamp {
		return nil, fmt.Errorf("%w: published %d, max age %ds, now %d",
			ErrStalePrice, publishTime, maxAge, clock.UnixTimestamp)
	}

	return NewPythFeed(u.Prices()), nil
}
