package oracle

import (
	"fmt"
	"unsafe"

	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/layout"

	"github.com/gagliardetto/solana-go"
)

var _ = [1]struct{}{}[unsafe.Sizeof(PullFeedHead{})-PullFeedHeadSize]

// PullFeedDiscriminator tag of switchboard on-demand PullFeedAccountData accounts
var PullFeedDiscriminator = layout.AccountDiscriminator("PullFeedAccountData")

// PullFeedHeadSize bytes of PullFeedAccountData up to and including the
// current result. The rest of the account (history, reserved) is not read.
const PullFeedHeadSize = 2384

// CurrentResult aggregated result of a pull feed, i128 values scaled by 10^18
type CurrentResult struct {
	Value         [16]byte `json:"-"`
	StdDev        [16]byte `json:"-"`
	Mean          [16]byte `json:"-"`
	Range         [16]byte `json:"-"`
	MinValue      [16]byte `json:"-"`
	MaxValue      [16]byte `json:"-"`
	NumSamples    uint8    `json:"num_samples"`
	SubmissionIdx uint8    `json:"submission_idx"`
	Padding1      [6]byte  `json:"-"`
	Slot          uint64   `json:"slot"`
	MinSlot       uint64   `json:"min_slot"`
	MaxSlot       uint64   `json:"max_slot"`
}

// PullFeedHead leading part of PullFeedAccountData
type PullFeedHead struct {
	Submissions [32][64]byte     `json:"-"`
	Authority   solana.PublicKey `json:"authority"`
	Queue       solana.PublicKey `json:"queue"`
	FeedHash    [32]byte         `json:"feed_hash"`

	InitializedAt       int64    `json:"initialized_at"`
	Permissions         uint64   `json:"permissions"`
	MaxVariance         uint64   `json:"max_variance"`
	MinResponses        uint32   `json:"min_responses"`
	Name                [32]byte `json:"-"`
	Padding1            [2]byte  `json:"-"`
	HistoricalResultIdx uint8    `json:"historical_result_idx"`
	MinSampleSize       uint8    `json:"min_sample_size"`
	LastUpdateTimestamp int64    `json:"last_update_timestamp"`
	LutSlot             uint64   `json:"lut_slot"`
	Reserved1           [32]byte `json:"-"`

	Result CurrentResult `json:"result"`
}

func (PullFeedHead) RecordName() string { return "PullFeedAccountData" }
func (PullFeedHead) RecordSize() int    { return PullFeedHeadSize }
func (PullFeedHead) RecordAlign() int   { return 8 }

// DecodePullFeed decode the head of a PullFeedAccountData account
func DecodePullFeed(data []byte) (*PullFeedHead, error) {
	if err := layout.CheckDiscriminator("PullFeedAccountData", data, PullFeedDiscriminator); err != nil {
		return nil, err
	}

	head, err := layout.DecodePrefix[PullFeedHead](data)
	if err != nil {
		return nil, err
	}
	return &head, nil
}

// SwitchboardResult value and std dev of the current result
func (h *PullFeedHead) SwitchboardResult() (SwitchboardResult, error) {
	value, err := fixed.FromI128(h.Result.Value)
	if err != nil {
		return SwitchboardResult{}, fmt.Errorf("result value: %w", err)
	}
	stdDev, err := fixed.FromI128(h.Result.StdDev)
	if err != nil {
		return SwitchboardResult{}, fmt.Errorf("result std dev: %w", err)
	}

	return SwitchboardResult{
		Value:               value,
		StdDev:              stdDev,
		LastUpdateTimestamp: h.LastUpdateTimestamp,
	}, nil
}

// loadSwitchboardPull decodes the feed and checks its age
func loadSwitchboardPull(data []byte, clock Clock, maxAge uint64) (*PriceFeed, error) {
	head, err := DecodePullFeed(data)
	if err != nil {
		return nil, err
	}

	age := saturatingSub(clock.UnixTimestamp, head.LastUpdateTimestamp)
	if age > maxAgeSeconds(maxAge) {
		return nil, fmt.Errorf("%w: updated %d, max age %ds, now %d",
			ErrStalePrice, head.LastUpdateTimestamp, maxAge, clock.UnixTimestamp)
	}

	result, err := head.SwitchboardResult()
	if err != nil {
		return nil, err
	}
	return NewSwitchboardFeed(result), nil
}
