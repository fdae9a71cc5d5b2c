package oracle

import (
	"fmt"
	"math"
	"time"

	bin "github.com/gagliardetto/binary"
)

// ClockSize length of the clock sysvar account data
const ClockSize = 40

// Clock the clock sysvar. Staleness checks measure against UnixTimestamp.
type Clock struct {
	Slot                uint64 `json:"slot"`
	EpochStartTimestamp int64  `json:"epoch_start_timestamp"`
	Epoch               uint64 `json:"epoch"`
	LeaderScheduleEpoch uint64 `json:"leader_schedule_epoch"`
	UnixTimestamp       int64  `json:"unix_timestamp"`
}

// ClockAt clock with only the timestamp set, for callers without a sysvar read
func ClockAt(t time.Time) Clock {
	return Clock{UnixTimestamp: t.Unix()}
}

// DecodeClock decode the clock sysvar account data
func DecodeClock(data []byte) (Clock, error) {
	var c Clock
	if len(data) < ClockSize {
		return c, fmt.Errorf("decode clock: %d bytes, want %d", len(data), ClockSize)
	}
	if err := bin.NewBinDecoder(data[:ClockSize]).Decode(&c); err != nil {
		return c, fmt.Errorf("decode clock: %w", err)
	}
	return c, nil
}

func (c Clock) Time() time.Time {
	return time.Unix(c.UnixTimestamp, 0)
}

// saturatingSub a - b clamped to the int64 range
func saturatingSub(a, b int64) int64 {
	d := a - b
	if (a^b)&(a^d) < 0 {
		if a >= 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return d
}

// saturatingAdd a + b clamped to the int64 range
func saturatingAdd(a, b int64) int64 {
	s := a + b
	if (a^s)&(b^s) < 0 {
		if a >= 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return s
}

func maxAgeSeconds(maxAge uint64) int64 {
	if maxAge > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(maxAge)
}
