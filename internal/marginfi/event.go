package marginfi

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"mrgnwatch/pkg/layout"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramDataPrefix log prefix of anchor events
const ProgramDataPrefix = "Program data: "

// HealthPulseEvent emitted when the program refreshes an account's health cache
type HealthPulseEvent struct {
	Account     solana.PublicKey `json:"account"`
	HealthCache HealthCache      `json:"health_cache"`
}

// ParseHealthPulse decodes a transaction log line. ok is false for lines that
// are not a HealthPulseEvent.
func ParseHealthPulse(line string) (event *HealthPulseEvent, ok bool, err error) {
	payload, found := strings.CutPrefix(line, ProgramDataPrefix)
	if !found {
		return nil, false, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, false, fmt.Errorf("decode program data: %w", err)
	}

	if len(data) < layout.DiscriminatorSize ||
		!bytes.Equal(data[:layout.DiscriminatorSize], HealthPulseDiscriminator[:]) {
		return nil, false, nil
	}

	var e HealthPulseEvent
	if err := bin.NewBorshDecoder(data[layout.DiscriminatorSize:]).Decode(&e); err != nil {
		return nil, false, &layout.DecodeError{Record: "HealthPulseEvent", Len: len(data), Err: err}
	}

	return &e, true, nil
}
