// internal/domain/bridge/event.go
package bridge

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// EventKind is the domain name of an emitted notification.
type EventKind string

const (
	EventRequestSubmitted EventKind = "RequestSubmitted"
	EventAssetIssued      EventKind = "AssetIssued"
)

// Anchor event type names as they appear on-chain.
const (
	NewRequestEventName  = "NewRequestEvent"
	TokenMintedEventName = "TokenMintedEvent"

	// ProgramDataPrefix marks an Anchor event in transaction logs.
	ProgramDataPrefix = "Program data: "
)

var ErrUnknownEvent = errors.New("bridge: unknown event")

// Event correlates one operation with its off-chain request.
type Event struct {
	Kind      EventKind
	Mint      common.PublicKey // token type
	Holding   common.PublicKey // destination holding
	RequestID string           // correlation id, carried verbatim
}

// borsh field order: mint, account, request_id
type eventPayload struct {
	Mint      common.PublicKey
	Account   common.PublicKey
	RequestID string
}

func (k EventKind) wireName() (string, error) {
	switch k {
	case EventRequestSubmitted:
		return NewRequestEventName, nil
	case EventAssetIssued:
		return TokenMintedEventName, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, string(k))
	}
}

// Encode returns discriminator || borsh(payload).
func (e Event) Encode() ([]byte, error) {
	name, err := e.Kind.wireName()
	if err != nil {
		return nil, err
	}
	body, err := borsh.Serialize(eventPayload{
		Mint:      e.Mint,
		Account:   e.Holding,
		RequestID: e.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: serialize event: %w", err)
	}
	disc := EventDiscriminator(name)
	return append(disc[:], body...), nil
}

// LogLine renders the event the way the runtime logs it.
func (e Event) LogLine() (string, error) {
	raw, err := e.Encode()
	if err != nil {
		return "", err
	}
	return ProgramDataPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeEvent parses discriminator || borsh(payload).
func DecodeEvent(data []byte) (Event, error) {
	if len(data) < DiscriminatorLen {
		return Event{}, ErrUnknownEvent
	}
	var kind EventKind
	switch {
	case bytes.Equal(data[:DiscriminatorLen], discSlice(NewRequestEventName)):
		kind = EventRequestSubmitted
	case bytes.Equal(data[:DiscriminatorLen], discSlice(TokenMintedEventName)):
		kind = EventAssetIssued
	default:
		return Event{}, ErrUnknownEvent
	}
	var p eventPayload
	if err := borsh.Deserialize(&p, data[DiscriminatorLen:]); err != nil {
		return Event{}, fmt.Errorf("bridge: decode %s: %w", kind, err)
	}
	return Event{Kind: kind, Mint: p.Mint, Holding: p.Account, RequestID: p.RequestID}, nil
}

// DecodeEventLogs extracts bridge events from transaction log messages.
// Lines from other programs and foreign event types are skipped.
func DecodeEventLogs(logs []string) ([]Event, error) {
	var out []Event
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, ProgramDataPrefix)
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			continue
		}
		ev, err := DecodeEvent(raw)
		if errors.Is(err, ErrUnknownEvent) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func discSlice(name string) []byte {
	d := EventDiscriminator(name)
	return d[:]
}
