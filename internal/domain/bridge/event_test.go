package bridge

import (
	"encoding/base64"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogLine_DecodesBack(t *testing.T) {
	events := []Event{
		{Kind: EventRequestSubmitted, Mint: types.NewAccount().PublicKey, Holding: types.NewAccount().PublicKey, RequestID: "req-1"},
		{Kind: EventAssetIssued, Mint: types.NewAccount().PublicKey, Holding: types.NewAccount().PublicKey, RequestID: ""},
		{Kind: EventAssetIssued, Mint: types.NewAccount().PublicKey, Holding: types.NewAccount().PublicKey, RequestID: "橋-🚀"},
	}

	logs := []string{
		"Program 2ysHAVbpzL1tMPEvx2EvMqvzyVFWHFVRRWVhSpgtkxyt invoke [1]",
		"Program log: Instruction: NewRequest",
		ProgramDataPrefix + base64.StdEncoding.EncodeToString([]byte("not an anchor event")),
		ProgramDataPrefix + "%%% not base64 %%%",
	}
	for _, ev := range events {
		line, err := ev.LogLine()
		require.NoError(t, err)
		logs = append(logs, line)
	}
	logs = append(logs, "Program 2ysHAVbpzL1tMPEvx2EvMqvzyVFWHFVRRWVhSpgtkxyt success")

	got, err := DecodeEventLogs(logs)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestEventWireNames(t *testing.T) {
	ev := Event{Kind: EventRequestSubmitted}
	raw, err := ev.Encode()
	require.NoError(t, err)
	d := EventDiscriminator("NewRequestEvent")
	assert.Equal(t, d[:], raw[:8])

	ev.Kind = EventAssetIssued
	raw, err = ev.Encode()
	require.NoError(t, err)
	d = EventDiscriminator("TokenMintedEvent")
	assert.Equal(t, d[:], raw[:8])

	_, err = Event{Kind: "Released"}.Encode()
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeEvent_TruncatedPayload(t *testing.T) {
	raw, err := Event{Kind: EventAssetIssued, RequestID: "abc"}.Encode()
	require.NoError(t, err)

	_, err = DecodeEvent(raw[:20])
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownEvent)
}
