package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"auctionchain/core/types"
)

type typedEvent struct{ evt *types.Event }

func (e typedEvent) EventType() string   { return e.evt.Type }
func (e typedEvent) Event() *types.Event { return e.evt }

type bareEvent string

func (e bareEvent) EventType() string { return string(e) }

func TestBufferKeepsOrderAndCopies(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(typedEvent{evt: &types.Event{Type: "auction.opened", Attributes: map[string]string{"asset": "01"}}})
	buf.Emit(bareEvent("custom"))
	buf.Emit(nil)

	got := buf.Events()
	require.Len(t, got, 2)
	require.Equal(t, "auction.opened", got[0].Type)
	require.Equal(t, "custom", got[1].Type)

	got[0].Attributes["asset"] = "mutated"
	require.Equal(t, "01", buf.Events()[0].Attributes["asset"])

	buf.Reset()
	require.Empty(t, buf.Events())
}
