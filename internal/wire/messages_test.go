package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tux3/aegis/internal/codec"
)

func TestServerCommandStatusUpdateRoundTrip(t *testing.T) {
	in := &ServerCommand{StatusUpdate: &StatusUpdate{VTLocked: true, SSHLocked: false, DrawDecoy: true}}
	data := codec.Marshal(in)

	out := &ServerCommand{}
	require.NoError(t, codec.Unmarshal(data, out))
	require.NotNil(t, out.StatusUpdate)
	assert.Nil(t, out.Power)
	assert.Equal(t, *in.StatusUpdate, *out.StatusUpdate)
}

func TestServerCommandPowerRoundTrip(t *testing.T) {
	action := PowerReboot
	in := &ServerCommand{Power: &action}
	data := codec.Marshal(in)

	out := &ServerCommand{}
	require.NoError(t, codec.Unmarshal(data, out))
	require.NotNil(t, out.Power)
	assert.Equal(t, PowerReboot, *out.Power)
}

func TestSetStatusArgOptBoolRoundTrip(t *testing.T) {
	in := &SetStatusArg{DevName: "alpha", VTLocked: Some(true), SSHLocked: None, DrawDecoy: Some(false)}
	data := codec.Marshal(in)

	out := &SetStatusArg{}
	require.NoError(t, codec.Unmarshal(data, out))
	assert.Equal(t, "alpha", out.DevName)
	assert.True(t, out.VTLocked.Set)
	assert.True(t, out.VTLocked.Value)
	assert.False(t, out.SSHLocked.Set)
	assert.True(t, out.DrawDecoy.Set)
	assert.False(t, out.DrawDecoy.Value)
	assert.True(t, in.AnySet())
}

func TestSetStatusArgAllNoneIsDetectable(t *testing.T) {
	in := &SetStatusArg{DevName: "alpha"}
	assert.False(t, in.AnySet())
}

func TestListRoundTrips(t *testing.T) {
	pending := &PendingDeviceList{Items: []PendingDeviceWire{
		{Name: "alpha", PubKey: []byte{1, 2, 3}, CreatedAt: 100},
	}}
	data := codec.Marshal(pending)
	out := &PendingDeviceList{}
	require.NoError(t, codec.Unmarshal(data, out))
	assert.Equal(t, pending.Items, out.Items)

	events := &DeviceEventList{Items: []DeviceEventWire{{ID: 1, CreatedAt: 5, Level: 2, Message: "hi"}}}
	data = codec.Marshal(events)
	outEvents := &DeviceEventList{}
	require.NoError(t, codec.Unmarshal(data, outEvents))
	assert.Equal(t, events.Items, outEvents.Items)
}
