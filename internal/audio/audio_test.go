package audio

import (
	"context"
	"encoding/binary"
	"math"
	"reflect"
	"testing"
	"time"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestSelectDeviceFromListPrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true},
		{ID: "sony", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "elgato", selection.Device.ID)
	require.Empty(t, selection.Warning)
}

func TestSelectDeviceFromListMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
		{ID: "sony", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "elgato", "sony")
	require.NoError(t, err)
	require.Equal(t, "sony", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectDeviceFromListFailsWhenSelectedAndFallbackMuted(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
	}

	_, err := selectDeviceFromList(devices, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectDeviceFromListUnknownInput(t *testing.T) {
	devices := []Device{{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true}}

	_, err := selectDeviceFromList(devices, "missing", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono"}
	require.True(t, deviceMatches(dev, "elgato"))
	require.True(t, deviceMatches(dev, "wave 3"))
	require.False(t, deviceMatches(dev, "missing"))
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
}

func TestSelectDeviceFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := SelectDevice(context.Background(), "default", "default")
	require.Error(t, err)
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{})) // no ports => available

	available := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, available, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(available))

	notAvailable := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, notAvailable, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(notAvailable))
}

func TestPCMBufferSignalsWhenFull(t *testing.T) {
	buf := &pcmBuffer{limit: 4, full: make(chan struct{})}

	n, err := buf.Write([]byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	select {
	case <-buf.full:
		t.Fatal("buffer reported full early")
	default:
	}

	_, err = buf.Write([]byte{3, 4, 5})
	require.NoError(t, err)
	_, err = buf.Write([]byte{6})
	require.NoError(t, err)
	<-buf.full
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf.bytes())
}

func TestSelectDeviceFromListUnavailableDefaultFallsBackToMatch(t *testing.T) {
	devices := []Device{
		{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono", Available: false, Default: true},
		{ID: "alsa_input.pci-internal", Description: "Built-in Audio", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "default", "built-in")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.pci-internal", selection.Device.ID)
	require.Contains(t, selection.Warning, "unavailable")
	require.True(t, selection.Fallback)
}

func TestSelectDeviceFromListMissingFallback(t *testing.T) {
	devices := []Device{{ID: "elgato", Available: true, Muted: true, Default: true}}

	_, err := selectDeviceFromList(devices, "elgato", "headset")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no usable fallback")
	require.Contains(t, err.Error(), `audio.fallback "headset" did not match`)
}

func TestSelectDeviceFromListEmpty(t *testing.T) {
	_, err := selectDeviceFromList(nil, "default", "default")
	require.EqualError(t, err, "no audio input devices found")
}

func TestMeasureReportsPeakAndRMS(t *testing.T) {
	pcm := make([]byte, 8)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(16384))
	}

	level := measure(pcm)
	require.Equal(t, 4, level.Samples)
	require.InDelta(t, -6.02, level.PeakDBFS, 0.01)
	require.InDelta(t, -6.02, level.RMSDBFS, 0.01)
	require.False(t, level.Silent(-60))
}

func TestMeasureSilenceAndEmpty(t *testing.T) {
	silent := measure(make([]byte, 32))
	require.Equal(t, 16, silent.Samples)
	require.True(t, math.IsInf(silent.PeakDBFS, -1))
	require.True(t, silent.Silent(-60))

	empty := measure([]byte{7})
	require.Zero(t, empty.Samples)
	require.True(t, empty.Silent(-60))
}

func TestMeasureHandlesNegativeSamples(t *testing.T) {
	neg := int16(-32768)
	pcm := make([]byte, 2)
	binary.LittleEndian.PutUint16(pcm, uint16(neg))

	level := measure(pcm)
	require.InDelta(t, 0, level.PeakDBFS, 0.001)
}

func TestProbeFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := Probe(context.Background(), Device{ID: "mic"}, 100*time.Millisecond)
	require.Error(t, err)
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceType := reflect.TypeOf(reply.Ports)
	sliceValue := reflect.MakeSlice(sliceType, len(ports), len(ports))

	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}

	replyValue := reflect.ValueOf(reply).Elem().FieldByName("Ports")
	replyValue.Set(sliceValue)
}
