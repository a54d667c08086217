package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/bluetooth/bluetoothtest"
)

type stubSession struct {
	id    string
	ok    bool
	scans int
}

func (s *stubSession) Active() (string, bool) { return s.id, s.ok }

func (s *stubSession) StartScan(context.Context) bool {
	s.scans++
	return true
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		speed  int
		want   byte
	}{
		{"left default speed", Move(Left), 120, 216},
		{"forward full speed", Move(Forward), 255, 51},
		{"right truncates", Move(Right), 124, 152},
		{"backward stopped", Move(Backward), 0, 64},
		{"speed clamped high", Move(Left), 1000, 243},
		{"speed clamped low", Move(Right), -20, 128},
		{"radar ignores speed", RadarSweep, 255, 52},
		{"radar at zero", RadarSweep, 0, 52},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.intent, tt.speed))
		})
	}
}

func TestDirectionOffsets(t *testing.T) {
	assert.Equal(t, 192, Left.Offset())
	assert.Equal(t, 128, Right.Offset())
	assert.Equal(t, 64, Backward.Offset())
	assert.Equal(t, 0, Forward.Offset())
	assert.Equal(t, "move-left", Move(Left).String())
	assert.Equal(t, "radar-sweep", RadarSweep.String())
}

func TestDispatchWithoutConnectionPrompts(t *testing.T) {
	drv := bluetoothtest.New()
	sess := &stubSession{}
	var prompts []Prompt
	d := NewDispatcher(sess, drv, PrompterFunc(func(p Prompt) { prompts = append(prompts, p) }), 120, zap.NewNop())

	assert.False(t, d.Dispatch(context.Background(), Move(Forward)))
	assert.False(t, d.Dispatch(context.Background(), RadarSweep))

	assert.Equal(t, 0, drv.Count("WriteWithoutResponse"))
	require.Len(t, prompts, 2)
	assert.Equal(t, NotConnectedMessage, prompts[0].Message)
	assert.Equal(t, "Scan", prompts[0].Accept)

	assert.True(t, prompts[0].OnAccept(context.Background()))
	assert.Equal(t, 1, sess.scans)
}

func TestDispatchRequiresDriverLink(t *testing.T) {
	drv := bluetoothtest.New()
	sess := &stubSession{id: "a", ok: true}
	prompted := 0
	d := NewDispatcher(sess, drv, PrompterFunc(func(Prompt) { prompted++ }), 120, zap.NewNop())

	assert.False(t, d.Dispatch(context.Background(), Move(Left)))
	assert.Equal(t, 0, drv.Count("WriteWithoutResponse"))
	assert.Equal(t, 1, prompted)
}

func TestDispatchListConnectedFailure(t *testing.T) {
	drv := bluetoothtest.New()
	drv.Fail("ListConnected", errors.New("adapter gone"))
	prompted := 0
	d := NewDispatcher(&stubSession{id: "a", ok: true}, drv, PrompterFunc(func(Prompt) { prompted++ }), 120, zap.NewNop())

	assert.False(t, d.Dispatch(context.Background(), RadarSweep))
	assert.Equal(t, 0, drv.Count("WriteWithoutResponse"))
	assert.Equal(t, 0, prompted)
}

func TestDispatchWritesControlByte(t *testing.T) {
	drv := bluetoothtest.New()
	drv.ReportConnected("a")
	d := NewDispatcher(&stubSession{id: "a", ok: true}, drv, nil, 120, zap.NewNop())

	assert.False(t, d.Dispatch(context.Background(), Move(Left)), "movement never enters radar mode")

	assert.Equal(t, []string{"ListConnected", "DiscoverServices", "EnableNotifications", "WriteWithoutResponse"}, drv.Methods())
	writes := drv.Calls("WriteWithoutResponse")
	require.Len(t, writes, 1)
	assert.Equal(t, "a", writes[0].ID)
	assert.Equal(t, bluetooth.ControlServiceID, writes[0].ServiceID)
	assert.Equal(t, bluetooth.ControlCharacteristicID, writes[0].CharacteristicID)
	assert.Equal(t, []byte{216}, writes[0].Data)
}

func TestDispatchRadarSweep(t *testing.T) {
	drv := bluetoothtest.New()
	drv.ReportConnected("a")
	d := NewDispatcher(&stubSession{id: "a", ok: true}, drv, nil, 255, zap.NewNop())

	assert.True(t, d.Dispatch(context.Background(), RadarSweep))
	assert.Equal(t, []byte{52}, drv.Calls("WriteWithoutResponse")[0].Data)
}

func TestDispatchWriteFailureReportsNotSent(t *testing.T) {
	drv := bluetoothtest.New()
	drv.ReportConnected("a")
	drv.Fail("WriteWithoutResponse", errors.New("link dropped"))
	d := NewDispatcher(&stubSession{id: "a", ok: true}, drv, nil, 120, zap.NewNop())

	assert.False(t, d.Dispatch(context.Background(), RadarSweep))
}

func TestDispatchStopsOnNotificationFailure(t *testing.T) {
	drv := bluetoothtest.New()
	drv.ReportConnected("a")
	drv.Fail("EnableNotifications", errors.New("cccd write rejected"))
	d := NewDispatcher(&stubSession{id: "a", ok: true}, drv, nil, 120, zap.NewNop())

	assert.False(t, d.Dispatch(context.Background(), RadarSweep))
	assert.Equal(t, 0, drv.Count("WriteWithoutResponse"))
}

func TestSpeedControl(t *testing.T) {
	d := NewDispatcher(&stubSession{}, bluetoothtest.New(), nil, 120, zap.NewNop())

	assert.Equal(t, 125, d.Adjust(1))
	assert.Equal(t, 115, d.Adjust(-2))
	d.SetSpeed(400)
	assert.Equal(t, 255, d.Speed())
	assert.Equal(t, 255, d.Adjust(1))
	d.SetSpeed(-1)
	assert.Equal(t, 0, d.Speed())
}

func TestPoll(t *testing.T) {
	drv := bluetoothtest.New()
	d := NewDispatcher(&stubSession{}, drv, nil, 120, zap.NewNop())
	_, err := d.Poll(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	drv.ReportConnected("a")
	drv.SetReadValue([]byte{30, 8, 60, 15})
	d = NewDispatcher(&stubSession{id: "a", ok: true}, drv, nil, 120, zap.NewNop())
	data, err := d.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{30, 8, 60, 15}, data)
}

func TestConcurrentDispatchesDoNotOverlap(t *testing.T) {
	drv := bluetoothtest.New()
	drv.ReportConnected("a")

	var inFlight, peak atomic.Int32
	drv.Hook("DiscoverServices", func(context.Context, string) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	drv.Hook("WriteWithoutResponse", func(context.Context, string) error {
		inFlight.Add(-1)
		return nil
	})

	d := NewDispatcher(&stubSession{id: "a", ok: true}, drv, nil, 120, zap.NewNop())

	var wg sync.WaitGroup
	for _, dir := range []Direction{Forward, Right, Backward, Left} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), Move(dir))
		}()
		time.Sleep(2 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, 4, drv.Count("WriteWithoutResponse"))
}
