package remote

import (
	"context"
	"io"
	"testing"
	"time"

	"sqwave/core"
	"sqwave/protocol"
	"sqwave/sim"
)

// loopback runs the server synchronously on every client write
type loopback struct {
	srv     *Server
	in      *protocol.FifoBuffer
	pending []byte

	dropReplies int // replies to discard, simulating a lossy link
	writes      int
}

func (l *loopback) Write(p []byte) (int, error) {
	l.writes++
	l.in.Write(p)
	l.srv.Receive(l.in)
	if l.dropReplies > 0 {
		l.dropReplies--
	} else {
		l.pending = append(l.pending, l.srv.Output()...)
	}
	l.srv.ResetOutput()
	return len(p), nil
}

func (l *loopback) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func newRig(t *testing.T) (*Client, *loopback, *core.Controller, *sim.Machine) {
	t.Helper()
	m := sim.NewMachine(0, 0)
	g, err := core.NewGenerator(core.GeneratorConfig{Pin: 5, Feeder: 0, Rearmer: 1}, m, m, core.DefaultSettings())
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctrl := core.NewController(g)
	srv := NewServer(ctrl, func() int { return 3 })
	lb := &loopback{srv: srv, in: protocol.NewFifoBuffer(256)}
	c := NewClient(lb)
	c.Timeout = 20 * time.Millisecond
	return c, lb, ctrl, m
}

func TestStatus(t *testing.T) {
	c, _, _, _ := newRig(t)
	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.FrequencyHz != 20000 || st.ActualHz != 19968 || st.Duty != 50 || st.Increment != 1000 {
		t.Errorf("Unexpected status %+v", st)
	}
	if !st.Running || st.Battery != 3 {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestIncreaseThreeTimes(t *testing.T) {
	c, _, _, m := newRig(t)
	ctx := context.Background()

	if _, err := c.SelectIncrement(ctx, 10000); err != nil {
		t.Fatalf("SelectIncrement failed: %v", err)
	}
	var st protocol.StatusReply
	for i := 0; i < 3; i++ {
		var err error
		if st, err = c.Increase(ctx); err != nil {
			t.Fatalf("Increase failed: %v", err)
		}
	}
	if st.FrequencyHz != 50000 || st.Duty != 50 {
		t.Errorf("Expected 50 kHz at 50%%, got %+v", st)
	}
	if m.ClockDivider() != core.ComputeDivider(50000, core.DefaultSystemClock, core.CycleBitWidth) {
		t.Errorf("Divider not applied to hardware: %+v", m.ClockDivider())
	}
}

func TestDecreaseAtFloor(t *testing.T) {
	c, _, ctrl, _ := newRig(t)
	ctx := context.Background()
	for ctrl.Settings().Frequency > core.MinFrequency {
		if _, err := c.Decrease(ctx); err != nil {
			t.Fatalf("Decrease failed: %v", err)
		}
	}
	if _, err := c.SelectIncrement(ctx, 10000); err != nil {
		t.Fatalf("SelectIncrement failed: %v", err)
	}
	st, err := c.Decrease(ctx)
	if err != nil {
		t.Fatalf("Decrease failed: %v", err)
	}
	if st.FrequencyHz != 1000 {
		t.Errorf("Expected to stay at 1000 Hz, got %d", st.FrequencyHz)
	}
}

func TestDutyCommands(t *testing.T) {
	c, _, _, m := newRig(t)
	ctx := context.Background()

	st, err := c.SetDuty(ctx, 87)
	if err != nil {
		t.Fatalf("SetDuty failed: %v", err)
	}
	if st.Duty != 90 {
		t.Errorf("Expected 87 rounded to 90, got %d", st.Duty)
	}
	if st, err = c.StepDuty(ctx); err != nil {
		t.Fatalf("StepDuty failed: %v", err)
	}
	if st.Duty != 10 {
		t.Errorf("Expected 90 to wrap to 10, got %d", st.Duty)
	}

	m.Reset()
	m.RunCycles(20, core.CycleBitWidth)
	cycles := m.Cycles(0, core.CycleBitWidth)
	last := cycles[len(cycles)-1]
	if last != core.EncodeDuty(10, core.CycleBitWidth)&core.CycleMask(core.CycleBitWidth) {
		t.Errorf("Hardware not showing 10%% pattern: %010b", last)
	}

	if _, err := c.SetDuty(ctx, 150); err != protocol.ErrBadArgument {
		t.Errorf("Expected ErrBadArgument, got %v", err)
	}
	if _, err := c.SelectIncrement(ctx, 5000); err != protocol.ErrBadArgument {
		t.Errorf("Expected ErrBadArgument, got %v", err)
	}
}

func TestStartStop(t *testing.T) {
	c, _, _, m := newRig(t)
	ctx := context.Background()

	if _, err := c.Start(ctx); err != protocol.ErrDeviceRunning {
		t.Errorf("Expected ErrDeviceRunning, got %v", err)
	}

	st, err := c.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if st.Running || m.Enabled() || m.Busy() {
		t.Error("Output still running after stop")
	}
	if _, err := c.Stop(ctx); err != protocol.ErrDeviceStopped {
		t.Errorf("Expected ErrDeviceStopped, got %v", err)
	}

	// Changes made while stopped take effect on start
	if _, err := c.Increase(ctx); err != nil {
		t.Fatalf("Increase failed: %v", err)
	}
	if st, err = c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !st.Running || st.FrequencyHz != 21000 {
		t.Errorf("Unexpected status after start %+v", st)
	}
	if m.ClockDivider() != core.ComputeDivider(21000, core.DefaultSystemClock, core.CycleBitWidth) {
		t.Errorf("Stored divider not used on start: %+v", m.ClockDivider())
	}
}

func TestLostReplyNotExecutedTwice(t *testing.T) {
	c, lb, ctrl, _ := newRig(t)
	ctx := context.Background()

	if _, err := c.Status(ctx); err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	lb.dropReplies = 1
	st, err := c.Increase(ctx)
	if err != nil {
		t.Fatalf("Increase failed: %v", err)
	}
	if ctrl.Settings().Frequency != 21000 {
		t.Errorf("Expected a single increase to 21000, got %d", ctrl.Settings().Frequency)
	}
	if st.FrequencyHz != 21000 {
		t.Errorf("Expected status for 21000, got %d", st.FrequencyHz)
	}
	if lb.writes != 4 {
		t.Errorf("Expected session start, status, request and resend, got %d writes", lb.writes)
	}

	// The link is back in step
	if st, err = c.Increase(ctx); err != nil || st.FrequencyHz != 22000 {
		t.Errorf("Expected 22000 after recovery, got %d, %v", st.FrequencyHz, err)
	}
}

func TestLostReplyAtSequenceWrap(t *testing.T) {
	for _, statuses := range []int{15, 16} {
		c, lb, ctrl, _ := newRig(t)
		ctx := context.Background()
		for i := 0; i < statuses; i++ {
			if _, err := c.Status(ctx); err != nil {
				t.Fatalf("Status failed: %v", err)
			}
		}

		lb.dropReplies = 1
		st, err := c.Increase(ctx)
		if err != nil {
			t.Fatalf("Increase failed: %v", err)
		}
		if ctrl.Settings().Frequency != 21000 || st.FrequencyHz != 21000 {
			t.Errorf("%d statuses first: expected one step to 21000, device at %d, reply %d",
				statuses, ctrl.Settings().Frequency, st.FrequencyHz)
		}
	}
}

func TestNewHostMidSession(t *testing.T) {
	c, lb, ctrl, _ := newRig(t)
	ctx := context.Background()
	if _, err := c.Increase(ctx); err != nil {
		t.Fatalf("Increase failed: %v", err)
	}

	// A second host on the same device starts its own session
	c2 := NewClient(lb)
	c2.Timeout = c.Timeout
	st, err := c2.Increase(ctx)
	if err != nil {
		t.Fatalf("Increase failed: %v", err)
	}
	if st.FrequencyHz != 22000 || ctrl.Settings().Frequency != 22000 {
		t.Errorf("Expected 22000 after one increase each, got %d", ctrl.Settings().Frequency)
	}
}

func TestDeviceSilent(t *testing.T) {
	c, lb, _, _ := newRig(t)
	c.Retries = 1
	lb.dropReplies = 10
	if _, err := c.Status(context.Background()); err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if lb.writes != 2 {
		t.Errorf("Expected 2 attempts, got %d", lb.writes)
	}
}

func TestUnknownCommand(t *testing.T) {
	c, _, _, _ := newRig(t)
	if _, err := c.Do(context.Background(), protocol.CommandID(42)); err != protocol.ErrUnknownCommand {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestArgumentCountChecked(t *testing.T) {
	c, lb, _, _ := newRig(t)
	if _, err := c.Do(context.Background(), protocol.CmdSetDuty); err == nil {
		t.Error("Expected an error for a missing argument")
	}
	if lb.writes != 0 {
		t.Error("Malformed request was sent")
	}
}

func TestServerRecordsEvents(t *testing.T) {
	c, _, _, _ := newRig(t)
	core.ClearEvents()
	if _, err := c.StepDuty(context.Background()); err != nil {
		t.Fatalf("StepDuty failed: %v", err)
	}
	var remote *core.Event
	for _, e := range core.Events() {
		if e.EventType == core.EvtRemote {
			e := e
			remote = &e
		}
	}
	if remote == nil {
		t.Fatal("No remote event recorded")
	}
	if remote.Value1 != uint32(protocol.CmdStepDuty) || remote.Value2 != uint32(protocol.ResultOK) {
		t.Errorf("Unexpected event %+v", remote)
	}
}
