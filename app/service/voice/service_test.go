package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"focuswatch/app/client/speech"
	"focuswatch/app/config"

	"github.com/jonboulle/clockwork"
)

type fakeClient struct {
	mu           sync.Mutex
	startErr     error
	calibrateErr error
	status       speech.Status
	reports      []speech.CalibrationReport
	starts       int
	stops        int

	statusChecks atomic.Int32
}

func (c *fakeClient) Start(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.starts++
	return "started", c.startErr
}

func (c *fakeClient) Stop(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stops++
	return "stopped", nil
}

func (c *fakeClient) Calibrate(context.Context) error {
	return c.calibrateErr
}

func (c *fakeClient) CalibrationStatus(context.Context) (speech.CalibrationReport, error) {
	defer c.statusChecks.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.reports) == 0 {
		return speech.CalibrationReport{Status: speech.CalibrationRunning}, nil
	}

	report := c.reports[0]
	if len(c.reports) > 1 {
		c.reports = c.reports[1:]
	}

	return report, nil
}

func (c *fakeClient) Status(context.Context) (speech.Status, error) {
	return c.status, nil
}

func testConfig() config.Calibration {
	return config.Calibration{
		Countdown:      5,
		Timeout:        10 * time.Second,
		StatusInterval: time.Second,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func blockUntil(t *testing.T, fc *clockwork.FakeClock, n int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := fc.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("expected %d pending timers: %v", n, err)
	}
}

func receive(t *testing.T, done <-chan speech.CalibrationStatus) speech.CalibrationStatus {
	t.Helper()

	select {
	case status := <-done:
		return status
	case <-time.After(2 * time.Second):
		t.Fatalf("calibration did not finish")
		return ""
	}
}

func runCountdown(t *testing.T, svc *Service, fc *clockwork.FakeClock) {
	t.Helper()

	for i := 5; i > 0; i-- {
		waitFor(t, func() bool { return svc.State().Countdown == i })
		blockUntil(t, fc, 1)
		fc.Advance(time.Second)
	}
}

func TestToggleFlipsOnSuccess(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(client, clockwork.NewFakeClockAt(time.Now()), testConfig())

	recording, err := svc.Toggle(context.Background())
	if err != nil || !recording || !svc.State().Recording {
		t.Fatalf("expected recording after first toggle, got %v %v", recording, err)
	}

	recording, err = svc.Toggle(context.Background())
	if err != nil || recording || svc.State().Recording {
		t.Fatalf("expected stopped after second toggle, got %v %v", recording, err)
	}
	if client.starts != 1 || client.stops != 1 {
		t.Fatalf("expected one start and one stop, got %d/%d", client.starts, client.stops)
	}
}

func TestToggleFailureKeepsFlag(t *testing.T) {
	client := &fakeClient{startErr: errors.New("refused")}
	svc := NewService(client, clockwork.NewFakeClockAt(time.Now()), testConfig())

	if _, err := svc.Toggle(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if svc.State().Recording {
		t.Fatalf("flag must not change on failure")
	}
}

func TestCheckStatus(t *testing.T) {
	client := &fakeClient{status: speech.Status{IsActive: true, EnergyThreshold: 350}}
	svc := NewService(client, clockwork.NewFakeClockAt(time.Now()), testConfig())

	if err := svc.CheckStatus(context.Background()); err != nil {
		t.Fatalf("check status: %v", err)
	}

	state := svc.State()
	if !state.Recording || state.Threshold == nil || *state.Threshold != 350 {
		t.Fatalf("unexpected state %+v", state)
	}

	client.status = speech.Status{}
	if err := svc.CheckStatus(context.Background()); err != nil {
		t.Fatalf("check status: %v", err)
	}

	state = svc.State()
	if state.Recording || state.Threshold == nil || *state.Threshold != 350 {
		t.Fatalf("zero threshold must keep the previous one, got %+v", state)
	}
}

func TestCalibrationCompletes(t *testing.T) {
	threshold := 420.5
	client := &fakeClient{reports: []speech.CalibrationReport{
		{Status: speech.CalibrationRunning},
		{Status: speech.CalibrationCompleted, NewThreshold: &threshold},
	}}
	fc := clockwork.NewFakeClockAt(time.Now())
	svc := NewService(client, fc, testConfig())

	done, err := svc.StartCalibration(context.Background())
	if err != nil {
		t.Fatalf("start calibration: %v", err)
	}
	if state := svc.State(); !state.Calibrating || state.Calibration != speech.CalibrationCountdown {
		t.Fatalf("expected countdown state, got %+v", state)
	}

	runCountdown(t, svc, fc)

	// timeout and status ticker
	blockUntil(t, fc, 2)
	if svc.State().Calibration != speech.CalibrationRunning {
		t.Fatalf("expected running after countdown, got %+v", svc.State())
	}

	fc.Advance(time.Second)
	waitFor(t, func() bool { return client.statusChecks.Load() == 1 })
	fc.Advance(time.Second)

	if status := receive(t, done); status != speech.CalibrationCompleted {
		t.Fatalf("expected completed, got %s", status)
	}

	state := svc.State()
	if state.Calibrating || state.Calibration != speech.CalibrationCompleted {
		t.Fatalf("unexpected final state %+v", state)
	}
	if state.Threshold == nil || *state.Threshold != threshold {
		t.Fatalf("expected new threshold, got %+v", state.Threshold)
	}
}

func TestCalibrationServiceError(t *testing.T) {
	client := &fakeClient{reports: []speech.CalibrationReport{{Status: speech.CalibrationError}}}
	fc := clockwork.NewFakeClockAt(time.Now())
	svc := NewService(client, fc, testConfig())

	done, err := svc.StartCalibration(context.Background())
	if err != nil {
		t.Fatalf("start calibration: %v", err)
	}

	runCountdown(t, svc, fc)
	blockUntil(t, fc, 2)
	fc.Advance(time.Second)

	if status := receive(t, done); status != speech.CalibrationError {
		t.Fatalf("expected error, got %s", status)
	}
}

func TestCalibrationStartFailure(t *testing.T) {
	client := &fakeClient{calibrateErr: errors.New("refused")}
	fc := clockwork.NewFakeClockAt(time.Now())
	svc := NewService(client, fc, testConfig())

	done, err := svc.StartCalibration(context.Background())
	if err != nil {
		t.Fatalf("start calibration: %v", err)
	}

	runCountdown(t, svc, fc)

	if status := receive(t, done); status != speech.CalibrationError {
		t.Fatalf("expected error, got %s", status)
	}
	if client.statusChecks.Load() != 0 {
		t.Fatalf("status must not be polled after a failed start")
	}
}

func TestCalibrationTimesOut(t *testing.T) {
	client := &fakeClient{}
	fc := clockwork.NewFakeClockAt(time.Now())
	svc := NewService(client, fc, testConfig())

	done, err := svc.StartCalibration(context.Background())
	if err != nil {
		t.Fatalf("start calibration: %v", err)
	}

	runCountdown(t, svc, fc)
	blockUntil(t, fc, 2)
	fc.Advance(10 * time.Second)

	if status := receive(t, done); status != speech.CalibrationError {
		t.Fatalf("expected error on timeout, got %s", status)
	}
	if svc.State().Calibrating {
		t.Fatalf("calibration flag must be cleared")
	}
}

func TestCalibrationIsExclusive(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Now())
	svc := NewService(&fakeClient{calibrateErr: errors.New("refused")}, fc, testConfig())

	done, err := svc.StartCalibration(context.Background())
	if err != nil {
		t.Fatalf("start calibration: %v", err)
	}
	if _, err := svc.StartCalibration(context.Background()); !errors.Is(err, ErrCalibrationInProgress) {
		t.Fatalf("expected ErrCalibrationInProgress, got %v", err)
	}

	runCountdown(t, svc, fc)
	receive(t, done)

	done, err = svc.StartCalibration(context.Background())
	if err != nil {
		t.Fatalf("expected a new calibration to start, got %v", err)
	}

	runCountdown(t, svc, fc)
	receive(t, done)
}

func TestCalibrationCancelled(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Now())
	svc := NewService(&fakeClient{}, fc, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done, err := svc.StartCalibration(ctx)
	if err != nil {
		t.Fatalf("start calibration: %v", err)
	}

	cancel()
	if status := receive(t, done); status != speech.CalibrationError {
		t.Fatalf("expected error on cancel, got %s", status)
	}
}
