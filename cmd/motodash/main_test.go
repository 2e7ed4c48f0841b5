package main

import (
	"errors"
	"flag"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/motodash/internal/acquisition"
	"github.com/sweeney/motodash/internal/config"
	"github.com/sweeney/motodash/internal/display"
	"github.com/sweeney/motodash/internal/gpio"
	"github.com/sweeney/motodash/internal/gps"
	"github.com/sweeney/motodash/internal/input"
	"github.com/sweeney/motodash/internal/leds"
	"github.com/sweeney/motodash/internal/mqtt"
	"github.com/sweeney/motodash/internal/nav"
	"github.com/sweeney/motodash/internal/settings"
	"github.com/sweeney/motodash/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestResolveWSBroker(t *testing.T) {
	tests := []struct {
		ws, broker, want string
	}{
		{"=broker", "tcp://192.168.1.200:1883", "ws://192.168.1.200:9001"},
		{"off", "tcp://192.168.1.200:1883", ""},
		{"ws://other:8080", "tcp://192.168.1.200:1883", "ws://other:8080"},
		{"=broker", "://bad", ""},
	}
	for _, tt := range tests {
		if got := resolveWSBroker(tt.ws, tt.broker); got != tt.want {
			t.Errorf("resolveWSBroker(%q, %q) = %q, want %q", tt.ws, tt.broker, got, tt.want)
		}
	}
}

func parseFlags(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("motodash", flag.ContinueOnError)
	registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestApplyFlagsOverridesFile(t *testing.T) {
	fs := parseFlags(t, "-poll", "10ms", "-debounce", "30ms", "-http", "", "-broker", "tcp://10.0.0.9:1883")
	cfg, err := applyFlags(config.Default(), fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timing.Poll != 10*time.Millisecond || cfg.Timing.Debounce != 30*time.Millisecond {
		t.Errorf("Timing: got %+v", cfg.Timing)
	}
	if cfg.HTTP.Addr != "" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}
	if cfg.MQTT.WSBroker != "ws://10.0.0.9:9001" {
		t.Errorf("WSBroker: got %q", cfg.MQTT.WSBroker)
	}
}

func TestApplyFlagsUnsetKeepsFile(t *testing.T) {
	base := config.Default()
	base.Timing.Poll = 7 * time.Millisecond
	base.MQTT.WSBroker = "ws://dash:9001"
	cfg, err := applyFlags(base, parseFlags(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timing.Poll != 7*time.Millisecond {
		t.Errorf("Poll: got %v", cfg.Timing.Poll)
	}
	if cfg.MQTT.WSBroker != "ws://dash:9001" {
		t.Errorf("WSBroker: got %q", cfg.MQTT.WSBroker)
	}
}

func TestApplyFlagsValidates(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero poll", []string{"-poll", "0"}, "timing.poll"},
		{"negative poll", []string{"-poll", "-5ms"}, "timing.poll"},
		{"debounce below poll", []string{"-poll", "50ms", "-debounce", "20ms"}, "timing.debounce"},
		{"negative heartbeat", []string{"-heartbeat", "-1s"}, "timing.heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyFlags(config.Default(), parseFlags(t, tt.args...))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFixString(t *testing.T) {
	if got := fixString(gps.Fix{}); got != "gps: no fix" {
		t.Errorf("got %q", got)
	}
	f := gps.Fix{LocationValid: true, Lat: 1.5, Lng: -2.25, SatellitesValid: true, Satellites: 8}
	if got := fixString(f); got != "gps: lat=1.500000 lng=-2.250000 sats=8" {
		t.Errorf("got %q", got)
	}
}

// --- runLoop tests ---

var t0 = time.Date(2026, 5, 1, 7, 30, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of levels.
func repeat(lv gpio.Levels, n int) []gpio.Levels {
	out := make([]gpio.Levels, n)
	for i := range out {
		out[i] = lv
	}
	return out
}

type testRig struct {
	d      *deps
	reader *gpio.FakeReader
	fix    *gps.FakeProvider
	pub    *mqtt.FakePublisher
	screen *display.Recorder
	blob   *settings.MemBlob
	resets int
}

func newRig(t *testing.T, splash time.Duration, samples []gpio.Levels) *testRig {
	t.Helper()
	r := &testRig{
		reader: gpio.NewFakeReader(samples),
		fix:    &gps.FakeProvider{},
		pub:    mqtt.NewFakePublisher(),
		screen: &display.Recorder{},
		blob:   &settings.MemBlob{},
	}
	store := settings.NewStore(r.blob)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	acqCfg := acquisition.DefaultConfig()
	acqCfg.RecordingDelay = 0
	acqCfg.HistoryCapacity = 16
	engine := acquisition.NewEngine(acqCfg)

	navCfg := nav.DefaultConfig()
	navCfg.Splash = splash
	navigator := nav.New(navCfg, store, nav.Hooks{
		ResetTrip: func() {
			r.resets++
			engine.ResetTrip()
		},
	}, t0)

	r.d = &deps{
		buttons:    r.reader,
		debouncer:  input.NewDebouncer(20 * time.Millisecond),
		gps:        r.fix,
		engine:     engine,
		nav:        navigator,
		strip:      leds.NewStrip(),
		store:      store,
		surface:    r.screen,
		publisher:  r.pub,
		mqttStatus: r.pub,
		tracker:    status.NewTracker(t0, status.Config{}),
	}
	return r
}

// run drives runLoop with a script: 't' sends a tick, 's' a sample tick.
// The signal is delivered after the script.
func (r *testRig) run(t *testing.T, clock func() time.Time, script string, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sample := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(r.d, clock, tick, sample, sig)
	}()

	for _, c := range script {
		switch c {
		case 't':
			tick <- time.Time{}
		case 's':
			sample <- time.Time{}
		}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func ticks(n int) string {
	return strings.Repeat("t", n)
}

func completeFix() gps.Fix {
	return gps.Fix{
		LocationValid:   true,
		Lat:             45.0,
		Lng:             6.0,
		SpeedValid:      true,
		SpeedKmph:       50,
		AltitudeValid:   true,
		AltitudeM:       1200,
		TimeValid:       true,
		Hour:            7,
		Minute:          30,
		DateValid:       true,
		Day:             1,
		Month:           5,
		Year:            2026,
		SatellitesValid: true,
		Satellites:      9,
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	r := newRig(t, 3*time.Second, repeat(gpio.Released(), 1))
	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(4), syscall.SIGTERM)

	if len(r.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(r.pub.SystemEvents))
	}
	se := r.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" || se.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", se.Event, se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
	if !strings.Contains(string(se.RawPayload), `"reason":"SIGTERM"`) {
		t.Errorf("payload should carry status snapshot: %s", se.RawPayload)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	r := newRig(t, 3*time.Second, repeat(gpio.Released(), 1))
	r.run(t, fakeClock(t0, 10*time.Millisecond), "", syscall.SIGINT)

	if len(r.pub.SystemEvents) != 1 || r.pub.SystemEvents[0].Reason != "SIGINT" {
		t.Errorf("expected SHUTDOWN/SIGINT, got %+v", r.pub.SystemEvents)
	}
}

func TestRunLoopSplashThenMain(t *testing.T) {
	r := newRig(t, 3*time.Second, repeat(gpio.Released(), 1))
	// clock call 0 is the loop start; ticks run at 10ms steps.
	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(310), syscall.SIGTERM)

	frames := r.screen.Committed
	if len(frames) != 310 {
		t.Fatalf("expected one frame per tick, got %d", len(frames))
	}
	if !hasText(frames[0], "SUZUKI") {
		t.Error("first frame should show the splash logo")
	}
	if !hasText(frames[len(frames)-1], "km/h") {
		t.Error("last frame should show the main display")
	}
	if got := r.d.tracker.Snapshot().NavState; got != "MAIN_SCREEN" {
		t.Errorf("NavState: got %q, want MAIN_SCREEN", got)
	}
}

func hasText(ops []display.Op, sub string) bool {
	for _, op := range ops {
		if (op.Name == "text" || op.Name == "glyph") && strings.Contains(op.Text, sub) {
			return true
		}
	}
	return false
}

func TestRunLoopButtonOpensMenu(t *testing.T) {
	samples := repeat(gpio.Released(), 2)
	samples = append(samples, repeat(gpio.Press(gpio.RightUp), 4)...)
	samples = append(samples, repeat(gpio.Released(), 4)...)
	r := newRig(t, 0, samples)

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(len(samples)), syscall.SIGTERM)

	if got := r.d.tracker.Snapshot().NavState; got != "MENU_MAIN" {
		t.Errorf("NavState: got %q, want MENU_MAIN", got)
	}
	if r.d.debouncer.Counts()[gpio.RightUp] != 1 {
		t.Errorf("expected 1 right-up click, got %d", r.d.debouncer.Counts()[gpio.RightUp])
	}
}

func TestRunLoopButtonsIgnoredDuringSplash(t *testing.T) {
	samples := repeat(gpio.Released(), 2)
	samples = append(samples, repeat(gpio.Press(gpio.RightUp), 4)...)
	samples = append(samples, repeat(gpio.Released(), 4)...)
	r := newRig(t, 3*time.Second, samples)

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(len(samples)), syscall.SIGTERM)

	if got := r.d.tracker.Snapshot().NavState; got != "SPLASH" {
		t.Errorf("NavState: got %q, want SPLASH", got)
	}
}

func TestRunLoopGPIOReadError(t *testing.T) {
	r := newRig(t, 0, nil)
	r.reader.ReadError = errors.New("gpio fault")

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(5), syscall.SIGTERM)

	// The loop keeps drawing and still shuts down cleanly.
	if len(r.screen.Committed) != 5 {
		t.Errorf("expected 5 frames despite read errors, got %d", len(r.screen.Committed))
	}
	if len(r.pub.SystemEvents) != 1 || r.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %+v", r.pub.SystemEvents)
	}
}

func TestRunLoopDisplayErrorKeepsRunning(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.screen.CommitErr = errors.New("spi timeout")

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(5), syscall.SIGTERM)

	if got := r.d.tracker.Snapshot().NavState; got != "MAIN_SCREEN" {
		t.Errorf("NavState: got %q", got)
	}
}

func TestRunLoopTelemetryInterval(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.d.telemetry = time.Second

	// 25 ticks at 100ms = 2.5s after start.
	r.run(t, fakeClock(t0, 100*time.Millisecond), ticks(25), syscall.SIGTERM)

	if len(r.pub.Telemetry) != 2 {
		t.Fatalf("expected 2 telemetry reports, got %d", len(r.pub.Telemetry))
	}
	if !r.pub.Telemetry[0].Timestamp.Equal(t0.Add(time.Second)) {
		t.Errorf("first report at %v", r.pub.Telemetry[0].Timestamp)
	}
}

func TestRunLoopTelemetryDisabled(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.run(t, fakeClock(t0, time.Second), ticks(20), syscall.SIGTERM)

	if len(r.pub.Telemetry) != 0 {
		t.Errorf("expected no telemetry, got %d", len(r.pub.Telemetry))
	}
}

func TestRunLoopPublishError(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.d.telemetry = 100 * time.Millisecond
	r.pub.PublishError = errors.New("broker down")

	r.run(t, fakeClock(t0, 100*time.Millisecond), ticks(5), syscall.SIGTERM)

	if len(r.screen.Committed) != 5 {
		t.Errorf("loop should keep running on publish errors, got %d frames", len(r.screen.Committed))
	}
	if len(r.pub.SystemEvents) != 1 {
		t.Errorf("expected SHUTDOWN after publish errors")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.d.heartbeat = time.Minute
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")

	// 3 ticks at 30s = 90s: one heartbeat at 60s.
	r.run(t, fakeClock(t0, 30*time.Second), ticks(3), syscall.SIGTERM)

	var heartbeats int
	for _, se := range r.pub.SystemEvents {
		if se.Event != "HEARTBEAT" {
			continue
		}
		heartbeats++
		if !strings.Contains(string(se.RawPayload), `"event":"HEARTBEAT"`) {
			t.Errorf("heartbeat payload: %s", se.RawPayload)
		}
		if !strings.Contains(string(se.RawPayload), `"network":{"type":"wifi"`) {
			t.Errorf("heartbeat should include network info: %s", se.RawPayload)
		}
		if se.Retained {
			t.Error("heartbeat should not be retained")
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT, got %d", heartbeats)
	}
}

func TestRunLoopRecordsSamples(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.fix.Current = completeFix()

	// Tick 1: first fix. Tick 2: recording. Then one sample is taken per
	// sample tick, on the following main tick.
	r.run(t, fakeClock(t0, 10*time.Millisecond), "tt"+"st"+"t"+"st", syscall.SIGTERM)

	snap := r.d.tracker.Snapshot()
	if snap.Acq.State != acquisition.StateRecording {
		t.Fatalf("state: got %v", snap.Acq.State)
	}
	if snap.Acq.HistoryLen != 2 {
		t.Errorf("HistoryLen: got %d, want 2", snap.Acq.HistoryLen)
	}
	if !snap.Acq.TimeKnown {
		t.Error("clock should be set from the fix")
	}
}

func TestRunLoopNoSamplesBeforeFix(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.run(t, fakeClock(t0, 10*time.Millisecond), "tstststs", syscall.SIGTERM)

	if got := r.d.engine.History().Len(); got != 0 {
		t.Errorf("no samples expected without a fix, got %d", got)
	}
}

func TestRunLoopShiftLights(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	if _, err := r.d.store.ToggleLEDs(); err != nil {
		t.Fatal(err)
	}
	// Two edges 10ms apart: 6000 rpm.
	r.d.engine.Meter().Edge(0)
	r.d.engine.Meter().Edge(10 * time.Millisecond)

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(3), syscall.SIGTERM)

	frame := r.d.tracker.Snapshot().LEDs
	if frame.Lit() != 9 {
		t.Errorf("lit: got %d, want 9 at 6000/8000 rpm", frame.Lit())
	}
	if frame.Brightness != 3 {
		t.Errorf("brightness: got %d, want 3", frame.Brightness)
	}
}

func TestRunLoopShiftLightsDarkDuringSplash(t *testing.T) {
	r := newRig(t, 3*time.Second, repeat(gpio.Released(), 1))
	r.d.store.ToggleLEDs()
	r.d.engine.Meter().Edge(0)
	r.d.engine.Meter().Edge(10 * time.Millisecond)

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(3), syscall.SIGTERM)

	if lit := r.d.tracker.Snapshot().LEDs.Lit(); lit != 0 {
		t.Errorf("strip should stay dark during splash, %d lit", lit)
	}
}

func TestRunLoopMQTTStatusTracked(t *testing.T) {
	r := newRig(t, 0, repeat(gpio.Released(), 1))
	r.pub.Connected = true

	r.run(t, fakeClock(t0, 10*time.Millisecond), ticks(1), syscall.SIGTERM)

	if !r.d.tracker.Snapshot().MQTTConnected {
		t.Error("expected MQTT connected in status")
	}
}
