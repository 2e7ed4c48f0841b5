// Command motodash drives the motorcycle dashboard: handlebar buttons, RPM
// pickup, GPS, OLED panel and shift lights, with MQTT telemetry and an
// optional HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
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
	"github.com/sweeney/motodash/internal/web"
)

// cliFlags holds the flags that are not config overrides.
type cliFlags struct {
	configPath *string
	printState *bool
	headless   *bool
}

func registerFlags(fs *flag.FlagSet) cliFlags {
	fs.Duration("poll", 5*time.Millisecond, "Button polling interval")
	fs.Duration("debounce", 20*time.Millisecond, "Button debounce window")
	fs.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.String("http", ":80", "HTTP status address (empty to disable)")
	fs.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	return cliFlags{
		configPath: fs.String("config", "", "YAML config file (empty for defaults)"),
		printState: fs.Bool("print-state", false, "Print button levels and GPS fix, then exit"),
		headless:   fs.Bool("headless", false, "Run without the OLED panel"),
	}
}

func main() {
	cli := registerFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(*cli.configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	cfg, err = applyFlags(cfg, flag.CommandLine)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *cli.printState, *cli.headless); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags overlays the flags given on the command line onto cfg and
// validates the merged result.
func applyFlags(cfg config.Config, fs *flag.FlagSet) (config.Config, error) {
	wsSet := false
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "poll":
			cfg.Timing.Poll = v.(time.Duration)
		case "debounce":
			cfg.Timing.Debounce = v.(time.Duration)
		case "broker":
			cfg.MQTT.Broker = v.(string)
		case "heartbeat":
			cfg.Timing.Heartbeat = v.(time.Duration)
		case "http":
			cfg.HTTP.Addr = v.(string)
		case "ws-broker":
			wsSet = true
		}
	})
	if cfg.MQTT.WSBroker == "" || wsSet {
		cfg.MQTT.WSBroker = resolveWSBroker(fs.Lookup("ws-broker").Value.String(), cfg.MQTT.Broker)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("command line: %w", err)
	}
	return cfg, nil
}

func run(cfg config.Config, printState, headless bool) error {
	// Initialize GPIO
	buttons, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer buttons.Close()

	gpsSvc := gps.New(gps.Config{Device: cfg.GPS.Device, Baud: cfg.GPS.Baud})

	// Print state mode
	if printState {
		levels, err := buttons.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		for b := gpio.Button(0); b < gpio.NumButtons; b++ {
			fmt.Printf("%s: %s\n", b, levelString(levels[b]))
		}
		if err := gpsSvc.Start(context.Background()); err != nil {
			return fmt.Errorf("start gps: %w", err)
		}
		time.Sleep(2 * time.Second)
		fmt.Println(fixString(gpsSvc.Fix()))
		gpsSvc.Close()
		return nil
	}

	engine := acquisition.NewEngine(acquisition.Config{
		RecordingDelay:   cfg.Timing.RecordingDelay,
		MinTripSpeedKmph: acquisition.DefaultConfig().MinTripSpeedKmph,
		HistoryCapacity:  cfg.History.Capacity,
		RPMStaleAfter:    cfg.Timing.RPMStale,
		UTCOffset:        cfg.Timing.UTCOffset,
		PeakDecay:        acquisition.DefaultConfig().PeakDecay,
	})

	// The RPM callback runs on the GPIO event goroutine.
	watcher, err := gpio.WatchEdges(cfg.GPIO.Chip, cfg.GPIO.RPM, engine.Meter().Edge)
	if err != nil {
		return fmt.Errorf("watch rpm line: %w", err)
	}
	defer watcher.Close()

	if err := gpsSvc.Start(context.Background()); err != nil {
		log.Printf("gps: %v (continuing without fix)", err)
	}
	defer gpsSvc.Close()

	store := settings.NewStore(settings.FileBlob{Path: cfg.Settings.Path})
	if err := store.Load(); err != nil {
		log.Printf("settings: %v (using defaults)", err)
	}

	fb := display.NewFramebuffer(nil)
	if !headless {
		oled, err := display.OpenOLED(display.OLEDConfig{
			SPIPort:  cfg.Display.SPIPort,
			DCPin:    cfg.Display.DCPin,
			ResetPin: cfg.Display.ResetPin,
		})
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer oled.Close()
		fb = display.NewFramebuffer(oled)
	}

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		BufferSize: cfg.MQTT.BufferSize,
	})
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Timing.Poll.Milliseconds(),
		DebounceMs:  cfg.Timing.Debounce.Milliseconds(),
		SampleMs:    cfg.Timing.Sample.Milliseconds(),
		TelemetryMs: cfg.Timing.Telemetry.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		WSBroker:    cfg.MQTT.WSBroker,
		GPSDevice:   cfg.GPS.Device,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	webMgr := web.NewManager(cfg.HTTP.Addr, tracker, engine.History(), fb)
	setWeb := func(on bool) {
		if cfg.HTTP.Addr == "" {
			return
		}
		if err := webMgr.SetEnabled(on); err != nil {
			log.Printf("web: %v", err)
		}
	}
	setWeb(store.Record().WifiEnabled)
	defer setWeb(false)

	navCfg := nav.DefaultConfig()
	navCfg.Splash = cfg.Timing.Splash
	if navCfg.TransitionFrame < cfg.Timing.Poll {
		navCfg.TransitionFrame = cfg.Timing.Poll
	}
	navigator := nav.New(navCfg, store, nav.Hooks{
		ResetTrip:   engine.ResetTrip,
		WifiChanged: setWeb,
	}, time.Now())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	log.Printf("started: poll=%v debounce=%v sample=%v broker=%s gps=%q headless=%v",
		cfg.Timing.Poll, cfg.Timing.Debounce, cfg.Timing.Sample, cfg.MQTT.Broker, cfg.GPS.Device, headless)

	ticker := time.NewTicker(cfg.Timing.Poll)
	defer ticker.Stop()
	sampleTicker := time.NewTicker(cfg.Timing.Sample)
	defer sampleTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &deps{
		buttons:    buttons,
		debouncer:  input.NewDebouncer(cfg.Timing.Debounce),
		gps:        gpsSvc,
		engine:     engine,
		nav:        navigator,
		strip:      leds.NewStrip(),
		store:      store,
		surface:    fb,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		telemetry:  cfg.Timing.Telemetry,
		heartbeat:  cfg.Timing.Heartbeat,
	}
	return runLoop(d, time.Now, ticker.C, sampleTicker.C, sigCh)
}

// deps is everything the main loop touches.
type deps struct {
	buttons    gpio.ButtonReader
	debouncer  *input.Debouncer
	gps        gps.Provider
	engine     *acquisition.Engine
	nav        *nav.Navigator
	strip      *leds.Strip
	store      *settings.Store
	surface    display.Surface
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	telemetry  time.Duration // 0 disables
	heartbeat  time.Duration // 0 disables
}

func runLoop(d *deps, now func() time.Time, tick, sampleTick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastTelemetry := startTime
	lastHeartbeat := startTime
	displayFailing := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-sampleTick:
			d.engine.SampleFlag().Set()

		case <-tick:
			t := now()

			levels, err := d.buttons.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
			} else {
				d.debouncer.Poll(levels, t)
			}

			d.nav.Update(d.debouncer, t)
			d.engine.Update(d.gps.Fix(), t)
			snap := d.engine.Snapshot(t)
			rec := d.store.Record()

			var frame leds.Frame
			if !d.nav.InSplash() {
				frame = d.strip.Update(t, snap.RPM, rec)
			}

			err = d.nav.Render(d.surface, nav.View{Snap: snap, History: d.engine.History()})
			if err != nil && !displayFailing {
				log.Printf("display error: %v", err)
			} else if err == nil && displayFailing {
				log.Printf("display recovered")
			}
			displayFailing = err != nil

			// Update status tracker for HTTP consumers
			if d.tracker != nil {
				d.tracker.Update(snap, rec, frame, d.nav.State())
				d.tracker.SetInput(d.debouncer.Counts())
				d.tracker.SetGPS(d.gps.Health())
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
			}

			if d.telemetry > 0 && t.Sub(lastTelemetry) >= d.telemetry {
				lastTelemetry = t
				if err := d.publisher.Publish(mqtt.Telemetry{Timestamp: t, Snap: snap}); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: uptime=%v state=%s samples=%d trip=%.0fm",
					t.Sub(startTime), snap.State, snap.HistoryLen, snap.TripMeters)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if d.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func levelString(high bool) string {
	if high {
		return "released"
	}
	return "pressed"
}

func fixString(f gps.Fix) string {
	if !f.LocationValid {
		return "gps: no fix"
	}
	s := fmt.Sprintf("gps: lat=%.6f lng=%.6f", f.Lat, f.Lng)
	if f.SatellitesValid {
		s += fmt.Sprintf(" sats=%d", f.Satellites)
	}
	if f.SpeedValid {
		s += fmt.Sprintf(" speed=%.1fkm/h", f.SpeedKmph)
	}
	return s
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
