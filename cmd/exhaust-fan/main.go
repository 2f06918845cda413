// Command exhaust-fan runs the motion-activated exhaust fan controller:
// it polls the motion sensor and pushbutton, drives the fan relay and
// status LED, and publishes control events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/exhaust-fan/internal/gpio"
	"github.com/sweeney/exhaust-fan/internal/logic"
	"github.com/sweeney/exhaust-fan/internal/mqtt"
	"github.com/sweeney/exhaust-fan/internal/status"
	"github.com/sweeney/exhaust-fan/internal/web"
)

func main() {
	poll := flag.Duration("poll", 10*time.Millisecond, "Input polling interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	pinButton := flag.Int("pin-button", gpio.DefaultPinButton, "BCM pin number for the pushbutton")
	pinRelay := flag.Int("pin-relay", gpio.DefaultPinRelay, "BCM pin number for the fan relay")
	pinLED := flag.Int("pin-led", gpio.DefaultPinLED, "BCM pin number for the status LED")
	adcPath := flag.String("adc", gpio.DefaultADCPath, "IIO sysfs path for the motion sensor ADC")
	printState := flag.Bool("print-state", false, "Print current inputs and exit")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")

	flag.Parse()

	if err := run(*poll, *broker, *heartbeat, *pinButton, *pinRelay, *pinLED, *adcPath, *printState, *httpAddr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll time.Duration, broker string, heartbeat time.Duration, pinButton, pinRelay, pinLED int, adcPath string, printState bool, httpAddr string) error {
	// Initialize hardware
	hw, err := gpio.NewRealIO(pinButton, pinRelay, pinLED, adcPath)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	// Print state mode
	if printState {
		sample, err := hw.Read()
		if err != nil {
			return fmt.Errorf("read inputs: %w", err)
		}
		fmt.Printf("motion: %d, button: %s\n", sample.Motion, pressedString(sample.Button))
		return nil
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		ADCPath:     adcPath,
		PinButton:   pinButton,
		PinRelay:    pinRelay,
		PinLED:      pinLED,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

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

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v broker=%s heartbeat=%v", poll, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(hw, hw, publisher, publisher, tracker, heartbeat, time.Now, time.Sleep, ticker.C, sigCh)
}

func runLoop(hw gpio.Reader, actuator gpio.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, sleep func(time.Duration), tick <-chan time.Time, sig <-chan os.Signal) error {
	start := now()
	ctrl := logic.NewController()
	lastHeartbeat := start

	// Last levels written to hardware; outputs are only rewritten on change.
	var relaySet, ledSet, written bool

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
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			sample, err := hw.Read()
			if err != nil {
				log.Printf("input read error: %v", err)
				continue
			}

			out := ctrl.Tick(logic.Input{
				Raw:    sample.Motion,
				Button: sample.Button,
				Micros: uint32(t.Sub(start).Microseconds()),
				Time:   t,
			})

			if !written || out.Relay != relaySet {
				if err := actuator.SetRelay(out.Relay); err != nil {
					log.Printf("relay write error: %v", err)
				}
				relaySet = out.Relay
			}
			if !written || out.LED != ledSet {
				if err := actuator.SetLED(out.LED); err != nil {
					log.Printf("LED write error: %v", err)
				}
				ledSet = out.LED
			}
			written = true

			for _, event := range out.Events {
				log.Printf("event: %s trigger=%s fan=%v", event.Type, event.Trigger, event.FanRunning)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(ctrl)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					log.Printf("heartbeat: uptime=%v fan=%v state=%s",
						snap.Uptime().Truncate(time.Second), snap.FanRunning, snap.State)
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Deliberate debounce pause after a manual toggle; nothing is
			// sampled or blinked while it runs.
			if out.Sleep > 0 {
				log.Printf("debounce pause: %v", out.Sleep)
				sleep(out.Sleep)
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

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
