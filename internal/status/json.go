package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	State          string       `json:"state"`
	Fan            string       `json:"fan"`
	Motion         bool         `json:"motion"`
	DelayRemainSec int64        `json:"delay_remaining_seconds"`
	RunRemainSec   int64        `json:"run_remaining_seconds"`
	MotionBlockSec int64        `json:"motion_block_seconds"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Counts         CountsJSON   `json:"event_counts"`
	Network        *NetworkJSON `json:"network,omitempty"`
	Config         ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Motion    int `json:"motion"`
	FanOn     int `json:"fan_on"`
	FanOff    int `json:"fan_off"`
	ManualOn  int `json:"manual_on"`
	ManualOff int `json:"manual_off"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ADCPath     string `json:"adc_path"`
	PinButton   int    `json:"pin_button"`
	PinRelay    int    `json:"pin_relay"`
	PinLED      int    `json:"pin_led"`
}

func buildInner(snap Snapshot) StatusInner {
	fan := "OFF"
	if snap.FanRunning {
		fan = "ON"
	}

	return StatusInner{
		State:          string(snap.State),
		Fan:            fan,
		Motion:         snap.Motion,
		DelayRemainSec: int64(snap.DelayRemaining.Truncate(time.Second).Seconds()),
		RunRemainSec:   int64(snap.RunRemaining.Truncate(time.Second).Seconds()),
		MotionBlockSec: int64(snap.MotionBlock.Truncate(time.Second).Seconds()),
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Motion:    snap.Counts.Motion,
			FanOn:     snap.Counts.FanOn,
			FanOff:    snap.Counts.FanOff,
			ManualOn:  snap.Counts.ManualOn,
			ManualOff: snap.Counts.ManualOff,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ADCPath:     snap.Config.ADCPath,
			PinButton:   snap.Config.PinButton,
			PinRelay:    snap.Config.PinRelay,
			PinLED:      snap.Config.PinLED,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
