// checkin.go reports cron monitor check-ins: heartbeats marking a scheduled
// job as started, finished, or failed.

package tern

import "encoding/json"

// CheckInStatus is the lifecycle state of a monitor check-in.
type CheckInStatus string

const (
	CheckInStatusInProgress CheckInStatus = "in_progress"
	CheckInStatusOK         CheckInStatus = "ok"
	CheckInStatusError      CheckInStatus = "error"
)

// CheckIn is one heartbeat for a cron monitor. Correlate the closing ok or
// error check-in with its opening in_progress one by reusing the CheckInID
// the opening call returned.
type CheckIn struct {
	// CheckInID correlates the check-ins of one job run. Leave empty on the
	// opening in_progress check-in to have one generated.
	CheckInID   string        `json:"check_in_id"`
	MonitorSlug string        `json:"monitor_slug"`
	Status      CheckInStatus `json:"status"`
	// Duration is the job runtime in seconds, meaningful on closing
	// check-ins only.
	Duration float64 `json:"duration,omitempty"`
}

// MonitorSchedule describes when a monitor is expected to check in.
type MonitorSchedule struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CrontabSchedule builds a crontab-expression schedule.
func CrontabSchedule(expression string) MonitorSchedule {
	return MonitorSchedule{Type: "crontab", Value: expression}
}

// IntervalSchedule builds an interval schedule, e.g. IntervalSchedule(30,
// "minute").
func IntervalSchedule(value string, unit string) MonitorSchedule {
	return MonitorSchedule{Type: "interval", Value: value + " " + unit}
}

// MonitorConfig upserts the monitor's definition alongside a check-in.
type MonitorConfig struct {
	Schedule MonitorSchedule `json:"schedule"`
	// CheckInMargin is the grace period, in minutes, before a missed
	// check-in is flagged.
	CheckInMargin int `json:"checkin_margin,omitempty"`
	// MaxRuntime is the runtime, in minutes, after which a job counts as
	// failed.
	MaxRuntime int    `json:"max_runtime,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type checkInPayload struct {
	CheckIn
	MonitorConfig *MonitorConfig `json:"monitor_config,omitempty"`
	Environment   string         `json:"environment,omitempty"`
	Release       string         `json:"release,omitempty"`
}

// CaptureCheckIn reports a monitor check-in, optionally upserting the
// monitor's configuration. Check-ins bypass sampling: a heartbeat that is
// only sometimes sent would read as a missed schedule. Returns the check-in
// id, or the empty string when the client is off.
func (c *Client) CaptureCheckIn(checkIn CheckIn, monitorConfig *MonitorConfig) string {
	var id string
	c.guard("capture_check_in", func() {
		c.log.Debug("calling CaptureCheckIn")

		if checkIn.CheckInID == "" {
			checkIn.CheckInID = newEventID()
		}
		id = checkIn.CheckInID

		// Exceptions raised while the job runs carry the monitor identity.
		if checkIn.Status == CheckInStatusInProgress {
			c.scope().SetContext("monitor", map[string]any{"slug": checkIn.MonitorSlug})
		}

		payload := checkInPayload{
			CheckIn:       checkIn,
			MonitorConfig: monitorConfig,
			Environment:   c.options.Environment,
			Release:       c.options.Release,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			c.log.Debug("check-in serialization failed")
			return
		}
		c.dispatch(body)
	})
	return id
}
