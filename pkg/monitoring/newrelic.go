package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}

// Lifecycle event helpers

// RecordRideRequested records a new ride request
func (nr *NewRelicApp) RecordRideRequested(rideID, riderID string) {
	nr.RecordCustomEvent("RideRequested", map[string]interface{}{
		"ride_id":   rideID,
		"rider_id":  riderID,
		"timestamp": time.Now().Unix(),
	})
}

// RecordDriverAssigned records a driver assignment
func (nr *NewRelicApp) RecordDriverAssigned(rideID, driverID string) {
	nr.RecordCustomEvent("DriverAssigned", map[string]interface{}{
		"ride_id":   rideID,
		"driver_id": driverID,
	})
}

// RecordRideTransition records any ride status change
func (nr *NewRelicApp) RecordRideTransition(rideID, event, to string) {
	nr.RecordCustomEvent("RideTransition", map[string]interface{}{
		"ride_id":   rideID,
		"event":     event,
		"to_status": to,
	})
}

// RecordAvailabilityLag records a driver-availability write that failed after
// the ride write committed
func (nr *NewRelicApp) RecordAvailabilityLag(rideID, driverID string) {
	nr.RecordCustomEvent("DriverAvailabilityLag", map[string]interface{}{
		"ride_id":   rideID,
		"driver_id": driverID,
	})
}
