// Package typing holds the typing-simulation parameters shared between the
// UI and the automation script, and mirrors them to the file the script reads.
package typing

import "fmt"

// DelayCeiling is the largest delay, in milliseconds, the script accepts.
// Speeds chosen in the UI are inverted against it to obtain delays.
const DelayCeiling uint32 = 400

// Config is the typing configuration consumed by the automation script.
// MinDelay and MaxDelay bound the per-keystroke delay in milliseconds;
// ErrorRate is the chance of a deliberate typo, in percent.
type Config struct {
	MinDelay  uint32 `json:"minDelay"`
	MaxDelay  uint32 `json:"maxDelay"`
	ErrorRate uint32 `json:"errorRate"`
}

// Defaults returns the configuration used before the user changes anything.
func Defaults() Config {
	return Config{MinDelay: 20, MaxDelay: 25, ErrorRate: 0}
}

// Validate checks 0 <= MinDelay <= MaxDelay <= DelayCeiling.
func (c Config) Validate() error {
	if c.MinDelay > c.MaxDelay {
		return fmt.Errorf("typing: minDelay %d exceeds maxDelay %d", c.MinDelay, c.MaxDelay)
	}
	if c.MaxDelay > DelayCeiling {
		return fmt.Errorf("typing: maxDelay %d exceeds %d", c.MaxDelay, DelayCeiling)
	}
	return nil
}

// Speeds converts the delay bounds back into the UI-facing speed pair.
func (c Config) Speeds() (minSpeed, maxSpeed uint32) {
	return DelayCeiling - c.MaxDelay, DelayCeiling - c.MinDelay
}
