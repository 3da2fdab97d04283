package constant

// Reminder cadence bounds, in minutes.
const (
	// MinIntervalMinutes is the shortest cadence a chat may configure.
	MinIntervalMinutes = 5
	// MaxIntervalMinutes is the longest cadence a chat may configure (24 hours).
	MaxIntervalMinutes = 1440
	// DefaultIntervalMinutes is the cadence assigned on first enable.
	DefaultIntervalMinutes = 60
)

// ValidInterval reports whether minutes is an acceptable reminder cadence.
func ValidInterval(minutes int) bool {
	return minutes >= MinIntervalMinutes && minutes <= MaxIntervalMinutes
}
