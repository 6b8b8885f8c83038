package instance

import "os"

// GetID returns the identifier of this process for log correlation.
// Hosted platforms set DYNO; local runs fall back to a fixed name.
func GetID() string {
	if id := os.Getenv("QUICKPLATE_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return "local"
}
