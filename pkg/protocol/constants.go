package protocol

// Directory and path constants used throughout escabot.
const (
	// HomeDir is the user-level state directory (e.g., ~/.escabot).
	HomeDir = ".escabot"

	// ConfigFile is the default configuration file name inside HomeDir.
	ConfigFile = "escabot.yaml"
)

// Interaction component IDs for the report menu.
const (
	ComponentEscalator = "report:escalator" // value: escalator selection, e.g. "4-2"
	ComponentStatus    = "report:status"    // value: status id, e.g. "DOWN"
	ComponentCancel    = "report:cancel"
)

// Event types written to the events table.
const (
	EventReport   = "report"
	EventOutdated = "outdated"
)

// SourceSweeper is the event source for expirations.
const SourceSweeper = "sweeper"
