package core

// Config carries process-wide tunables that sit outside the stable ABI
// surface: boot-time thresholds, whether the optional reference-edge graph
// is in use, and a debug bitmask applied at Init. None of it is read from
// the environment or a file — spec.md forbids persisted state for the core
// itself. cmd/trigen and cmd/libtrigen both build their Core from
// DefaultConfig; no CLI flag sets these values.
type Config struct {
	// Thresholds seeds GenerationSet at Init; a zero value in any slot keeps
	// the built-in default for that generation.
	Thresholds [3]int

	// DebugFlags is applied via SetDebug immediately after Init.
	DebugFlags uint64

	// ReferenceGraphEnabled documents whether the host intends to call
	// AddReference/RemoveReference; Init does not behave differently based
	// on it today; it exists so the CLI and diagnostics can report the
	// collector's configured mode without guessing from edge-table size.
	ReferenceGraphEnabled bool
}

// DefaultConfig returns a Config with the spec's default thresholds and no
// debug flags.
func DefaultConfig() Config {
	return Config{Thresholds: [3]int{700, 10, 10}}
}
