// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// File flags point at the descriptor to operate on
	File      = "file"
	FileShort = "f"

	// Var flags override descriptor variables (repeatable, key=value)
	Var = "var"

	// AutoApprove skips the interactive confirmation before apply and destroy
	AutoApprove = "auto-approve"

	// DetailedExitCode makes 'plan' exit with 2 when changes are pending
	DetailedExitCode = "detailed-exitcode"

	// Parallelism bounds concurrent resource operations during apply
	Parallelism = "parallelism"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"
)

const DefaultDescriptorFile = "lakehouse.yaml"
