package defaults

// Exit codes for the CLI.
const (
	ExitSuccess   = 0 // Scan completed, with or without findings
	ExitUserError = 1 // Invalid arguments or configuration
	ExitNoTargets = 2 // No host resolved for the domain
)
