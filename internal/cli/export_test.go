package cli

// Test-only accessors.

var (
	DefaultOutputPath  = defaultOutputPath
	EmbeddedOutputPath = embeddedOutputPath
	ApplyRunFlags      = applyRunFlags
	HumanBytes         = humanBytes
)

type RunFlags = runFlags
