package ir

// Version constants for the IR schema and the plansql toolchain.
const (
	// IRVersion is the IR schema version. It is part of DomainPlan, so a
	// schema change invalidates every fingerprint.
	IRVersion = "1"

	// ToolVersion is the plansql release version.
	ToolVersion = "0.1.0"
)
