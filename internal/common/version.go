package common

// Overridden at build time with -ldflags "-X ...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)
