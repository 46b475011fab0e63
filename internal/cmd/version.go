package cmd

import "fmt"

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const versionTemplate = `lineloop {{.Version}}
`

func versionString() string {
	return fmt.Sprintf("lineloop %s\n  commit: %s\n  built:  %s\n", Version, GitCommit, BuildDate)
}
