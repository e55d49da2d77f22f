// Package version reports what build of storefront is running and which
// process it is. The build fields are stamped by the release pipeline:
//
//	go build -ldflags "-X storefront/internal/version.Version=1.4.0 \
//	  -X storefront/internal/version.GitCommit=$(git rev-parse HEAD) \
//	  -X storefront/internal/version.BuildDate=$(date -u +%FT%TZ)"
package version

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Stamped at link time. Local builds keep the defaults.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info identifies a running storefront process. It is logged with every
// record and reported by the health and version commands.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var current = sync.OnceValue(func() Info {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return Info{
		Version:    Version,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		InstanceID: uuid.NewString(),
		Hostname:   host,
	}
})

// GetInfo returns the same Info for the life of the process.
func GetInfo() Info {
	return current()
}

func (i Info) String() string {
	return fmt.Sprintf("storefront %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}
