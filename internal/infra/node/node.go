package node

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Node describes the running coop-server process.
type Node struct {
	ID         string    `json:"id"`
	Hostname   string    `json:"hostname"`
	Version    string    `json:"version"`
	CommitHash string    `json:"commit_hash"`
	StartedAt  time.Time `json:"started_at"`
}

// Set at build time with -ldflags "-X coop-server/internal/infra/node.Version=...".
var Version = "development"
var CommitHash = "unknown"

var (
	current     Node
	currentOnce sync.Once
)

// GetNodeInfo returns the same Node for the lifetime of the process.
func GetNodeInfo() Node {
	currentOnce.Do(func() {
		current = Node{
			ID:         uuid.NewString(),
			Hostname:   hostname(),
			Version:    Version,
			CommitHash: CommitHash,
			StartedAt:  time.Now().UTC(),
		}
	})
	return current
}

// ClientID builds a stable per-process identifier for external brokers.
func (n Node) ClientID(prefix string) string {
	return prefix + "-" + n.ID[:8]
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "localhost"
	}
	return name
}
