// system.go captures runtime state at event time.

package tern

import (
	"os"
	"runtime"
)

// systemContexts snapshots the process runtime state attached to every event
// under the contexts block.
func systemContexts() map[string]map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hostname, _ := os.Hostname() // empty hostname is acceptable

	return map[string]map[string]any{
		"runtime": {
			"name":           "go",
			"version":        runtime.Version(),
			"go_numroutines": runtime.NumGoroutine(),
			"go_maxprocs":    runtime.GOMAXPROCS(0),
			"go_numcgocalls": runtime.NumCgoCall(),
		},
		"device": {
			"arch":         runtime.GOARCH,
			"num_cpu":      runtime.NumCPU(),
			"hostname":     hostname,
			"memory_alloc": memStats.Alloc,
		},
		"os": {
			"name": runtime.GOOS,
		},
	}
}
