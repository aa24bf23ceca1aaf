package yabai

import (
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// daemonProcessName is the executable name the daemon runs under.
const daemonProcessName = "yabai"

// daemonMissing reports whether no yabai process is visible in the process
// table. Used to turn a bare connection failure into a useful message; a
// scan failure counts as "not missing" so the original error surfaces.
func daemonMissing() bool {
	procs, err := process.Processes()
	if err != nil {
		return false
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(name, daemonProcessName) {
			return false
		}
	}
	return true
}
