// Package environment detects whether the process runs inside a container.
package environment

import (
	"os"
	"strings"
)

const (
	dockerEnvPath = "/.dockerenv"
	cgroupPath    = "/proc/1/cgroup"
)

var cgroupMarkers = []string{"docker", "containerd", "kubepods"}

// Detector checks container markers on the filesystem. The zero value uses
// the standard Linux locations.
type Detector struct {
	DockerEnvPath string
	CgroupPath    string
}

// RunningInContainer reports whether the current process looks containerized.
func RunningInContainer() bool {
	return Detector{}.RunningInContainer()
}

// RunningInContainer reports true when the docker marker file exists or the
// init process cgroup names a container runtime.
func (d Detector) RunningInContainer() bool {
	marker := d.DockerEnvPath
	if marker == "" {
		marker = dockerEnvPath
	}
	if _, err := os.Stat(marker); err == nil {
		return true
	}

	cgroup := d.CgroupPath
	if cgroup == "" {
		cgroup = cgroupPath
	}
	data, err := os.ReadFile(cgroup)
	if err != nil {
		return false
	}
	content := strings.ToLower(string(data))
	for _, m := range cgroupMarkers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}

// Describe returns "container" or "host" for log lines and status output.
func (d Detector) Describe() string {
	if d.RunningInContainer() {
		return "container"
	}
	return "host"
}

