package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"subrover/internal/config"
)

// Requirement defines an external tool subrover shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the external tool set from configuration. The probe
// tool is optional when embedded subtitle detection is disabled.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "Subliminal",
			Command:     cfg.SubliminalBinary(),
			Description: "Downloads subtitle files from public providers",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Detects embedded subtitle tracks",
			Optional:    cfg.Subtitles.IgnoreEmbedded,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns an error naming every unavailable required tool, or
// nil when the toolchain is usable.
func MissingRequired(statuses []Status) error {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("required tools unavailable: %s", strings.Join(missing, ", "))
}
