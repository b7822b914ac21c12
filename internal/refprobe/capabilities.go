// Package refprobe is an optional, best-effort enrichment layer: it detects
// whether the host kernel supports BTF/CO-RE well enough to attach a native
// eBPF probe that could, in principle, observe host object lifetime events
// (allocation/free, or a host-side equivalent) and feed them into the
// collector's reference-edge graph. When the capability is absent — which
// is the common case, and always the case off Linux — the collector's
// conservative "every tracked object is rooted" default takes over, per
// spec.md §9's documented design note. Nothing elsewhere in trigen requires
// this package to succeed; it is never on the path to correctness.
//
// Adapted from the teacher's internal/ebpf/btf.go capability-detection
// shape, generalized from "which BCC/eBPF tier is available for collecting
// system metrics" to "is live kernel-assisted edge tracing available for
// this process".
package refprobe

import (
	"os"
	"strconv"
	"strings"
)

// Capabilities describes what the host kernel offers toward a live
// reference-edge probe.
type Capabilities struct {
	KernelVersion string
	MajorVersion  int
	MinorVersion  int
	BTFAvailable  bool
	CORESupport   bool // kernel >= 5.8
}

// Detect reads /proc and /sys to determine BTF/CO-RE availability. It never
// fails: an unreadable or missing file just yields a zero-value field.
func Detect() Capabilities {
	var c Capabilities
	c.KernelVersion = readKernelVersion()
	c.MajorVersion, c.MinorVersion = parseKernelVersion(c.KernelVersion)
	if fileExists("/sys/kernel/btf/vmlinux") {
		c.BTFAvailable = true
	}
	if c.MajorVersion > 5 || (c.MajorVersion == 5 && c.MinorVersion >= 8) {
		c.CORESupport = true
	}
	return c
}

// CanProbe reports whether a live edge probe could plausibly be attached.
// This never implies one IS attached — see Probe.Attach.
func (c Capabilities) CanProbe() bool {
	return c.BTFAvailable && c.CORESupport
}

func readKernelVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(data))
	if len(fields) >= 3 {
		return fields[2]
	}
	return ""
}

func parseKernelVersion(version string) (int, int) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return 0, 0
	}
	major, _ := strconv.Atoi(parts[0])
	minorStr := parts[1]
	if idx := strings.IndexAny(minorStr, "-+~"); idx >= 0 {
		minorStr = minorStr[:idx]
	}
	minor, _ := strconv.Atoi(minorStr)
	return major, minor
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Format renders a human-readable capability summary for `trigen
// capabilities`.
func Format(c Capabilities) string {
	var sb strings.Builder
	sb.WriteString("reference-edge probe capabilities:\n")
	sb.WriteString("  kernel: " + c.KernelVersion + "\n")
	sb.WriteString("  btf_vmlinux: " + boolMark(c.BTFAvailable) + "\n")
	sb.WriteString("  core_support: " + boolMark(c.CORESupport) + "\n")
	sb.WriteString("  can_probe: " + boolMark(c.CanProbe()) + "\n")
	return sb.String()
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
