package refprobe

import (
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
)

// Spec describes a compiled BPF object the host wants attached as a live
// edge source: a kprobe on some host-defined allocation/release symbol,
// whose events the caller translates into AddReference/RemoveReference
// calls. trigen ships no compiled object of its own — this is a host
// integration point, not a built-in tracer — mirroring the teacher's own
// ProgramSpec.ObjectFile, which likewise names a path the repository does
// not itself build.
type Spec struct {
	Name       string
	ObjectFile string
	AttachTo   string // kprobe target symbol
	Section    string // program section within ObjectFile
}

// Attached is a running probe; Close detaches and releases kernel
// resources.
type Attached struct {
	spec       Spec
	collection *ebpf.Collection
	link       link.Link
}

// Close detaches the kprobe and releases the loaded collection.
func (a *Attached) Close() error {
	if a.link != nil {
		a.link.Close()
	}
	if a.collection != nil {
		a.collection.Close()
	}
	return nil
}

// Probe loads and attaches Spec-described BPF objects, gated on Detect's
// capability report.
type Probe struct {
	caps Capabilities
}

// NewProbe detects capabilities once at construction.
func NewProbe() *Probe {
	return &Probe{caps: Detect()}
}

// Capabilities returns the detection snapshot this Probe was built with.
func (p *Probe) Capabilities() Capabilities { return p.caps }

// Attach loads spec.ObjectFile and attaches a kprobe at spec.AttachTo. It
// fails fast with a descriptive error when the kernel lacks BTF/CO-RE —
// callers should treat any error from Attach as "fall back to the
// conservative rooted-by-default model", never as a correctness bug.
func (p *Probe) Attach(spec Spec) (*Attached, error) {
	if !p.caps.CanProbe() {
		return nil, fmt.Errorf("refprobe: BTF/CO-RE unavailable on kernel %s", p.caps.KernelVersion)
	}

	collSpec, err := ebpf.LoadCollectionSpec(spec.ObjectFile)
	if err != nil {
		return nil, fmt.Errorf("refprobe: load spec %s: %w", spec.ObjectFile, err)
	}
	coll, err := ebpf.NewCollection(collSpec)
	if err != nil {
		return nil, fmt.Errorf("refprobe: load collection: %w", err)
	}

	prog := coll.Programs[spec.Section]
	if prog == nil {
		coll.Close()
		return nil, fmt.Errorf("refprobe: program %q not found in %s", spec.Section, spec.ObjectFile)
	}

	kp, err := link.Kprobe(spec.AttachTo, prog, nil)
	if err != nil {
		coll.Close()
		return nil, fmt.Errorf("refprobe: attach kprobe %s: %w", spec.AttachTo, err)
	}

	return &Attached{spec: spec, collection: coll, link: kp}, nil
}
