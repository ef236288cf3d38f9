package milp

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// Backend selects the solver implementation.
type Backend int

const (
	// BackendBranchAndBound is depth-first branch-and-bound over gonum's simplex.
	BackendBranchAndBound Backend = iota
)

func (b Backend) String() string {
	switch b {
	case BackendBranchAndBound:
		return "bnb"
	default:
		return "unknown"
	}
}

// ParseBackend parses a backend name.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bnb", "branch-and-bound", "gonum", "":
		return BackendBranchAndBound, nil
	default:
		return 0, errors.NewValidationError("solver", "unknown solver backend", name)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (b Backend) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Backend) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseBackend(value.Value)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Params configures a solver.
type Params struct {
	// Backend selects the solver implementation.
	Backend Backend `yaml:"solver"`

	// Silent suppresses solver-level logging.
	Silent bool `yaml:"silent"`

	// Threads bounds the number of concurrent subproblem solves; 0 means one per CPU.
	Threads int `yaml:"threads"`

	// Relax treats binary variables as continuous in [0, 1].
	Relax bool `yaml:"relax"`

	// TimeLimit caps the wall-clock time of each solve; 0 means no limit.
	TimeLimit time.Duration `yaml:"time_limit"`
}

// DefaultParams returns silent, unlimited branch-and-bound parameters.
func DefaultParams() Params {
	return Params{
		Backend: BackendBranchAndBound,
		Silent:  true,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Backend != BackendBranchAndBound {
		return errors.NewValidationError("solver", "unknown solver backend", int(p.Backend))
	}
	if p.Threads < 0 {
		return errors.NewValidationError("threads", "must be >= 0", p.Threads)
	}
	if p.TimeLimit < 0 {
		return errors.NewValidationError("time_limit", "must be >= 0", p.TimeLimit)
	}
	return nil
}

// LoadParams reads solver parameters from a YAML file. Missing keys keep
// their DefaultParams values.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Params{}, errors.Wrapf(err, "milp: read solver config %s", path)
	}
	return ParseParams(data)
}

// ParseParams decodes YAML solver parameters on top of DefaultParams.
func ParseParams(data []byte) (Params, error) {
	p := DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, errors.Wrap(err, "milp: decode solver config")
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
