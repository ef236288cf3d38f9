// Package log defines standard attribute keys for formulation and solver logs.
//
// Keys follow a hierarchical naming convention ("milp.layer", "bounds.upper")
// so that log output can be filtered per subsystem.

package log

// Operation context.
const (
	// ComponentKey identifies which package is logging.
	// Examples: "formulation", "bounds", "milp"
	ComponentKey = "component"

	// OperationKey names the operation being performed.
	OperationKey = "operation"

	// ModeKey records the bound tightening mode ("fast", "standard", "output").
	ModeKey = "milp.mode"
)

// Model shape.
const (
	// LayerKey is the 1-based network layer index.
	LayerKey = "milp.layer"

	// NeuronKey is the 0-based neuron index inside a layer.
	NeuronKey = "milp.neuron"

	// NeuronsKey is the number of neurons in a layer.
	NeuronsKey = "milp.neurons"

	// LayersKey is the number of layers in the network.
	LayersKey = "milp.layers"

	// VarsKey is the number of variables in a constraint model.
	VarsKey = "milp.vars"

	// BinariesKey is the number of binary variables in a constraint model.
	BinariesKey = "milp.binaries"

	// ConstraintsKey is the number of live constraints in a constraint model.
	ConstraintsKey = "milp.constraints"
)

// Solver results.
const (
	// StatusKey is the solver termination status.
	StatusKey = "solver.status"

	// ObjectiveKey is the objective value reported by the solver.
	ObjectiveKey = "solver.objective"

	// NodesKey is the number of branch-and-bound nodes explored.
	NodesKey = "solver.nodes"

	// WorkersKey is the number of concurrent tightening workers.
	WorkersKey = "solver.workers"
)

// Bounds.
const (
	// UpperKey is an upper bound on a pre-activation value.
	UpperKey = "bounds.upper"

	// LowerKey is a lower bound on a pre-activation value.
	LowerKey = "bounds.lower"

	// ImprovedKey counts neurons whose bounds were tightened.
	ImprovedKey = "bounds.improved"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// CauseKey carries the message of an error that was absorbed rather than returned.
	CauseKey = "error.cause"
)

// Verification.
const (
	// SamplesKey is the number of inputs drawn for verification.
	SamplesKey = "verify.samples"

	// InfeasibleKey counts sampled inputs the encoded model rejected.
	InfeasibleKey = "verify.infeasible"

	// MaxAbsErrorKey is the largest deviation from the direct forward pass.
	MaxAbsErrorKey = "verify.max_abs_error"
)

// Standard operation names.
const (
	OperationEncode   = "encode"
	OperationEvaluate = "evaluate"
	OperationOptimize = "optimize"
	OperationTighten  = "tighten"
	OperationSolve    = "solve"
)
