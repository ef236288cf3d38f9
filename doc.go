// Package relumip encodes trained feed-forward ReLU networks as mixed-integer
// linear programs, so that a network can be embedded in an optimization model
// and queried exactly over a box of inputs.
//
// Every hidden neuron y = max(0, w·x + b) becomes a pair of non-negative
// variables x and s, a binary z and two big-M rows whose constants come from
// pre-activation bounds. The tighter those bounds, the stronger the encoding.
//
// # Features
//
//   - Three bound modes: interval propagation (fast), per-neuron MILP
//     tightening (standard) and output-range back-tightening (output)
//   - Exact forward evaluation through the encoded model
//   - Output optimization over the input box
//   - Sampled verification against the direct forward pass
//   - Dead-neuron compression from propagated bounds
//   - Parallel tightening within a layer
//
// # Installation
//
//	go get github.com/YuminosukeSato/relumip
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/relumip/core/network"
//	    "github.com/YuminosukeSato/relumip/formulation"
//	)
//
//	func main() {
//	    net, err := network.Load("model.json")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    f, err := formulation.Encode(context.Background(), net,
//	        []float64{1, 1}, []float64{-1, -1},
//	        formulation.WithMode(formulation.ModeStandard),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    out, err := f.Evaluate(context.Background(), []float64{0.5, 0.25})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("output:", out)
//	}
//
// # Packages
//
//   - core/network: Network type, forward pass, JSON/YAML weights, compression
//   - core/parallel: Worker fan-out used by layer tightening
//   - milp: Model builder, LP relaxation and branch-and-bound solver
//   - bounds: Bound tables, interval propagation and MILP tightening
//   - formulation: Big-M encoding, Evaluate, Optimize and Verify
//   - metrics: Error metrics and verification reports
//   - pkg/errors, pkg/log: Error types and structured logging
//
// The relumip command in cmd/relumip exposes the same operations from the
// shell.
package relumip
