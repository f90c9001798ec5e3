// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides composable neural network modules.
//
// # Overview
//
// This package contains:
//   - Module: the contract every component satisfies
//   - Leaves: Linear (optionally lazy), ReLU, Sigmoid, Tanh
//   - Composites: Sequential, Custom
//   - Parameter management: enumeration, lookup, tying, freezing, initialization
//   - Persistence: Save and Load of canonical-name state
//
// # Basic Usage
//
//	backend := cpu.New()
//	model := nn.NewSequential[*cpu.Backend](
//	    nn.NewLazyLinear(256, backend),
//	    nn.NewReLU[*cpu.Backend](),
//	    nn.NewLazyLinear(10, backend),
//	)
//	out, err := model.Forward(x) // [2, 20] -> [2, 10]
//
// # Naming
//
// Every parameter has a dot-joined path from the root: "0.weight",
// "net.2.bias". Sequential names its children by position.
//
//	for _, p := range model.NamedParameters() {
//	    fmt.Println(p.Name, p.Parameter.Shape())
//	}
//
// # Custom Modules
//
// Custom runs an arbitrary procedure over registered children, parameters
// and constants:
//
//	m := nn.NewCustom("Scaled", func(m *nn.Custom[B], x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
//	    return m.CallChild("linear", x.MulScalar(2))
//	})
//	_ = m.RegisterChild("linear", nn.NewLinear(20, 20, backend))
//
// # Tying
//
// Registering one module or one Parameter at several sites shares its
// storage. Enumeration lists it once and its gradient is the sum over
// every use.
//
//	shared := nn.NewLinear(8, 8, backend)
//	net := nn.NewSequential[B](shared, nn.NewReLU[B](), shared)
//
// # Persistence
//
//	err := nn.Save("model.blk", model, nil)
//	header, err := nn.Load("model.blk", model, backend, true)
package nn
