// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// The backend implements:
//   - Float32 and Float64 arithmetic
//   - NumPy-compatible broadcasting for element-wise operations
//   - Row-parallel matrix multiplication
//   - ReLU, Tanh and Sigmoid activations
//
// # Basic Usage
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	model := nn.NewLinear(3, 10, backend)
//	y, err := model.Forward(x)
//
// # Thread Safety
//
// The backend holds no mutable state and is safe for concurrent use.
package cpu
