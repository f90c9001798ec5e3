// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/blocks/internal/backend/cpu"
	"github.com/born-ml/blocks/internal/parallel"
	"github.com/born-ml/blocks/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how MatMul splits rows across goroutines.
type ParallelConfig = parallel.Config

// Compile-time checks.
var (
	_ tensor.Backend           = (*Backend)(nil)
	_ tensor.ActivationBackend = (*Backend)(nil)
)

// New creates a CPU backend with the default parallel configuration.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns the configuration New uses.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialConfig returns a configuration that never spawns goroutines.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}
