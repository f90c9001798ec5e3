// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Backend wraps any tensor backend and records the operations executed
// through it on a gradient tape. Backward replays the tape in reverse and
// returns gradients keyed by the storage of every input that contributed to
// the result. Storage reached along several paths, such as a parameter
// tied between layers, receives the sum of its contributions.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewLinear(3, 1, backend)
//
//	backend.Tape().StartRecording()
//	y, _ := model.Forward(x)
//	grads := autodiff.Backward(y.Sum(), backend)
//	_ = nn.AccumulateGrads(model, grads)
package autodiff

import (
	"github.com/born-ml/blocks/internal/autodiff"
	"github.com/born-ml/blocks/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates an autodiff backend wrapping backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is implemented by backends that own a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of t with respect to everything recorded on
// the backend's tape. The tape stops recording.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
