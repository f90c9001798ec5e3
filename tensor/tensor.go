// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"golang.org/x/exp/rand"

	"github.com/born-ml/blocks/internal/tensor"
)

// DType is a constraint for tensor element types: float32, float64, bool.
type DType = tensor.DType

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Bool    DataType = tensor.Bool
)

// Device represents where tensor data resides.
type Device = tensor.Device

// CPU is the host device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
// Shape{2, 3, 4} is a 3D tensor of 2×3×4 elements.
type Shape = tensor.Shape

// RawTensor is the untyped, low-level tensor representation.
//
// Gradients are keyed on *RawTensor identity, so storage shared by several
// parameters receives one combined gradient.
//
// Most users work with Tensor[T, B] instead.
type RawTensor = tensor.RawTensor

// Backend is implemented by compute backends.
//
// Backends panic on contract violations such as incompatible shapes.
// Modules validate shapes before calling and return typed errors.
type Backend = tensor.Backend

// ActivationBackend is implemented by backends that provide ReLU, Tanh and
// Sigmoid.
type ActivationBackend = tensor.ActivationBackend

// Tensor is a generic type-safe tensor.
//
// T is the element type, B the backend that executes operations.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := x.AddScalar(1).MulScalar(2)
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// NewRaw allocates zeroed storage.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// New wraps raw storage in a typed tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
//
// Example:
//
//	x := tensor.Full[float32](tensor.Shape{2, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor of samples from N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Rand creates a tensor of samples from U[0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// Seed reseeds the generator behind Randn, Rand and parameter
// initialization.
func Seed(seed uint64) {
	tensor.Seed(seed)
}

// WithRNG runs fn with exclusive access to the shared generator.
func WithRNG(fn func(r *rand.Rand)) {
	tensor.WithRNG(fn)
}

// BroadcastShapes returns the shape two operands broadcast to.
func BroadcastShapes(a, b Shape) (Shape, error) {
	return tensor.BroadcastShapes(a, b)
}
