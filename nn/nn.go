// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/blocks/internal/nn"
	"github.com/born-ml/blocks/tensor"
)

// Errors. Match with errors.Is.
var (
	ErrShape             = nn.ErrShape
	ErrDuplicateName     = nn.ErrDuplicateName
	ErrEmptyComposite    = nn.ErrEmptyComposite
	ErrUnboundParameter  = nn.ErrUnboundParameter
	ErrStructureLocked   = nn.ErrStructureLocked
	ErrInvalidName       = nn.ErrInvalidName
	ErrNilModule         = nn.ErrNilModule
	ErrCycle             = nn.ErrCycle
	ErrParameterNotFound = nn.ErrParameterNotFound
	ErrChildNotFound     = nn.ErrChildNotFound
	ErrInputArity        = nn.ErrInputArity
	ErrNoActivation      = nn.ErrNoActivation
)

// ShapeError reports incompatible dimensions.
type ShapeError = nn.ShapeError

// DuplicateNameError reports a name registered twice on one module.
type DuplicateNameError = nn.DuplicateNameError

// Layers

// Linear is a fully connected layer: y = x @ W.T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// LinearConfig configures NewLinearWithConfig. InFeatures 0 means lazy.
type LinearConfig = nn.LinearConfig

// NewLinear creates a Linear layer with bias and Xavier-initialized weight.
//
// Example:
//
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLazyLinear creates a Linear layer whose input dimension is taken from
// the first input it sees.
//
// Example:
//
//	layer := nn.NewLazyLinear(10, backend)
//	y, err := layer.Forward(x) // binds the weight to [10, x.Shape().Last()]
func NewLazyLinear[B tensor.Backend](outFeatures int, backend B) *Linear[B] {
	return nn.NewLazyLinear(outFeatures, backend)
}

// NewLinearWithConfig creates a Linear layer from cfg.
func NewLinearWithConfig[B tensor.Backend](cfg LinearConfig, backend B) (*Linear[B], error) {
	return nn.NewLinearWithConfig(cfg, backend)
}

// NewLinearFrom creates a Linear layer over existing parameters, tying them.
func NewLinearFrom[B tensor.Backend](weight, bias *Parameter[B], backend B) (*Linear[B], error) {
	return nn.NewLinearFrom(weight, bias, backend)
}

// Activations

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh applies tanh(x) element-wise.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// ApplyReLU is the functional form of ReLU.
func ApplyReLU[B tensor.Backend](x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return nn.ApplyReLU(x)
}

// ApplySigmoid is the functional form of Sigmoid.
func ApplySigmoid[B tensor.Backend](x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return nn.ApplySigmoid(x)
}

// ApplyTanh is the functional form of Tanh.
func ApplyTanh[B tensor.Backend](x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return nn.ApplyTanh(x)
}

// Composites

// Sequential applies its children in order, naming them "0", "1", ...
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential from modules.
//
// Example:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Custom runs an arbitrary forward procedure over its registry.
type Custom[B tensor.Backend] = nn.Custom[B]

// ForwardFunc is the procedure of a single-input Custom module.
type ForwardFunc[B tensor.Backend] = nn.ForwardFunc[B]

// MultiForwardFunc is the procedure of a multi-input Custom module.
type MultiForwardFunc[B tensor.Backend] = nn.MultiForwardFunc[B]

// NewCustom creates a Custom module of the given kind.
func NewCustom[B tensor.Backend](kind string, fn ForwardFunc[B]) *Custom[B] {
	return nn.NewCustom(kind, fn)
}

// NewCustomMulti creates a Custom module with several inputs and outputs.
func NewCustomMulti[B tensor.Backend](kind string, fn MultiForwardFunc[B]) *Custom[B] {
	return nn.NewCustomMulti(kind, fn)
}

// Traversal

// LookupParameter resolves a dotted path such as "net.0.weight".
func LookupParameter[B tensor.Backend](m Module[B], path string) (*Parameter[B], error) {
	return nn.LookupParameter(m, path)
}

// LookupModule resolves a dotted child path; "" is m itself.
func LookupModule[B tensor.Backend](m Module[B], path string) (Module[B], error) {
	return nn.LookupModule(m, path)
}

// ParameterPaths returns every path reaching each distinct parameter.
func ParameterPaths[B tensor.Backend](m Module[B]) map[*Parameter[B]][]string {
	return nn.ParameterPaths(m)
}

// NamedModules returns m and every distinct descendant with its path.
func NamedModules[B tensor.Backend](m Module[B]) []NamedModule[B] {
	return nn.NamedModules(m)
}

// Apply calls fn on every distinct module, children before parents.
func Apply[B tensor.Backend](m Module[B], fn func(path string, m Module[B]) error) error {
	return nn.Apply(m, fn)
}

// ZeroGrad clears the gradient of every parameter of m.
func ZeroGrad[B tensor.Backend](m Module[B]) {
	nn.ZeroGrad(m)
}

// AccumulateGrads adds backward results to the gradient slot of every
// trainable parameter of m, once per distinct parameter.
func AccumulateGrads[B tensor.Backend](m Module[B], grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	return nn.AccumulateGrads(m, grads)
}

// Freeze stops gradient accumulation for every parameter of m.
func Freeze[B tensor.Backend](m Module[B]) {
	nn.Freeze(m)
}

// Unfreeze resumes gradient accumulation for every parameter of m.
func Unfreeze[B tensor.Backend](m Module[B]) {
	nn.Unfreeze(m)
}

// Initialization

// Initializer overwrites a parameter's storage in place.
type Initializer = nn.Initializer

// InitConstant fills with v.
func InitConstant(v float64) Initializer { return nn.InitConstant(v) }

// InitZeros fills with zeros.
func InitZeros() Initializer { return nn.InitZeros() }

// InitNormal samples from N(mean, std²).
func InitNormal(mean, std float64) Initializer { return nn.InitNormal(mean, std) }

// InitXavier samples from the Glorot uniform distribution.
func InitXavier() Initializer { return nn.InitXavier() }

// InitParameters applies init to every distinct parameter whose canonical
// name passes filter (nil selects all).
func InitParameters[B tensor.Backend](m Module[B], init Initializer, filter func(name string) bool) error {
	return nn.InitParameters(m, init, filter)
}

// Xavier returns a Glorot-uniform tensor of the given shape.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Summary

// Summary lists the parameters of a module with totals.
type Summary = nn.Summary

// ParameterInfo describes one distinct parameter.
type ParameterInfo = nn.ParameterInfo

// Summarize inspects every distinct parameter of m.
func Summarize[B tensor.Backend](m Module[B]) Summary {
	return nn.Summarize(m)
}
