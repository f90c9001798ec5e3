package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// ReLUBackend is implemented by backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends that support Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that support Tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies f(x) = max(0, x) element-wise. It has no parameters.
//
//	relu := nn.NewReLU[B]()
//	out, err := relu.Forward(x) // negative values become 0
type ReLU[B tensor.Backend] struct {
	Base[B]
}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{Base: NewBase[B]("ReLU")}
}

// Forward applies ReLU.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return ApplyReLU(input)
}

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)) element-wise.
type Sigmoid[B tensor.Backend] struct {
	Base[B]
}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{Base: NewBase[B]("Sigmoid")}
}

// Forward applies Sigmoid.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return ApplySigmoid(input)
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] struct {
	Base[B]
}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{Base: NewBase[B]("Tanh")}
}

// Forward applies Tanh.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return ApplyTanh(input)
}

// ApplyReLU is the functional form of ReLU, for use inside Custom procedures.
func ApplyReLU[B tensor.Backend](x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	backend := x.Backend()
	if rb, ok := any(backend).(ReLUBackend); ok {
		return tensor.New[float32](rb.ReLU(x.Raw()), backend), nil
	}
	return nil, errors.Wrapf(ErrNoActivation, "ReLU on %s", backend.Name())
}

// ApplySigmoid is the functional form of Sigmoid.
func ApplySigmoid[B tensor.Backend](x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	backend := x.Backend()
	if sb, ok := any(backend).(SigmoidBackend); ok {
		return tensor.New[float32](sb.Sigmoid(x.Raw()), backend), nil
	}
	return nil, errors.Wrapf(ErrNoActivation, "Sigmoid on %s", backend.Name())
}

// ApplyTanh is the functional form of Tanh.
func ApplyTanh[B tensor.Backend](x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	backend := x.Backend()
	if tb, ok := any(backend).(TanhBackend); ok {
		return tensor.New[float32](tb.Tanh(x.Raw()), backend), nil
	}
	return nil, errors.Wrapf(ErrNoActivation, "Tanh on %s", backend.Name())
}
