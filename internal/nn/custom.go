package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// ForwardFunc is the procedure run by a Custom module. It receives the
// module so it can reach its children, parameters and constants by name.
type ForwardFunc[B tensor.Backend] func(m *Custom[B], x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

// MultiForwardFunc is the several-in, several-out form of ForwardFunc.
type MultiForwardFunc[B tensor.Backend] func(m *Custom[B], xs []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error)

// Custom is a module whose Forward is an arbitrary procedure over its own
// parameters, children and constants, including data-dependent control flow.
//
// Register everything before the first call; the structure is locked while
// the procedure runs.
//
//	mlp := nn.NewCustom("FixedHiddenMLP", func(m *nn.Custom[B], x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
//	    x, err := m.CallChild("linear", x)
//	    if err != nil {
//	        return nil, err
//	    }
//	    for x.Abs().Sum().Item() > 1 {
//	        x = x.DivScalar(2)
//	    }
//	    return x.Sum(), nil
//	})
//	_ = mlp.RegisterChild("linear", nn.NewLinear(20, 20, backend))
type Custom[B tensor.Backend] struct {
	Base[B]
	fn      ForwardFunc[B]
	multiFn MultiForwardFunc[B]
}

// NewCustom creates a single-input Custom module of the given kind.
//
// Panics if fn is nil.
func NewCustom[B tensor.Backend](kind string, fn ForwardFunc[B]) *Custom[B] {
	if fn == nil {
		panic("NewCustom: nil forward function")
	}
	return &Custom[B]{Base: NewBase[B](kind), fn: fn}
}

// NewCustomMulti creates a Custom module mapping several inputs to several
// outputs.
//
// Panics if fn is nil.
func NewCustomMulti[B tensor.Backend](kind string, fn MultiForwardFunc[B]) *Custom[B] {
	if fn == nil {
		panic("NewCustomMulti: nil forward function")
	}
	return &Custom[B]{Base: NewBase[B](kind), multiFn: fn}
}

// Forward runs the procedure on one input.
func (c *Custom[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	defer c.Lock()()
	if c.fn != nil {
		return c.fn(c, input)
	}
	outs, err := c.multiFn(c, []*tensor.Tensor[float32, B]{input})
	if err != nil {
		return nil, err
	}
	if len(outs) != 1 {
		return nil, errors.Wrapf(ErrInputArity, "%s: Forward expects 1 output, got %d", c.Kind(), len(outs))
	}
	return outs[0], nil
}

// ForwardMulti runs the procedure on several inputs.
func (c *Custom[B]) ForwardMulti(inputs []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error) {
	if c.multiFn == nil {
		if len(inputs) != 1 {
			return nil, errors.Wrapf(ErrInputArity, "%s takes 1 input, got %d", c.Kind(), len(inputs))
		}
		out, err := c.Forward(inputs[0])
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor[float32, B]{out}, nil
	}
	defer c.Lock()()
	return c.multiFn(c, inputs)
}
