package nn

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// Sequential is a composite that chains its children.
//
// Each child's output becomes the next child's input. Children added
// without a name are named by their position ("0", "1", ...), so their
// parameters enumerate as "0.weight", "2.bias" and so on.
//
// Example:
//
//	model := nn.NewSequential[B](
//	    nn.NewLazyLinear(256, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLazyLinear(10, backend),
//	)
//
//	output, err := model.Forward(input)
//
// This is equivalent to:
//
//	h1, _ := linear1.Forward(input)
//	h2, _ := relu.Forward(h1)
//	output, _ := linear2.Forward(h2)
//
// Forward on a Sequential without children fails with ErrEmptyComposite.
type Sequential[B tensor.Backend] struct {
	Base[B]
}

// NewSequential creates a Sequential from modules, named by position.
//
// Panics if a module is nil.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	s := &Sequential[B]{Base: NewBase[B]("Sequential")}
	for _, m := range modules {
		if err := s.Add(m); err != nil {
			panic(err)
		}
	}
	return s
}

// Add appends a module named by its position.
//
//	model := nn.NewSequential[B]()
//	_ = model.Add(nn.NewLinear(784, 128, backend))
//	_ = model.Add(nn.NewReLU[B]())
func (s *Sequential[B]) Add(m Module[B]) error {
	return s.RegisterChild(strconv.Itoa(len(s.children)), m)
}

// AddNamed appends a module under an explicit name.
func (s *Sequential[B]) AddNamed(name string, m Module[B]) error {
	return s.RegisterChild(name, m)
}

// Forward threads input through every child in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if len(s.children) == 0 {
		return nil, ErrEmptyComposite
	}
	defer s.Lock()()

	output := input
	for _, c := range s.children {
		var err error
		output, err = c.Module.Forward(output)
		if err != nil {
			return nil, errors.Wrapf(err, "Sequential[%s]", c.Name)
		}
	}
	return output, nil
}

// Len returns the number of children.
func (s *Sequential[B]) Len() int {
	return len(s.children)
}

// Module returns the child at index.
//
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.children) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.children[index].Module
}
