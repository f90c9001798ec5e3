package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// Parameter is a named tensor value with a gradient slot.
//
// Parameters are shared by pointer: registering the same *Parameter at
// several sites ties them, so a value written through one site is read
// through all of them and gradients from every use are summed into the
// single slot.
//
// A parameter may be unbound: its value is materialized later (lazy shape
// inference or loading state) and until then only its shape hint, with -1
// for unknown dimensions, is known.
//
// Example:
//
//	w := nn.NewParameter("weight", weightTensor)
//	shared := nn.NewLinearFrom(w, nil) // reuse w elsewhere
//	w.Tensor().Set(1, 0, 0)            // visible through every site
type Parameter[B tensor.Backend] struct {
	name         string
	tensor       *tensor.Tensor[float32, B] // nil while unbound
	hint         tensor.Shape
	grad         *tensor.Tensor[float32, B]
	requiresGrad bool
}

// NewParameter creates a bound trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:         name,
		tensor:       t,
		hint:         t.Shape().Clone(),
		requiresGrad: true,
	}
}

// NewUnboundParameter creates a parameter whose value is bound later.
// Dimensions of hint that are not yet known are -1.
func NewUnboundParameter[B tensor.Backend](name string, hint tensor.Shape) *Parameter[B] {
	return &Parameter[B]{
		name:         name,
		hint:         hint.Clone(),
		requiresGrad: true,
	}
}

// Name returns the parameter's own name (not the registry path).
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the value, or nil while unbound.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Value returns the value or ErrUnboundParameter.
func (p *Parameter[B]) Value() (*tensor.Tensor[float32, B], error) {
	if p.tensor == nil {
		return nil, errors.Wrapf(ErrUnboundParameter, "parameter %q (shape %s)", p.name, formatShape(p.hint))
	}
	return p.tensor, nil
}

// IsBound reports whether the value has been materialized.
func (p *Parameter[B]) IsBound() bool {
	return p.tensor != nil
}

// Shape returns the value's shape, or the hint while unbound.
func (p *Parameter[B]) Shape() tensor.Shape {
	if p.tensor != nil {
		return p.tensor.Shape()
	}
	return p.hint.Clone()
}

// Bind materializes an unbound parameter.
//
// t must agree with every known dimension of the hint; otherwise a
// *ShapeError is returned and the parameter stays unbound.
func (p *Parameter[B]) Bind(t *tensor.Tensor[float32, B]) error {
	if err := p.CheckBind(t.Shape()); err != nil {
		return err
	}
	p.tensor = t
	p.hint = t.Shape().Clone()
	return nil
}

// CheckBind reports whether Bind would accept a value of the given shape,
// without binding anything.
func (p *Parameter[B]) CheckBind(shape tensor.Shape) error {
	if p.tensor != nil {
		return errors.Errorf("parameter %q is already bound", p.name)
	}
	if !matchesHint(p.hint, shape) {
		return &ShapeError{Module: p.name, What: "bind", Expected: formatShape(p.hint), Got: shape}
	}
	return nil
}

// Grad returns the accumulated gradient, or nil if none.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad replaces the gradient.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// AccumulateGrad adds g onto the gradient slot. The first call copies g.
// The addition is done in place on host memory so it never reaches a
// gradient tape.
func (p *Parameter[B]) AccumulateGrad(g *tensor.RawTensor) error {
	if p.tensor == nil {
		return errors.Wrapf(ErrUnboundParameter, "accumulate gradient for %q", p.name)
	}
	if !g.Shape().Equal(p.tensor.Shape()) {
		return &ShapeError{Module: p.name, What: "gradient", Expected: formatShape(p.tensor.Shape()), Got: g.Shape()}
	}
	if p.grad == nil {
		p.grad = tensor.New[float32](g.Clone(), p.tensor.Backend())
		return nil
	}
	dst := p.grad.Data()
	for i, v := range g.AsFloat32() {
		dst[i] += v
	}
	return nil
}

// ZeroGrad clears the gradient slot.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// RequiresGrad reports whether gradients are accumulated for p.
func (p *Parameter[B]) RequiresGrad() bool {
	return p.requiresGrad
}

// SetRequiresGrad freezes (false) or unfreezes (true) p.
func (p *Parameter[B]) SetRequiresGrad(requires bool) {
	p.requiresGrad = requires
}

// NumElements returns the element count, or 0 while unbound.
func (p *Parameter[B]) NumElements() int {
	if p.tensor == nil {
		return 0
	}
	return p.tensor.NumElements()
}

func matchesHint(hint, shape tensor.Shape) bool {
	if len(hint) != len(shape) {
		return false
	}
	for i, d := range hint {
		if d >= 0 && d != shape[i] {
			return false
		}
	}
	return true
}
