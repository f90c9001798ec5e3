package nn

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/blocks/internal/autodiff"
	"github.com/born-ml/blocks/internal/backend/cpu"
	"github.com/born-ml/blocks/internal/tensor"
)

type cpuB = *cpu.CPUBackend

type adB = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func fromSlice[B tensor.Backend](t *testing.T, backend B, data []float32, shape ...int) *tensor.Tensor[float32, B] {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape(shape), backend)
	require.NoError(t, err)
	return x
}

func names[B tensor.Backend](params []NamedParameter[B]) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func TestSequential_ExampleComposite(t *testing.T) {
	tensor.Seed(1)
	backend := cpu.New()
	net := NewSequential[cpuB](
		NewLazyLinear(256, backend),
		NewReLU[cpuB](),
		NewLazyLinear(10, backend),
	)

	x := tensor.Rand[float32](tensor.Shape{2, 20}, backend)
	out, err := net.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 10}, out.Shape())

	params := net.NamedParameters()
	assert.Equal(t, []string{"0.weight", "0.bias", "2.weight", "2.bias"}, names(params))
	assert.Equal(t, tensor.Shape{256, 20}, params[0].Parameter.Shape())
	assert.Equal(t, tensor.Shape{10, 256}, params[2].Parameter.Shape())
}

func TestSequential_ComposesLeftToRight(t *testing.T) {
	tensor.Seed(2)
	backend := cpu.New()
	l1 := NewLinear(3, 4, backend)
	act := NewTanh[cpuB]()
	l2 := NewLinear(4, 2, backend)
	net := NewSequential[cpuB](l1, act, l2)

	x := tensor.Randn[float32](tensor.Shape{5, 3}, backend)
	got, err := net.Forward(x)
	require.NoError(t, err)

	h, err := l1.Forward(x)
	require.NoError(t, err)
	h, err = act.Forward(h)
	require.NoError(t, err)
	want, err := l2.Forward(h)
	require.NoError(t, err)

	assert.Equal(t, want.Shape(), got.Shape())
	assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-6)
}

func TestSequential_NamedParametersConcatenateChildren(t *testing.T) {
	backend := cpu.New()
	inner := NewSequential[cpuB](NewLinear(2, 3, backend), NewSigmoid[cpuB](), NewLinear(3, 1, backend))
	net := NewSequential[cpuB]()
	require.NoError(t, net.AddNamed("block", inner))
	require.NoError(t, net.Add(NewLinear(1, 1, backend)))

	var want []string
	for _, c := range net.NamedChildren() {
		for _, p := range c.Module.NamedParameters() {
			want = append(want, c.Name+"."+p.Name)
		}
	}
	assert.Equal(t, want, names(net.NamedParameters()))
	assert.Equal(t, []string{
		"block.0.weight", "block.0.bias", "block.2.weight", "block.2.bias",
		"1.weight", "1.bias",
	}, want)
	assert.Len(t, net.Parameters(), 6)
}

func TestSequential_Empty(t *testing.T) {
	backend := cpu.New()
	net := NewSequential[cpuB]()
	_, err := net.Forward(fromSlice(t, backend, []float32{1}, 1))
	assert.ErrorIs(t, err, ErrEmptyComposite)
	assert.Equal(t, 0, net.Len())
}

func TestSequential_NamingAndIndexing(t *testing.T) {
	backend := cpu.New()
	net := NewSequential[cpuB]()
	proj := NewLinear(2, 2, backend)
	require.NoError(t, net.AddNamed("proj", proj))
	require.NoError(t, net.Add(NewReLU[cpuB]()))

	children := net.NamedChildren()
	require.Len(t, children, 2)
	assert.Equal(t, "proj", children[0].Name)
	assert.Equal(t, "1", children[1].Name)

	got, ok := net.Child("proj")
	require.True(t, ok)
	assert.Same(t, proj, got)
	assert.Same(t, proj, net.Module(0))
	assert.Panics(t, func() { net.Module(2) })

	err := net.AddNamed("proj", NewReLU[cpuB]())
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, KindChild, dup.Kind)
	assert.Equal(t, "proj", dup.Name)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, 2, net.Len())
}

func TestSequential_WrapsChildError(t *testing.T) {
	backend := cpu.New()
	net := NewSequential[cpuB](NewReLU[cpuB](), NewLinear(3, 2, backend))

	_, err := net.Forward(fromSlice(t, backend, make([]float32, 8), 2, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShape)

	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int{2, 4}, shapeErr.Got)
	assert.Contains(t, err.Error(), "Sequential[1]")
}

func TestRegistration(t *testing.T) {
	backend := cpu.New()
	m := NewCustom[cpuB]("Block", func(m *Custom[cpuB], x *cpuTensor) (*cpuTensor, error) { return x, nil })
	w := NewParameter("w", tensor.Zeros[float32](tensor.Shape{2}, backend))

	require.NoError(t, m.RegisterParameter("w", w))
	require.NoError(t, m.RegisterParameter("v", w))
	require.NoError(t, m.RegisterChild("w", NewReLU[cpuB]()), "children have their own namespace")

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"duplicate parameter", m.RegisterParameter("w", w), ErrDuplicateName},
		{"duplicate child", m.RegisterChild("w", NewTanh[cpuB]()), ErrDuplicateName},
		{"constant shares parameter namespace", m.RegisterConstant("v", w.Tensor()), ErrDuplicateName},
		{"empty name", m.RegisterParameter("", w), ErrInvalidName},
		{"dotted name", m.RegisterChild("a.b", NewReLU[cpuB]()), ErrInvalidName},
		{"nil child", m.RegisterChild("nil", nil), ErrNilModule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.wantErr)
		})
	}

	var dup *DuplicateNameError
	require.ErrorAs(t, m.RegisterParameter("w", w), &dup)
	assert.Equal(t, KindParameter, dup.Kind)
	assert.Equal(t, "Block", dup.Module)

	require.NoError(t, m.RegisterConstant("c", w.Tensor()))
	c, ok := m.Constant("c")
	require.True(t, ok)
	assert.Same(t, w.Tensor(), c)

	// Registered twice under two names, enumerated once.
	assert.Equal(t, []string{"w"}, names(m.NamedParameters()))
	assert.Len(t, m.LocalParameters(), 2)
}

func TestRegisterChild_RejectsCycles(t *testing.T) {
	backend := cpu.New()
	identity := func(m *Custom[cpuB], x *cpuTensor) (*cpuTensor, error) { return x, nil }

	inner := NewCustom[cpuB]("Inner", identity)
	mid := NewSequential[cpuB](inner, NewReLU[cpuB]())
	outer := NewSequential[cpuB](mid)
	leaf := NewLinear(2, 2, backend)

	tests := []struct {
		name   string
		parent interface {
			RegisterChild(string, Module[cpuB]) error
		}
		child Module[cpuB]
	}{
		{"self", inner, inner},
		{"direct parent", inner, mid},
		{"ancestor", inner, outer},
		{"leaf into itself", leaf, leaf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.parent.RegisterChild("loop", tt.child), ErrCycle)
		})
	}

	// Nothing was added, so the tree is still walkable.
	assert.Len(t, NamedModules[cpuB](outer), 4)
	_, ok := inner.Child("loop")
	assert.False(t, ok)

	// Sharing a module in two branches is not a cycle.
	require.NoError(t, inner.RegisterChild("leaf", leaf))
	require.NoError(t, mid.RegisterChild("leaf", leaf))
	assert.Len(t, NamedModules[cpuB](outer), 5)
}

func TestCall(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, backend, []float32{1, 2}, 2)
	b := fromSlice(t, backend, []float32{3, 5}, 2)

	sumDiff := NewCustomMulti[cpuB]("SumDiff", func(_ *Custom[cpuB], xs []*tensor.Tensor[float32, cpuB]) ([]*tensor.Tensor[float32, cpuB], error) {
		if len(xs) != 2 {
			return nil, errors.Wrapf(ErrInputArity, "SumDiff takes 2 inputs, got %d", len(xs))
		}
		return []*tensor.Tensor[float32, cpuB]{xs[0].Add(xs[1]), xs[0].Sub(xs[1])}, nil
	})

	outs, err := Call[cpuB](sumDiff, a, b)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, []float32{4, 7}, outs[0].Data())
	assert.Equal(t, []float32{-2, -3}, outs[1].Data())

	_, err = sumDiff.Forward(a)
	assert.ErrorIs(t, err, ErrInputArity)

	relu := NewReLU[cpuB]()
	outs, err = Call[cpuB](relu, fromSlice(t, backend, []float32{-1, 1}, 2))
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, outs[0].Data())

	_, err = Call[cpuB](relu, a, b)
	assert.ErrorIs(t, err, ErrInputArity)
}

type plainBackend struct {
	tensor.Backend
}

func TestActivations(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{-2, 0, 2}, 3)

	out, err := NewReLU[cpuB]().Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 2}, out.Data())

	out, err = NewSigmoid[cpuB]().Forward(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Data()[1], 1e-6)

	out, err = NewTanh[cpuB]().Forward(x)
	require.NoError(t, err)
	assert.InDelta(t, -0.9640276, out.Data()[0], 1e-6)

	assert.Empty(t, NewReLU[cpuB]().NamedParameters())

	plain := plainBackend{Backend: backend}
	px := fromSlice(t, plain, []float32{1}, 1)
	_, err = NewReLU[plainBackend]().Forward(px)
	assert.ErrorIs(t, err, ErrNoActivation)
}
