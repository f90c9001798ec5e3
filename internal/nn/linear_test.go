package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/blocks/internal/backend/cpu"
	"github.com/born-ml/blocks/internal/tensor"
)

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	l := NewLinear(2, 3, backend)
	copy(l.Weight().Tensor().Data(), []float32{
		1, 0,
		0, 1,
		1, 1,
	})
	copy(l.Bias().Tensor().Data(), []float32{0.5, -0.5, 0})

	out, err := l.Forward(fromSlice(t, backend, []float32{1, 2, 3, 4}, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{1.5, 1.5, 3, 3.5, 3.5, 7}, out.Data())

	assert.Equal(t, []string{"weight", "bias"}, names(l.NamedParameters()))
	assert.Equal(t, 2, l.InFeatures())
	assert.Equal(t, 3, l.OutFeatures())
	assert.False(t, l.IsLazy())
}

func TestLinear_LeadingDimensions(t *testing.T) {
	tensor.Seed(3)
	backend := cpu.New()
	l := NewLinear(4, 5, backend)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 4}, backend)
	out, err := l.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 5}, out.Shape())

	flat, err := l.Forward(x.Reshape(6, 4))
	require.NoError(t, err)
	assert.InDeltaSlice(t, flat.Data(), out.Data(), 1e-6)

	vec, err := l.Forward(fromSlice(t, backend, x.Data()[:4], 4))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5}, vec.Shape())
	assert.InDeltaSlice(t, flat.Data()[:5], vec.Data(), 1e-6)
}

func TestLinear_LazyBinding(t *testing.T) {
	tensor.Seed(4)
	backend := cpu.New()
	l := NewLazyLinear(3, backend)

	assert.True(t, l.IsLazy())
	assert.Equal(t, 0, l.InFeatures())
	assert.Equal(t, tensor.Shape{3, -1}, l.Weight().Shape())
	_, err := l.Weight().Value()
	assert.ErrorIs(t, err, ErrUnboundParameter)

	x := tensor.Randn[float32](tensor.Shape{2, 4}, backend)
	first, err := l.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, first.Shape())
	assert.Equal(t, tensor.Shape{3, 4}, l.Weight().Shape())
	assert.Equal(t, 4, l.InFeatures())

	second, err := l.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, first.Shape(), second.Shape())
	assert.Equal(t, first.Data(), second.Data())

	_, err = l.Forward(tensor.Randn[float32](tensor.Shape{2, 5}, backend))
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "Linear", shapeErr.Module)
	assert.Equal(t, "[... 4]", shapeErr.Expected)
	assert.Equal(t, tensor.Shape{3, 4}, l.Weight().Shape(), "binding is fixed after the first call")
}

func TestLinear_RankZeroInput(t *testing.T) {
	backend := cpu.New()
	for _, l := range []*Linear[cpuB]{NewLinear(1, 2, backend), NewLazyLinear(2, backend)} {
		_, err := l.Forward(fromSlice(t, backend, []float32{1}))
		assert.ErrorIs(t, err, ErrShape)
	}
}

func TestLinear_Config(t *testing.T) {
	backend := cpu.New()

	l, err := NewLinearWithConfig(LinearConfig{InFeatures: 3, OutFeatures: 2}, backend)
	require.NoError(t, err)
	assert.Nil(t, l.Bias())
	assert.Equal(t, []string{"weight"}, names(l.NamedParameters()))

	out, err := l.Forward(fromSlice(t, backend, []float32{0, 0, 0}, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, out.Data())

	_, err = NewLinearWithConfig(LinearConfig{InFeatures: 3}, backend)
	assert.Error(t, err)
	_, err = NewLinearWithConfig(LinearConfig{InFeatures: -1, OutFeatures: 2}, backend)
	assert.Error(t, err)

	assert.Panics(t, func() { NewLinear(0, 2, backend) })
	assert.Panics(t, func() { NewLazyLinear(0, backend) })
}

func TestNewLinearFrom_Validation(t *testing.T) {
	backend := cpu.New()
	w := NewParameter("weight", tensor.Zeros[float32](tensor.Shape{2, 3}, backend))

	_, err := NewLinearFrom(w, NewParameter("bias", tensor.Zeros[float32](tensor.Shape{3}, backend)), backend)
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewLinearFrom(NewParameter("weight", tensor.Zeros[float32](tensor.Shape{6}, backend)), nil, backend)
	assert.ErrorIs(t, err, ErrShape)

	l, err := NewLinearFrom(w, nil, backend)
	require.NoError(t, err)
	assert.Same(t, w, l.Weight())
}

func TestParameter_Bind(t *testing.T) {
	backend := cpu.New()
	p := NewUnboundParameter[cpuB]("weight", tensor.Shape{3, -1})
	assert.False(t, p.IsBound())
	assert.Nil(t, p.Tensor())
	assert.Equal(t, 0, p.NumElements())

	err := p.Bind(tensor.Zeros[float32](tensor.Shape{4, 2}, backend))
	assert.ErrorIs(t, err, ErrShape)
	assert.False(t, p.IsBound())

	require.NoError(t, p.Bind(tensor.Zeros[float32](tensor.Shape{3, 2}, backend)))
	assert.True(t, p.IsBound())
	assert.Equal(t, 6, p.NumElements())
	assert.Error(t, p.Bind(tensor.Zeros[float32](tensor.Shape{3, 2}, backend)))
}

func TestParameter_AccumulateGrad(t *testing.T) {
	backend := cpu.New()
	p := NewParameter("w", tensor.Zeros[float32](tensor.Shape{2}, backend))
	g := fromSlice(t, backend, []float32{1, 2}, 2).Raw()

	require.NoError(t, p.AccumulateGrad(g))
	require.NoError(t, p.AccumulateGrad(g))
	assert.Equal(t, []float32{2, 4}, p.Grad().Data())
	assert.Equal(t, []float32{1, 2}, g.AsFloat32(), "source gradient is not modified")

	err := p.AccumulateGrad(fromSlice(t, backend, []float32{1, 2, 3}, 3).Raw())
	assert.ErrorIs(t, err, ErrShape)

	p.ZeroGrad()
	assert.Nil(t, p.Grad())

	unbound := NewUnboundParameter[cpuB]("u", tensor.Shape{-1})
	assert.ErrorIs(t, unbound.AccumulateGrad(g), ErrUnboundParameter)
}
