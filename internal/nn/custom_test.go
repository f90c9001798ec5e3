package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/blocks/internal/backend/cpu"
	"github.com/born-ml/blocks/internal/tensor"
)

type cpuTensor = tensor.Tensor[float32, cpuB]

// newFixedHiddenMLP holds a constant random weight, reuses one Linear twice
// and halves its output until the absolute sum drops to at most 1.
func newFixedHiddenMLP(t *testing.T, backend cpuB) *Custom[cpuB] {
	t.Helper()
	m := NewCustom[cpuB]("FixedHiddenMLP", func(m *Custom[cpuB], x *cpuTensor) (*cpuTensor, error) {
		randWeight, _ := m.Constant("rand_weight")
		x, err := m.CallChild("linear", x)
		if err != nil {
			return nil, err
		}
		x, err = ApplyReLU(x.MatMul(randWeight).AddScalar(1))
		if err != nil {
			return nil, err
		}
		// Same child again: its parameters are shared by both calls.
		x, err = m.CallChild("linear", x)
		if err != nil {
			return nil, err
		}
		for x.Abs().Sum().Item() > 1 {
			x = x.DivScalar(2)
		}
		return x.Sum(), nil
	})
	require.NoError(t, m.RegisterConstant("rand_weight", tensor.Rand[float32](tensor.Shape{20, 20}, backend)))
	require.NoError(t, m.RegisterChild("linear", NewLinear(20, 20, backend)))
	return m
}

func newNestMLP(t *testing.T, backend cpuB) *Custom[cpuB] {
	t.Helper()
	m := NewCustom[cpuB]("NestMLP", func(m *Custom[cpuB], x *cpuTensor) (*cpuTensor, error) {
		h, err := m.CallChild("net", x)
		if err != nil {
			return nil, err
		}
		return m.CallChild("linear", h)
	})
	require.NoError(t, m.RegisterChild("net", NewSequential[cpuB](
		NewLinear(20, 64, backend), NewReLU[cpuB](),
		NewLinear(64, 32, backend), NewReLU[cpuB](),
	)))
	require.NoError(t, m.RegisterChild("linear", NewLinear(32, 16, backend)))
	return m
}

func TestCustom_FixedHiddenMLP(t *testing.T) {
	tensor.Seed(5)
	backend := cpu.New()
	m := newFixedHiddenMLP(t, backend)
	x := tensor.Rand[float32](tensor.Shape{2, 20}, backend)

	out, err := m.Forward(x)
	require.NoError(t, err)
	assert.Empty(t, out.Shape())
	assert.LessOrEqual(t, out.Item(), float32(1))
	assert.GreaterOrEqual(t, out.Item(), float32(-1))

	again, err := m.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, out.Item(), again.Item(), "deterministic for fixed inputs and values")

	// The constant is not a parameter.
	assert.Equal(t, []string{"linear.weight", "linear.bias"}, names(m.NamedParameters()))
	_, ok := m.Constant("rand_weight")
	assert.True(t, ok)
}

func TestCustom_Chimera(t *testing.T) {
	tensor.Seed(6)
	backend := cpu.New()
	chimera := NewSequential[cpuB](
		newNestMLP(t, backend),
		NewLinear(16, 20, backend),
		newFixedHiddenMLP(t, backend),
	)

	out, err := chimera.Forward(tensor.Rand[float32](tensor.Shape{2, 20}, backend))
	require.NoError(t, err)
	assert.Empty(t, out.Shape())

	assert.Equal(t, []string{
		"0.net.0.weight", "0.net.0.bias", "0.net.2.weight", "0.net.2.bias",
		"0.linear.weight", "0.linear.bias",
		"1.weight", "1.bias",
		"2.linear.weight", "2.linear.bias",
	}, names(chimera.NamedParameters()))
}

func TestCustom_StructureLockedDuringForward(t *testing.T) {
	backend := cpu.New()
	extra := NewParameter("extra", tensor.Zeros[float32](tensor.Shape{1}, backend))
	m := NewCustom[cpuB]("Grower", func(m *Custom[cpuB], x *cpuTensor) (*cpuTensor, error) {
		if err := m.RegisterParameter("extra", extra); err != nil {
			return nil, err
		}
		return x, nil
	})

	_, err := m.Forward(fromSlice(t, backend, []float32{1}, 1))
	assert.ErrorIs(t, err, ErrStructureLocked)
	assert.False(t, m.Locked())
	assert.Empty(t, m.NamedParameters())

	require.NoError(t, m.RegisterParameter("extra", extra))
	assert.Equal(t, []string{"extra"}, names(m.NamedParameters()))
	_, err = m.Forward(fromSlice(t, backend, []float32{1}, 1))
	assert.ErrorIs(t, err, ErrStructureLocked)
}

func TestCustom_CallChildNotFound(t *testing.T) {
	backend := cpu.New()
	m := NewCustom[cpuB]("Empty", func(m *Custom[cpuB], x *cpuTensor) (*cpuTensor, error) {
		return m.CallChild("missing", x)
	})
	_, err := m.Forward(fromSlice(t, backend, []float32{1}, 1))
	assert.ErrorIs(t, err, ErrChildNotFound)
}

func TestTying_SharedParameter(t *testing.T) {
	backend := cpu.New()
	shared := NewParameter("weight", Xavier(3, 3, tensor.Shape{3, 3}, backend))
	bias := NewParameter("bias", tensor.Zeros[float32](tensor.Shape{3}, backend))

	a, err := NewLinearFrom(shared, bias, backend)
	require.NoError(t, err)
	b, err := NewLinearFrom(shared, nil, backend)
	require.NoError(t, err)
	net := NewSequential[cpuB](a, NewReLU[cpuB](), b)

	assert.Equal(t, []string{"0.weight", "0.bias"}, names(net.NamedParameters()))
	assert.Equal(t, []string{"0.weight", "2.weight"}, ParameterPaths[cpuB](net)[shared])

	viaA, err := LookupParameter[cpuB](net, "0.weight")
	require.NoError(t, err)
	viaB, err := LookupParameter[cpuB](net, "2.weight")
	require.NoError(t, err)
	assert.Same(t, viaA, viaB)

	viaA.Tensor().Set(42, 0, 0)
	assert.Equal(t, float32(42), viaB.Tensor().At(0, 0))
	assert.Equal(t, float32(42), b.Weight().Tensor().At(0, 0))
}

func TestTying_SharedModule(t *testing.T) {
	backend := cpu.New()
	shared := NewLinear(4, 4, backend)
	net := NewSequential[cpuB](shared, NewReLU[cpuB](), shared)

	assert.Equal(t, []string{"0.weight", "0.bias"}, names(net.NamedParameters()))

	first, err := LookupParameter[cpuB](net, "0.bias")
	require.NoError(t, err)
	second, err := LookupParameter[cpuB](net, "2.bias")
	require.NoError(t, err)
	assert.Same(t, first, second)

	var paths []string
	for _, nm := range NamedModules[cpuB](net) {
		paths = append(paths, nm.Name)
	}
	assert.Equal(t, []string{"", "0", "1"}, paths)
}

func TestLookup(t *testing.T) {
	backend := cpu.New()
	nest := newNestMLP(t, backend)

	p, err := LookupParameter[cpuB](nest, "net.2.weight")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{32, 64}, p.Shape())

	for _, path := range []string{"net.1.weight", "net.9.weight", "linear.gamma", "weight"} {
		_, err := LookupParameter[cpuB](nest, path)
		assert.ErrorIs(t, err, ErrParameterNotFound, path)
	}

	m, err := LookupModule[cpuB](nest, "net.1")
	require.NoError(t, err)
	assert.IsType(t, &ReLU[cpuB]{}, m)

	root, err := LookupModule[cpuB](nest, "")
	require.NoError(t, err)
	assert.Same(t, nest, root)

	_, err = LookupModule[cpuB](nest, "net.7")
	assert.ErrorIs(t, err, ErrChildNotFound)
}

func TestApply_PostOrder(t *testing.T) {
	backend := cpu.New()
	net := NewSequential[cpuB](
		NewLinear(2, 2, backend),
		NewSequential[cpuB](NewReLU[cpuB](), NewLinear(2, 2, backend)),
	)

	var visited []string
	err := Apply[cpuB](net, func(path string, _ Module[cpuB]) error {
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1.0", "1.1", "1", ""}, visited)

	stop := assert.AnError
	visited = nil
	err = Apply[cpuB](net, func(path string, _ Module[cpuB]) error {
		visited = append(visited, path)
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"0"}, visited)
}

func TestNewCustom_NilForward(t *testing.T) {
	assert.Panics(t, func() { NewCustom[cpuB]("Block", nil) })
	assert.Panics(t, func() { NewCustomMulti[cpuB]("Block", nil) })
}
