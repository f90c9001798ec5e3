package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/blocks/internal/autodiff"
	"github.com/born-ml/blocks/internal/backend/cpu"
	"github.com/born-ml/blocks/internal/tensor"
)

// backward runs net on x, sums the output and accumulates the gradients
// into the parameters of net.
func backward(t *testing.T, backend adB, net Module[adB], x *tensor.Tensor[float32, adB]) {
	t.Helper()
	backend.Tape().Clear()
	backend.Tape().StartRecording()
	out, err := net.Forward(x)
	require.NoError(t, err)
	loss := out.Sum()
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()
	require.NoError(t, AccumulateGrads(net, grads))
}

func copyValues[B tensor.Backend](dst, src *Parameter[B]) {
	copy(dst.Tensor().Data(), src.Tensor().Data())
}

func TestTiedParameters_GradientsSum(t *testing.T) {
	tensor.Seed(7)
	tiedBackend := autodiff.New(cpu.New())
	shared := NewLinear(3, 3, tiedBackend)
	tied := NewSequential[adB](shared, NewTanh[adB](), shared)

	// Same values, independent parameters.
	untiedBackend := autodiff.New(cpu.New())
	first := NewLinear(3, 3, untiedBackend)
	second := NewLinear(3, 3, untiedBackend)
	for _, l := range []*Linear[adB]{first, second} {
		copyValues(l.Weight(), shared.Weight())
		copyValues(l.Bias(), shared.Bias())
	}
	untied := NewSequential[adB](first, NewTanh[adB](), second)

	data := []float32{0.1, -0.2, 0.3, 0.5, 0.4, -0.6}
	backward(t, tiedBackend, tied, fromSlice(t, tiedBackend, data, 2, 3))
	backward(t, untiedBackend, untied, fromSlice(t, untiedBackend, data, 2, 3))

	require.NotNil(t, shared.Weight().Grad())
	require.NotNil(t, first.Weight().Grad())
	require.NotNil(t, second.Weight().Grad())

	want := make([]float32, 9)
	for i := range want {
		want[i] = first.Weight().Grad().Data()[i] + second.Weight().Grad().Data()[i]
	}
	assert.InDeltaSlice(t, want, shared.Weight().Grad().Data(), 1e-5)

	wantBias := make([]float32, 3)
	for i := range wantBias {
		wantBias[i] = first.Bias().Grad().Data()[i] + second.Bias().Grad().Data()[i]
	}
	assert.InDeltaSlice(t, wantBias, shared.Bias().Grad().Data(), 1e-5)
}

func TestLinear_Gradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	l := NewLinear(2, 1, backend)
	copy(l.Weight().Tensor().Data(), []float32{2, 3})

	// loss = Σ_n (w·x_n + b): dW = Σ x_n, db = N
	backward(t, backend, l, fromSlice(t, backend, []float32{1, 2, 3, 4}, 2, 2))
	assert.Equal(t, []float32{4, 6}, l.Weight().Grad().Data())
	assert.Equal(t, []float32{2}, l.Bias().Grad().Data())
}

func TestAccumulateGrads_AddsUntilZeroGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())
	l := NewLinear(2, 1, backend)
	x := fromSlice(t, backend, []float32{1, 2}, 1, 2)

	backward(t, backend, l, x)
	backward(t, backend, l, x)
	assert.Equal(t, []float32{2, 4}, l.Weight().Grad().Data())
	assert.Equal(t, []float32{2}, l.Bias().Grad().Data())

	ZeroGrad[adB](l)
	assert.Nil(t, l.Weight().Grad())
	assert.Nil(t, l.Bias().Grad())
}

func TestFreeze(t *testing.T) {
	backend := autodiff.New(cpu.New())
	frozen := NewLinear(2, 2, backend)
	trained := NewLinear(2, 1, backend)
	net := NewSequential[adB](frozen, trained)
	Freeze[adB](frozen)

	backward(t, backend, net, fromSlice(t, backend, []float32{1, 2}, 1, 2))
	assert.Nil(t, frozen.Weight().Grad())
	assert.Nil(t, frozen.Bias().Grad())
	assert.NotNil(t, trained.Weight().Grad())

	Unfreeze[adB](net)
	for _, p := range net.Parameters() {
		assert.True(t, p.RequiresGrad())
	}
}

func TestLazyLinear_GradientsAfterBinding(t *testing.T) {
	backend := autodiff.New(cpu.New())
	l := NewLazyLinear(2, backend)
	backward(t, backend, l, fromSlice(t, backend, []float32{1, 1, 1}, 1, 3))

	require.NotNil(t, l.Weight().Grad())
	assert.Equal(t, tensor.Shape{2, 3}, l.Weight().Grad().Shape())
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, l.Weight().Grad().Data())
}
