// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/blocks/autodiff"
	"github.com/born-ml/blocks/backend/cpu"
	"github.com/born-ml/blocks/nn"
	"github.com/born-ml/blocks/tensor"
)

type B = *cpu.Backend

// TestModuleInterface verifies that the public constructors satisfy Module.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[B]
		params int
	}{
		{name: "Linear", module: nn.NewLinear(10, 5, backend), params: 2},
		{name: "ReLU", module: nn.NewReLU[B](), params: 0},
		{
			name: "Sequential",
			module: nn.NewSequential[B](
				nn.NewLinear(10, 5, backend),
				nn.NewTanh[B](),
				nn.NewLinear(5, 10, backend),
			),
			params: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tensor.Randn[float32](tensor.Shape{2, 10}, backend)
			out, err := tt.module.Forward(input)
			require.NoError(t, err)
			assert.Equal(t, 2, out.Shape()[0])
			assert.Len(t, tt.module.Parameters(), tt.params)
			assert.Len(t, tt.module.NamedParameters(), tt.params)
		})
	}
}

func TestParameterInterface(t *testing.T) {
	backend := cpu.New()
	value := tensor.Randn[float32](tensor.Shape{3, 3}, backend)

	param := nn.NewParameter("weight", value)
	assert.Equal(t, "weight", param.Name())
	assert.Same(t, value, param.Tensor())
	assert.Nil(t, param.Grad())

	grad := tensor.Zeros[float32](tensor.Shape{3, 3}, backend)
	param.SetGrad(grad)
	assert.Same(t, grad, param.Grad())
	param.ZeroGrad()
	assert.Nil(t, param.Grad())

	lazy := nn.NewUnboundParameter[B]("weight", tensor.Shape{4, -1})
	_, err := lazy.Value()
	assert.True(t, errors.Is(err, nn.ErrUnboundParameter))
}

func TestSaveLoad(t *testing.T) {
	tensor.Seed(3)
	backend := cpu.New()
	x := tensor.Randn[float32](tensor.Shape{2, 20}, backend)

	src := nn.NewSequential[B](
		nn.NewLazyLinear(16, backend),
		nn.NewReLU[B](),
		nn.NewLazyLinear(4, backend),
	)
	path := filepath.Join(t.TempDir(), "mlp.blk")

	err := nn.Save[B](path, src, nil)
	require.True(t, errors.Is(err, nn.ErrUnboundParameter), "got %v", err)

	want, err := src.Forward(x)
	require.NoError(t, err)
	require.NoError(t, nn.Save[B](path, src, map[string]string{"run": "a"}))

	dst := nn.NewSequential[B](
		nn.NewLazyLinear(16, backend),
		nn.NewReLU[B](),
		nn.NewLazyLinear(4, backend),
	)
	header, err := nn.Load[B](path, dst, backend, true)
	require.NoError(t, err)
	assert.Equal(t, "Sequential", header.ModelType)
	assert.Equal(t, "a", header.Metadata["run"])

	got, err := dst.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestTrainingStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	type AD = *autodiff.Backend[*cpu.Backend]

	shared := nn.NewLinear(2, 2, backend)
	model := nn.NewSequential[AD](shared, nn.NewSigmoid[AD](), shared)
	require.Len(t, model.NamedParameters(), 2)

	x, err := tensor.FromSlice([]float32{1, -1}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y, err := model.Forward(x)
	require.NoError(t, err)
	grads := autodiff.Backward(y.Sum(), backend)
	require.NoError(t, nn.AccumulateGrads[AD](model, grads))

	for _, p := range model.Parameters() {
		require.NotNil(t, p.Grad(), p.Name())
		assert.Equal(t, p.Tensor().Shape(), p.Grad().Shape())
	}
}
