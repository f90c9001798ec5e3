package nn

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/blocks/internal/tensor"
)

// LinearConfig configures a Linear layer.
type LinearConfig struct {
	InFeatures  int  // 0 infers it from the first input's trailing dimension
	OutFeatures int  // required
	Bias        bool // register a bias parameter
}

// Linear implements a fully connected (affine) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x has shape [..., in_features]; leading dimensions are batch dimensions
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features], broadcast over the batch
//   - y has shape [..., out_features]
//
// The weight is registered as "weight" and the bias as "bias", in that order.
// Weights are initialized with Xavier/Glorot, biases with zeros.
//
// A lazy Linear (NewLazyLinear) does not know in_features until the first
// Forward, which binds the weight from the input's trailing dimension. After
// that the dimension is fixed and a different one fails with *ShapeError.
type Linear[B tensor.Backend] struct {
	Base[B]
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features], nil without bias
	backend     B
}

// NewLinear creates a Linear layer with bias.
//
// Panics if inFeatures or outFeatures is not positive.
//
//	layer := nn.NewLinear(784, 128, backend)
//	out, err := layer.Forward(x) // [32, 784] -> [32, 128]
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	if inFeatures <= 0 {
		panic(fmt.Sprintf("NewLinear: inFeatures must be positive, got %d", inFeatures))
	}
	l, err := NewLinearWithConfig(LinearConfig{InFeatures: inFeatures, OutFeatures: outFeatures, Bias: true}, backend)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLazyLinear creates a Linear layer with bias whose input dimension is
// bound on the first Forward.
//
// Panics if outFeatures is not positive.
func NewLazyLinear[B tensor.Backend](outFeatures int, backend B) *Linear[B] {
	l, err := NewLinearWithConfig(LinearConfig{OutFeatures: outFeatures, Bias: true}, backend)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLinearWithConfig creates a Linear layer from cfg.
func NewLinearWithConfig[B tensor.Backend](cfg LinearConfig, backend B) (*Linear[B], error) {
	if cfg.OutFeatures <= 0 {
		return nil, errors.Errorf("Linear: OutFeatures must be positive, got %d", cfg.OutFeatures)
	}
	if cfg.InFeatures < 0 {
		return nil, errors.Errorf("Linear: InFeatures must not be negative, got %d", cfg.InFeatures)
	}

	var weight *Parameter[B]
	if cfg.InFeatures > 0 {
		weightShape := tensor.Shape{cfg.OutFeatures, cfg.InFeatures}
		weight = NewParameter("weight", Xavier(cfg.InFeatures, cfg.OutFeatures, weightShape, backend))
	} else {
		weight = NewUnboundParameter[B]("weight", tensor.Shape{cfg.OutFeatures, -1})
	}

	var bias *Parameter[B]
	if cfg.Bias {
		bias = NewParameter("bias", tensor.Zeros[float32](tensor.Shape{cfg.OutFeatures}, backend))
	}
	return NewLinearFrom(weight, bias, backend)
}

// NewLinearFrom builds a Linear layer over existing parameters, which ties
// them with every other site that holds them. bias may be nil.
//
// weight must be bound with shape [out, in] or unbound with hint [out, -1].
func NewLinearFrom[B tensor.Backend](weight, bias *Parameter[B], backend B) (*Linear[B], error) {
	ws := weight.Shape()
	if len(ws) != 2 || ws[0] <= 0 {
		return nil, &ShapeError{Module: "Linear", What: "weight", Expected: "[out in]", Got: ws}
	}
	if bias != nil && !bias.Shape().Equal(tensor.Shape{ws[0]}) {
		return nil, &ShapeError{Module: "Linear", What: "bias", Expected: formatShape([]int{ws[0]}), Got: bias.Shape()}
	}

	l := &Linear[B]{
		Base:        NewBase[B]("Linear"),
		outFeatures: ws[0],
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
	if err := l.RegisterParameter("weight", weight); err != nil {
		return nil, err
	}
	if bias != nil {
		if err := l.RegisterParameter("bias", bias); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Forward computes x @ W.T + b over any number of leading dimensions.
//
// Returns *ShapeError for a rank-0 input or a trailing dimension that does
// not match a bound weight.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	defer l.Lock()()

	inputShape := input.Shape()
	if len(inputShape) == 0 {
		return nil, &ShapeError{Module: "Linear", What: "input", Expected: l.expectedInput(), Got: inputShape}
	}
	in := inputShape.Last()

	if !l.weight.IsBound() {
		if err := l.bind(in); err != nil {
			return nil, err
		}
	}
	if in != l.InFeatures() {
		return nil, &ShapeError{Module: "Linear", What: "input", Expected: l.expectedInput(), Got: inputShape}
	}

	// Flatten batch dimensions: [..., in] -> [N, in]
	flat := input.Reshape(-1, in)

	// [N, in] @ [in, out] = [N, out]
	output := flat.MatMul(l.weight.Tensor().T())

	if l.bias != nil {
		// Bias [out] is reshaped to [1, out] to broadcast over N.
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	outShape := append(inputShape[:len(inputShape)-1].Clone(), l.outFeatures)
	return output.Reshape(outShape...), nil
}

func (l *Linear[B]) bind(in int) error {
	w := Xavier(in, l.outFeatures, tensor.Shape{l.outFeatures, in}, l.backend)
	if err := l.weight.Bind(w); err != nil {
		return err
	}
	klog.V(1).Infof("Linear: bound lazy weight to [%d %d]", l.outFeatures, in)
	return nil
}

func (l *Linear[B]) expectedInput() string {
	if in := l.InFeatures(); in > 0 {
		return fmt.Sprintf("[... %d]", in)
	}
	return "[... *]"
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, nil for a layer without bias.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the input dimension, 0 while the weight is unbound.
func (l *Linear[B]) InFeatures() int {
	if !l.weight.IsBound() {
		return 0
	}
	return l.weight.Shape()[1]
}

// OutFeatures returns the output dimension.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// IsLazy reports whether the input dimension is still unknown.
func (l *Linear[B]) IsLazy() bool {
	return !l.weight.IsBound()
}
