// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/blocks/internal/nn"
	"github.com/born-ml/blocks/tensor"
)

// Parameter is a named tensor with a gradient slot.
//
// Parameters are shared by pointer: registering the same *Parameter at
// several sites ties them.
//
//	weight := nn.NewParameter("weight", w)
//	a, _ := nn.NewLinearFrom(weight, nil, backend)
//	b, _ := nn.NewLinearFrom(weight, nil, backend)
//
// Methods:
//
//	Value() (*tensor.Tensor[float32, B], error)
//	    Returns the value, or ErrUnboundParameter for a lazy parameter.
//
//	Grad() *tensor.Tensor[float32, B]
//	    Returns the accumulated gradient (nil before a backward pass).
//
//	SetRequiresGrad(bool)
//	    Freezes or unfreezes the parameter.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a bound parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// NewUnboundParameter creates a parameter whose value is bound later.
// Unknown dimensions of hint are -1.
func NewUnboundParameter[B tensor.Backend](name string, hint tensor.Shape) *Parameter[B] {
	return nn.NewUnboundParameter[B](name, hint)
}
