package tensor

// Backend defines the interface compute backends implement.
//
// Backends panic on contract violations (incompatible shapes, unsupported
// dtypes); callers that need typed errors validate before calling.
//
// Implementations:
//   - cpu.CPUBackend: pure Go reference backend
//   - autodiff.AutodiffBackend: decorator that records operations for backprop
type Backend interface {
	// Element-wise binary operations with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations. scalar must be float32 or float64.
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Element-wise math.
	Abs(x *RawTensor) *RawTensor

	// Sum reduces every element to a scalar.
	Sum(x *RawTensor) *RawTensor

	// Greater compares element-wise with broadcasting and returns a Bool tensor.
	Greater(a, b *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}

// ActivationBackend is implemented by backends that provide element-wise
// activation functions. Callers type-assert for it.
type ActivationBackend interface {
	ReLU(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
}
