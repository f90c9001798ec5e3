package nn

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/blocks/internal/tensor"
)

// Base is the registry every module embeds.
//
// It keeps parameters, children and constants in registration order.
// Parameters and children live in separate namespaces; constants share the
// parameter namespace. Registration is rejected while the module is inside
// Forward (see Lock).
//
// Modules outside this package embed it the same way:
//
//	type Block[B tensor.Backend] struct {
//	    nn.Base[B]
//	}
//
//	func NewBlock[B tensor.Backend](backend B) (*Block[B], error) {
//	    b := &Block[B]{Base: nn.NewBase[B]("Block")}
//	    if err := b.RegisterChild("proj", nn.NewLinear(4, 4, backend)); err != nil {
//	        return nil, err
//	    }
//	    return b, nil
//	}
type Base[B tensor.Backend] struct {
	kind      string
	params    []NamedParameter[B]
	children  []NamedModule[B]
	constants []namedConstant[B]
	locked    int
}

type namedConstant[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewBase returns a registry for a module of the given kind. The kind is
// used in error messages and summaries.
func NewBase[B tensor.Backend](kind string) Base[B] {
	return Base[B]{kind: kind}
}

// Kind returns the module kind, "Module" if none was given.
func (m *Base[B]) Kind() string {
	if m.kind == "" {
		return "Module"
	}
	return m.kind
}

// RegisterParameter adds p under name. Registering a *Parameter that is
// already registered elsewhere ties the two sites.
func (m *Base[B]) RegisterParameter(name string, p *Parameter[B]) error {
	if err := m.checkRegistration(name); err != nil {
		return err
	}
	if p == nil {
		return errors.Errorf("%s: nil parameter %q", m.Kind(), name)
	}
	if m.hasParamName(name) {
		return &DuplicateNameError{Module: m.Kind(), Kind: KindParameter, Name: name}
	}
	m.params = append(m.params, NamedParameter[B]{Name: name, Parameter: p})
	klog.V(2).Infof("%s: registered parameter %q shape=%s", m.Kind(), name, formatShape(p.Shape()))
	return nil
}

// RegisterChild adds child under name. A child that is, or contains, m is
// rejected with ErrCycle.
func (m *Base[B]) RegisterChild(name string, child Module[B]) error {
	if err := m.checkRegistration(name); err != nil {
		return err
	}
	if child == nil {
		return errors.Wrapf(ErrNilModule, "%s: child %q", m.Kind(), name)
	}
	for _, c := range m.children {
		if c.Name == name {
			return &DuplicateNameError{Module: m.Kind(), Kind: KindChild, Name: name}
		}
	}
	if path, ok := m.reachableFrom(child); ok {
		if path == "" {
			return errors.Wrapf(ErrCycle, "%s: child %q is the module itself", m.Kind(), name)
		}
		return errors.Wrapf(ErrCycle, "%s: child %q contains it at %q", m.Kind(), name, path)
	}
	m.children = append(m.children, NamedModule[B]{Name: name, Module: child})
	klog.V(2).Infof("%s: registered child %q", m.Kind(), name)
	return nil
}

// registry is promoted into every embedding module so the registry behind a
// Module can be compared by identity.
func (m *Base[B]) registry() *Base[B] { return m }

// reachableFrom returns the path under child at which m appears.
func (m *Base[B]) reachableFrom(child Module[B]) (string, bool) {
	for _, nm := range NamedModules(child) {
		if r, ok := nm.Module.(interface{ registry() *Base[B] }); ok && r.registry() == m {
			return nm.Name, true
		}
	}
	return "", false
}

// RegisterConstant adds a tensor that is read by Forward but is never a
// parameter: it is not enumerated, saved, initialized or given gradients.
func (m *Base[B]) RegisterConstant(name string, t *tensor.Tensor[float32, B]) error {
	if err := m.checkRegistration(name); err != nil {
		return err
	}
	if m.hasParamName(name) {
		return &DuplicateNameError{Module: m.Kind(), Kind: KindParameter, Name: name}
	}
	m.constants = append(m.constants, namedConstant[B]{name: name, tensor: t})
	return nil
}

// Parameter returns the parameter registered directly under name.
func (m *Base[B]) Parameter(name string) (*Parameter[B], bool) {
	for _, p := range m.params {
		if p.Name == name {
			return p.Parameter, true
		}
	}
	return nil, false
}

// Child returns the child registered under name.
func (m *Base[B]) Child(name string) (Module[B], bool) {
	for _, c := range m.children {
		if c.Name == name {
			return c.Module, true
		}
	}
	return nil, false
}

// Constant returns the constant registered under name.
func (m *Base[B]) Constant(name string) (*tensor.Tensor[float32, B], bool) {
	for _, c := range m.constants {
		if c.name == name {
			return c.tensor, true
		}
	}
	return nil, false
}

// CallChild runs the child registered under name on x.
func (m *Base[B]) CallChild(name string, x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	child, ok := m.Child(name)
	if !ok {
		return nil, errors.Wrapf(ErrChildNotFound, "%s: %q", m.Kind(), name)
	}
	out, err := child.Forward(x)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", m.Kind(), name)
	}
	return out, nil
}

// LocalParameters returns the parameters registered directly on m.
func (m *Base[B]) LocalParameters() []NamedParameter[B] {
	return append([]NamedParameter[B](nil), m.params...)
}

// NamedChildren returns the direct children in registration order.
func (m *Base[B]) NamedChildren() []NamedModule[B] {
	return append([]NamedModule[B](nil), m.children...)
}

// NamedParameters returns every distinct parameter under its canonical
// qualified name.
func (m *Base[B]) NamedParameters() []NamedParameter[B] {
	seen := make(map[*Parameter[B]]bool)
	var out []NamedParameter[B]
	add := func(name string, p *Parameter[B]) {
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, NamedParameter[B]{Name: name, Parameter: p})
	}
	for _, p := range m.params {
		add(p.Name, p.Parameter)
	}
	for _, c := range m.children {
		for _, p := range c.Module.NamedParameters() {
			add(c.Name+"."+p.Name, p.Parameter)
		}
	}
	return out
}

// Parameters returns every distinct parameter.
func (m *Base[B]) Parameters() []*Parameter[B] {
	named := m.NamedParameters()
	out := make([]*Parameter[B], len(named))
	for i, p := range named {
		out[i] = p.Parameter
	}
	return out
}

// Lock marks m as running Forward until the returned function is called.
// Locks nest, so recursive or repeated calls of one module are fine.
//
//	func (b *Block[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
//	    defer b.Lock()()
//	    ...
//	}
func (m *Base[B]) Lock() (unlock func()) {
	m.locked++
	return func() { m.locked-- }
}

// Locked reports whether m is inside Forward.
func (m *Base[B]) Locked() bool {
	return m.locked > 0
}

func (m *Base[B]) checkRegistration(name string) error {
	if m.locked > 0 {
		return errors.Wrapf(ErrStructureLocked, "%s: register %q", m.Kind(), name)
	}
	if name == "" || strings.Contains(name, ".") {
		return errors.Wrapf(ErrInvalidName, "%s: %q (names must be non-empty and contain no '.')", m.Kind(), name)
	}
	return nil
}

func (m *Base[B]) hasParamName(name string) bool {
	if _, ok := m.Parameter(name); ok {
		return true
	}
	_, ok := m.Constant(name)
	return ok
}
