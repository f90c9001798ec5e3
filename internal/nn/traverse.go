package nn

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// LookupParameter resolves a qualified name such as "net.0.weight".
//
// Any registration path works, not only the canonical one, and every path
// to a tied parameter returns the identical pointer.
func LookupParameter[B tensor.Backend](m Module[B], path string) (*Parameter[B], error) {
	parts := strings.Split(path, ".")
	cur := m
	for _, name := range parts[:len(parts)-1] {
		next, ok := childByName(cur, name)
		if !ok {
			return nil, errors.Wrapf(ErrParameterNotFound, "%q: no child %q", path, name)
		}
		cur = next
	}
	last := parts[len(parts)-1]
	for _, p := range cur.LocalParameters() {
		if p.Name == last {
			return p.Parameter, nil
		}
	}
	return nil, errors.Wrapf(ErrParameterNotFound, "%q", path)
}

// LookupModule resolves a qualified child path such as "net.0". The empty
// path is m itself.
func LookupModule[B tensor.Backend](m Module[B], path string) (Module[B], error) {
	if path == "" {
		return m, nil
	}
	cur := m
	for _, name := range strings.Split(path, ".") {
		next, ok := childByName(cur, name)
		if !ok {
			return nil, errors.Wrapf(ErrChildNotFound, "%q: no child %q", path, name)
		}
		cur = next
	}
	return cur, nil
}

// ParameterPaths returns, for every distinct parameter, all the qualified
// names it is reachable under, in traversal order. The first path of each
// entry is the canonical one reported by NamedParameters.
func ParameterPaths[B tensor.Backend](m Module[B]) map[*Parameter[B]][]string {
	paths := make(map[*Parameter[B]][]string)
	walkParameters(m, "", func(name string, p *Parameter[B]) {
		paths[p] = append(paths[p], name)
	})
	return paths
}

func walkParameters[B tensor.Backend](m Module[B], prefix string, fn func(string, *Parameter[B])) {
	for _, p := range m.LocalParameters() {
		fn(prefix+p.Name, p.Parameter)
	}
	for _, c := range m.NamedChildren() {
		walkParameters(c.Module, prefix+c.Name+".", fn)
	}
}

// NamedModules lists m (under "") and every distinct descendant, depth-first
// in registration order, under the path it is first reached by.
func NamedModules[B tensor.Backend](m Module[B]) []NamedModule[B] {
	seen := make(map[Module[B]]bool)
	var out []NamedModule[B]
	var visit func(path string, cur Module[B])
	visit = func(path string, cur Module[B]) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		out = append(out, NamedModule[B]{Name: path, Module: cur})
		for _, c := range cur.NamedChildren() {
			visit(joinPath(path, c.Name), c.Module)
		}
	}
	visit("", m)
	return out
}

// Apply calls fn on every distinct module, children before their parent,
// and stops at the first error.
//
//	err := nn.Apply(model, func(path string, m nn.Module[B]) error {
//	    if l, ok := m.(*nn.Linear[B]); ok && !l.IsLazy() {
//	        return nn.InitParameters(l, nn.InitNormal(0, 0.01), nil)
//	    }
//	    return nil
//	})
func Apply[B tensor.Backend](m Module[B], fn func(path string, m Module[B]) error) error {
	seen := make(map[Module[B]]bool)
	var visit func(path string, cur Module[B]) error
	visit = func(path string, cur Module[B]) error {
		if seen[cur] {
			return nil
		}
		seen[cur] = true
		for _, c := range cur.NamedChildren() {
			if err := visit(joinPath(path, c.Name), c.Module); err != nil {
				return err
			}
		}
		return fn(path, cur)
	}
	return visit("", m)
}

// ZeroGrad clears the gradient of every distinct parameter of m.
func ZeroGrad[B tensor.Backend](m Module[B]) {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

// AccumulateGrads adds tape gradients onto the parameters of m.
//
// grads is keyed by the parameter tensors' RawTensor, as returned by
// autodiff.Backward. Each distinct parameter is updated once even when it is
// registered at several sites; the tape has already summed the gradients of
// all its uses. Frozen and unbound parameters are skipped, as are
// parameters that took no part in the computation.
func AccumulateGrads[B tensor.Backend](m Module[B], grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	for _, np := range m.NamedParameters() {
		p := np.Parameter
		if !p.RequiresGrad() || !p.IsBound() {
			continue
		}
		g, ok := grads[p.Tensor().Raw()]
		if !ok {
			continue
		}
		if err := p.AccumulateGrad(g); err != nil {
			return errors.Wrapf(err, "accumulate %q", np.Name)
		}
	}
	return nil
}

// Freeze stops gradient accumulation for every parameter of m.
func Freeze[B tensor.Backend](m Module[B]) {
	for _, p := range m.Parameters() {
		p.SetRequiresGrad(false)
	}
}

// Unfreeze re-enables gradient accumulation for every parameter of m.
func Unfreeze[B tensor.Backend](m Module[B]) {
	for _, p := range m.Parameters() {
		p.SetRequiresGrad(true)
	}
}

func childByName[B tensor.Backend](m Module[B], name string) (Module[B], bool) {
	for _, c := range m.NamedChildren() {
		if c.Name == name {
			return c.Module, true
		}
	}
	return nil, false
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
