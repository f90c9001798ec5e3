package checkpoint

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/blocks/internal/nn"
	"github.com/born-ml/blocks/internal/tensor"
)

// StateDict returns the value of every distinct parameter of m under its
// canonical name, in enumeration order. The tensors are the live parameter
// storage, not copies. Constants are not included.
//
// Returns nn.ErrUnboundParameter if a parameter has no value yet.
func StateDict[B tensor.Backend](m nn.Module[B]) ([]StateEntry, error) {
	params := m.NamedParameters()
	entries := make([]StateEntry, 0, len(params))
	for _, np := range params {
		v, err := np.Parameter.Value()
		if err != nil {
			return nil, errors.Wrapf(err, "state dict %q", np.Name)
		}
		entries = append(entries, StateEntry{Name: np.Name, Tensor: v.Raw()})
	}
	return entries, nil
}

// LoadStateDict copies entries into the parameters of m, matching by
// canonical name.
//
// A bound parameter must have exactly the stored shape, otherwise a
// *nn.ShapeError is returned. An unbound parameter (a lazy layer that has
// not run yet) is bound to a copy of the stored tensor on backend.
//
// With strict, a parameter without an entry fails with ErrMissingTensor and
// an entry without a parameter fails with ErrUnexpectedTensor. Without
// strict both are skipped, the latter with a warning.
//
// Every entry is checked before any parameter is written, so a failed load
// leaves m unchanged.
func LoadStateDict[B tensor.Backend](m nn.Module[B], entries []StateEntry, backend B, strict bool) error {
	byName := make(map[string]*tensor.RawTensor, len(entries))
	for _, e := range entries {
		byName[e.Name] = e.Tensor
	}

	type assignment struct {
		param nn.NamedParameter[B]
		raw   *tensor.RawTensor
	}
	params := m.NamedParameters()
	known := make(map[string]bool, len(params))
	plan := make([]assignment, 0, len(params))
	for _, np := range params {
		known[np.Name] = true
		raw, ok := byName[np.Name]
		if !ok {
			if strict {
				return errors.Wrapf(ErrMissingTensor, "%q", np.Name)
			}
			continue
		}
		if err := checkParameter(np, raw); err != nil {
			return err
		}
		plan = append(plan, assignment{param: np, raw: raw})
	}

	for _, e := range entries {
		if known[e.Name] {
			continue
		}
		if strict {
			return errors.Wrapf(ErrUnexpectedTensor, "%q", e.Name)
		}
		klog.Warningf("checkpoint: ignoring unexpected tensor %q", e.Name)
	}

	for _, a := range plan {
		if err := loadParameter(a.param, a.raw, backend); err != nil {
			return err
		}
	}
	klog.V(1).Infof("checkpoint: loaded %d tensors", len(plan))
	return nil
}

// checkParameter rejects raw for np without touching np.
func checkParameter[B tensor.Backend](np nn.NamedParameter[B], raw *tensor.RawTensor) error {
	if raw.DType() != tensor.Float32 {
		return errors.Wrapf(ErrDType, "%q: %s", np.Name, raw.DType())
	}
	p := np.Parameter
	if !p.IsBound() {
		return errors.Wrapf(p.CheckBind(raw.Shape()), "load %q", np.Name)
	}
	if !p.Shape().Equal(raw.Shape()) {
		return &nn.ShapeError{
			Module:   np.Name,
			What:     "load",
			Expected: fmt.Sprint([]int(p.Shape())),
			Got:      raw.Shape(),
		}
	}
	return nil
}

func loadParameter[B tensor.Backend](np nn.NamedParameter[B], raw *tensor.RawTensor, backend B) error {
	p := np.Parameter
	if !p.IsBound() {
		if err := p.Bind(tensor.New[float32](raw.Clone(), backend)); err != nil {
			return errors.Wrapf(err, "load %q", np.Name)
		}
		klog.V(1).Infof("checkpoint: bound %q to %v from state", np.Name, raw.Shape())
		return nil
	}
	return errors.Wrapf(p.Tensor().Raw().CopyFrom(raw), "load %q", np.Name)
}
