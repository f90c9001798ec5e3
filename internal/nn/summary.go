package nn

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/born-ml/blocks/internal/tensor"
)

// ParameterInfo describes one distinct parameter in a Summary.
type ParameterInfo struct {
	Name      string       // canonical qualified name
	Aliases   []string     // other paths reaching the same parameter
	Shape     tensor.Shape // hint with -1 while unbound
	Count     int          // elements, 0 while unbound
	Bytes     int          // storage bytes, 0 while unbound
	Bound     bool
	Trainable bool
}

// Summary lists the parameters of a module with totals.
type Summary struct {
	Kind       string
	Parameters []ParameterInfo
	Total      int // elements over distinct bound parameters
	Trainable  int // elements over distinct trainable bound parameters
	Bytes      int
	Unbound    int // number of parameters without a value
}

// Summarize inspects every distinct parameter of m.
//
// Tied parameters are counted once; their other paths are listed as aliases.
func Summarize[B tensor.Backend](m Module[B]) Summary {
	s := Summary{Kind: "Module"}
	if k, ok := m.(interface{ Kind() string }); ok {
		s.Kind = k.Kind()
	}
	paths := ParameterPaths(m)

	for _, np := range m.NamedParameters() {
		p := np.Parameter
		info := ParameterInfo{
			Name:      np.Name,
			Aliases:   paths[p][1:],
			Shape:     p.Shape(),
			Bound:     p.IsBound(),
			Trainable: p.RequiresGrad(),
		}
		if p.IsBound() {
			info.Count = p.NumElements()
			info.Bytes = p.Tensor().Raw().ByteSize()
			s.Total += info.Count
			s.Bytes += info.Bytes
			if info.Trainable {
				s.Trainable += info.Count
			}
		} else {
			s.Unbound++
		}
		s.Parameters = append(s.Parameters, info)
	}
	return s
}

// String renders the summary as aligned text with humanized totals.
func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", s.Kind)
	for _, p := range s.Parameters {
		count := "unbound"
		if p.Bound {
			count = humanize.Comma(int64(p.Count))
		}
		fmt.Fprintf(&sb, "  %-24s %-12s %10s", p.Name, formatShape(p.Shape), count)
		if !p.Trainable {
			sb.WriteString("  frozen")
		}
		if len(p.Aliases) > 0 {
			fmt.Fprintf(&sb, "  tied: %s", strings.Join(p.Aliases, ", "))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total parameters: %s (%s)\n", humanize.Comma(int64(s.Total)), humanize.Bytes(uint64(s.Bytes)))
	fmt.Fprintf(&sb, "Trainable parameters: %s\n", humanize.Comma(int64(s.Trainable)))
	if s.Unbound > 0 {
		fmt.Fprintf(&sb, "Unbound parameters: %d\n", s.Unbound)
	}
	return sb.String()
}
