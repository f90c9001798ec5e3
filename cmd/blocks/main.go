// Package main provides the blocks CLI: it builds the demo model, summarizes
// its parameters and saves or inspects .blk checkpoints.
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/born-ml/blocks/backend/cpu"
	"github.com/born-ml/blocks/nn"
	"github.com/born-ml/blocks/tensor"
)

const version = "v0.1.0"

var (
	flagHidden = flag.Int("hidden", 256, "Width of the hidden layer of the demo model.")
	flagIn     = flag.Int("in", 20, "Input features fed to the demo model; 0 leaves the lazy layers unbound.")
	flagOut    = flag.Int("out", 10, "Output features of the demo model.")
	flagSeed   = flag.Uint64("seed", 0, "Random seed for parameter initialization.")
	flagOutput = flag.String("o", "model.blk", "Checkpoint path written by the save command.")
	flagHalf   = flag.Bool("half", false, "Store parameters at float16 precision when saving.")
)

type backendT = *cpu.Backend

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "blocks %s\n\nUsage: blocks [flags] COMMAND\n\n", version)
	fmt.Fprintln(flag.CommandLine.Output(), "Commands:")
	fmt.Fprintln(flag.CommandLine.Output(), "  version        Show version")
	fmt.Fprintln(flag.CommandLine.Output(), "  summary        Build the demo model and list its parameters")
	fmt.Fprintln(flag.CommandLine.Output(), "  save           Build the demo model and write it to -o")
	fmt.Fprintln(flag.CommandLine.Output(), "  inspect FILE   List the tensors stored in a checkpoint")
	fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "version":
		fmt.Printf("blocks %s\n", version)
	case "summary":
		fmt.Println(summaryTable(demoModel()))
	case "save":
		model := demoModel()
		save := nn.Save[backendT]
		if *flagHalf {
			save = nn.SaveFloat16[backendT]
		}
		must.M(save(*flagOutput, model, map[string]string{
			"hidden": fmt.Sprint(*flagHidden),
			"seed":   fmt.Sprint(*flagSeed),
		}))
		fmt.Printf("wrote %s\n", *flagOutput)
	case "inspect":
		if len(args) != 2 {
			klog.Exitf("inspect: expected one checkpoint path, got %d arguments", len(args)-1)
		}
		fmt.Println(inspectTable(args[1]))
	default:
		klog.Errorf("unknown command %q", args[0])
		usage()
		os.Exit(2)
	}
}

// demoModel builds a lazy MLP and, unless -in is 0, binds it with one
// forward pass over a random batch of two.
func demoModel() *nn.Sequential[backendT] {
	tensor.Seed(*flagSeed)
	backend := cpu.New()
	model := nn.NewSequential[backendT](
		nn.NewLazyLinear(*flagHidden, backend),
		nn.NewReLU[backendT](),
		nn.NewLazyLinear(*flagOut, backend),
	)
	if *flagIn > 0 {
		x := tensor.Randn[float32](tensor.Shape{2, *flagIn}, backend)
		y := must.M1(model.Forward(x))
		klog.V(1).Infof("demo forward: %v -> %v", x.Shape(), y.Shape())
	}
	return model
}

func newTable(headers ...string) *lgtable.Table {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func summaryTable(m nn.Module[backendT]) string {
	s := nn.Summarize[backendT](m)
	table := newTable("Parameter", "Shape", "Count", "Size", "Notes")
	for _, p := range s.Parameters {
		var notes []string
		if !p.Bound {
			notes = append(notes, "unbound")
		}
		if !p.Trainable {
			notes = append(notes, "frozen")
		}
		if len(p.Aliases) > 0 {
			notes = append(notes, "tied: "+strings.Join(p.Aliases, ", "))
		}
		table.Row(p.Name, fmt.Sprint(p.Shape),
			humanize.Comma(int64(p.Count)), humanize.Bytes(uint64(p.Bytes)), strings.Join(notes, "; "))
	}
	return fmt.Sprintf("%s\n%s: %s parameters (%s trainable), %s",
		table.String(), s.Kind, humanize.Comma(int64(s.Total)), humanize.Comma(int64(s.Trainable)),
		humanize.Bytes(uint64(s.Bytes)))
}

func inspectTable(path string) string {
	header := must.M1(nn.ReadCheckpointHeader(path))
	table := newTable("Tensor", "DType", "Shape", "Offset", "Size")
	var total int64
	for _, t := range header.Tensors {
		table.Row(t.Name, t.DType, fmt.Sprint(t.Shape),
			humanize.Comma(t.Offset), humanize.Bytes(uint64(t.Size)))
		total += t.Size
	}
	var meta []string
	for _, k := range slices.Sorted(maps.Keys(header.Metadata)) {
		meta = append(meta, k+"="+header.Metadata[k])
	}
	precision := header.Precision
	if precision == "" {
		precision = "native"
	}
	return fmt.Sprintf("%s (id %s, created %s, %s precision)\n%s\n%d tensors, %s. %s",
		header.ModelType, header.ModelID, humanize.Time(header.CreatedAt), precision,
		table.String(), len(header.Tensors), humanize.Bytes(uint64(total)), strings.Join(meta, " "))
}
