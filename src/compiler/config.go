// Package compiler wires the frontend, Type Resolution, Function Lowering, analysis and codegen
// phases into the single pipeline the command-line driver invokes once per source file.
package compiler

// Config is everything a single compilation run needs, gathered from the command line by the cli
// package. It plays the same role Options played in this module's earlier, single-phase incarnation,
// renamed and reshaped around the phases this pipeline now actually has.
type Config struct {
	Source   string
	Output   string
	Includes []string
	OptLevel int

	OutputMIR    bool
	OutputLLVMIR bool
	Verbose      bool
	Color        bool

	Threads int
}

// DefaultOutput is the object file name used when -o/--output is not given.
const DefaultOutput = "a.out"

// DefaultOptLevel matches the codegen optimisation pipeline clang itself defaults to (-O2).
const DefaultOptLevel = 2
