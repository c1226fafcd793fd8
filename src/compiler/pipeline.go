package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jcc/src/analysis"
	"jcc/src/codegen"
	"jcc/src/cpp"
	"jcc/src/frontend"
	"jcc/src/lower"
	"jcc/src/mir"
	"jcc/src/namespace"
	"jcc/src/resolve"
	"jcc/src/source"
	"jcc/src/util"
)

// Run drives one source file through every phase: preprocessing, lexing/parsing, Type Resolution,
// Function Lowering, analysis, and codegen, in that order, writing whichever of an object file, a MIR
// dump, or textual LLVM IR the Config asked for. Each phase's output feeds directly into the next.
func Run(cfg Config) error {
	preprocessed, cleanup, err := cpp.Run(cfg.Source, cfg.Includes)
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}
	defer cleanup()

	src, err := util.ReadSource(preprocessed)
	if err != nil {
		return fmt.Errorf("could not read preprocessed source: %w", err)
	}

	ctx := source.NewContext(cfg.Source, src)
	errs := source.NewErrors(ctx)

	ns := namespace.NewResolver()
	p := frontend.NewParser(cfg.Source, src, ns, errs)
	file := p.Parse()
	if errs.HasErrors() {
		return reportAndFail(errs, cfg.Color)
	}

	res := resolve.New(ns, errs)
	res.ResolveFile(file)
	if errs.HasErrors() {
		return reportAndFail(errs, cfg.Color)
	}

	prog := mir.NewProgram()
	prog.Symbols = res.Symbols
	lowerer := lower.New(res.Types, res.Names, errs)
	for _, entry := range res.Functions {
		fn := lowerer.LowerFunction(entry.Decl, entry.Mangled)
		prog.AddFunction(fn)
	}
	if errs.HasErrors() {
		return reportAndFail(errs, cfg.Color)
	}

	if !analysis.RunParallel(prog, errs, cfg.Threads) {
		return reportAndFail(errs, cfg.Color)
	}

	base := strings.TrimSuffix(filepath.Base(cfg.Source), filepath.Ext(cfg.Source))

	if cfg.OutputMIR {
		mirCfg := cfg
		if mirCfg.Output == "" || mirCfg.Output == DefaultOutput {
			mirCfg.Output = base + ".mir"
		}
		return dumpMIR(mirCfg, prog)
	}

	cg := codegen.New(base, res.Types)
	defer cg.Dispose()
	if err := cg.Generate(prog); err != nil {
		return fmt.Errorf("codegen failed: %w", err)
	}

	if cfg.OutputLLVMIR {
		return writeSideOutput(cfg.Output, base, ".ll", cg.IR())
	}

	out := cfg.Output
	if out == "" {
		out = DefaultOutput
	}
	if err := cg.EmitObject(out, cfg.OptLevel); err != nil {
		return fmt.Errorf("object emission failed: %w", err)
	}
	return nil
}

// reportAndFail prints every accumulated diagnostic to stderr and returns the sentinel error Run's
// caller checks to decide the process exit code.
func reportAndFail(errs *source.Errors, color bool) error {
	errs.PrintColored(func(s string) { fmt.Fprintln(os.Stderr, s) }, color)
	return fmt.Errorf("compilation failed with %d error(s)", errs.Len())
}

// writeSideOutput writes content to cfg.Output if given, otherwise to base+suffix in the working
// directory, matching how --output-mir/--output-llvm-ir behave when -o is omitted.
func writeSideOutput(output, base, suffix, content string) error {
	path := output
	if path == "" || path == DefaultOutput {
		path = base + suffix
	}
	return os.WriteFile(path, []byte(content), 0644)
}
