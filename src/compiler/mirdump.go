package compiler

import (
	"fmt"
	"os"
	"sync"

	"jcc/src/mir"
	"jcc/src/util"
)

// dumpMIR renders prog's --output-mir text to path. With Config.Threads > 1 each worker renders its
// own slice of functions through a util.Writer and the order functions land in the file is whatever
// order their goroutine happened to finish in, the same out-of-order tradeoff util.ListenWrite's own
// doc comment accepts for concurrent, non-LLVM-IR output. Single-threaded dumps stay exactly ordered.
func dumpMIR(cfg Config, prog *mir.Program) error {
	if cfg.Threads <= 1 || len(prog.Functions) <= 1 {
		return os.WriteFile(cfg.Output, []byte(prog.Dump()), 0644)
	}

	f, err := os.OpenFile(cfg.Output, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("compiler: could not create %q: %w", cfg.Output, err)
	}
	defer f.Close()

	// The table of contents is written before any worker starts, so it always heads the file.
	toc := "Functions:\n"
	for _, fn := range prog.Functions {
		toc += fmt.Sprintf("    %s (%d blocks)\n", fn.Name, len(fn.Blocks))
	}
	if _, err := f.WriteString(toc + "\n"); err != nil {
		return fmt.Errorf("compiler: could not write %q: %w", cfg.Output, err)
	}

	wg := sync.WaitGroup{}
	util.ListenWrite(cfg.Threads, f, &wg)

	t := cfg.Threads
	l := len(prog.Functions)
	if t > l {
		t = l
	}
	n := l / t
	res := l % t

	start := 0
	for i := 0; i < t; i++ {
		end := start + n
		if i < res {
			end++
		}
		wg.Add(1)
		go func(fns []*mir.Function) {
			w := util.NewWriter()
			defer w.Close()
			for _, fn := range fns {
				w.WriteString(fn.Dump())
				w.WriteString("\n")
			}
		}(prog.Functions[start:end])
		start = end
	}

	wg.Wait()
	util.Close()
	return nil
}
