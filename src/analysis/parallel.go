package analysis

import (
	"sync"

	"jcc/src/mir"
	"jcc/src/source"
)

// RunParallel is Run, fanned out over worker goroutines when threads > 1: the six-pass sequence still
// runs in order within each function (later passes depend on earlier ones having rejected malformed
// MIR), but different functions' sequences run concurrently, since analysis never shares state across
// functions. The split/residual job assignment divides the function list into threads-many contiguous
// slices, the first `len%threads` slices get one extra
// function each.
func RunParallel(prog *mir.Program, errs *source.Errors, threads int) bool {
	if threads <= 1 || len(prog.Functions) <= 1 {
		return Run(prog, errs)
	}

	t := threads
	l := len(prog.Functions)
	if t > l {
		t = l
	}
	n := l / t
	res := l % t

	wg := sync.WaitGroup{}
	start := 0
	for i := 0; i < t; i++ {
		end := start + n
		if i < res {
			end++
		}
		wg.Add(1)
		go func(fns []*mir.Function) {
			defer wg.Done()
			for _, f := range fns {
				checkTypeCompleteness(f, errs)
				checkReachability(f, errs)
				checkReturnCoverage(f, errs)
				checkScopePairing(f, errs)
				checkUseBeforeAssignment(f, errs)
				checkBorrows(f, errs)
			}
		}(prog.Functions[start:end])
		start = end
	}
	wg.Wait()

	return !errs.HasErrorsOfType(source.IDAnalysis)
}
