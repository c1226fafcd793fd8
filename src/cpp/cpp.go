// Package cpp shells out to a C preprocessor to expand #include/#define directives ahead of lexing.
// jcc's own frontend never learned a preprocessor grammar; the original toolchain this module is
// derived from always delegated that stage to the system's C compiler, and clang's "-E" mode is the
// standard way to get that behaviour without adopting clang's own parser. Nothing else in this module's
// lineage spawns a subprocess, so there is no teacher pattern for os/exec to adapt here: this is the one
// component in the tree built directly on the standard library, justified in the ledger.
package cpp

import (
	"fmt"
	"os"
	"os/exec"

	"jcc/src/source"
)

// Run invokes `clang --language c -E` over src, with one -I flag per entry of includes, and writes the
// expanded output to src+".preproc". It returns the path to that file. The temp file is the caller's to
// remove once the frontend has consumed it; Run itself never deletes anything it didn't create, and the
// caller (compiler.Run) is responsible for cleanup via the returned cleanup func.
func Run(src string, includes []string) (path string, cleanup func(), err error) {
	out := src + ".preproc"

	args := []string{"--language", "c", "-E"}
	for _, dir := range includes {
		args = append(args, "-I", dir)
	}
	args = append(args, src)

	cmd := exec.Command("clang", args...)
	outFile, err := os.OpenFile(out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", nil, fmt.Errorf("cpp: could not create %q: %w", out, err)
	}
	cmd.Stdout = outFile
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	closeErr := outFile.Close()

	cleanup = func() { _ = os.Remove(out) }

	if runErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("cpp: clang preprocessing of %q failed: %w", src, runErr)
	}
	if closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("cpp: could not flush %q: %w", out, closeErr)
	}
	return out, cleanup, nil
}

// ErrorId reports errors from this package under the IO phase band, matching the way source.Errors
// buckets the rest of the pipeline's diagnostics.
const ErrorId = source.IDIO
