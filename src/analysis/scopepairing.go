package analysis

import (
	"strconv"
	"strings"

	"jcc/src/mir"
	"jcc/src/source"
)

// checkScopePairing walks every path of f's CFG from BB0, maintaining the stack of names currently
// declared (innermost last, mirroring the nesting the lowering pass produces). A local_undeclare must
// match the innermost open declare of its own name; a function exit (return/return_void) with names
// still open means some path leaves a scope without tearing it down. Loops are handled by memoizing
// (block, stack) pairs already visited, since a well-formed loop body reaches its back edge with the
// same open-declare stack on every iteration.
func checkScopePairing(f *mir.Function, errs *source.Errors) {
	visited := make(map[string]bool)
	var walk func(id int, stack []string)
	walk = func(id int, stack []string) {
		key := stackKey(id, stack)
		if visited[key] {
			return
		}
		visited[key] = true

		b, ok := f.Blocks[id]
		if !ok {
			return
		}
		for _, op := range b.Operations {
			switch op.Op {
			case mir.OpLocalDeclare:
				stack = append(append([]string{}, stack...), op.Name)
			case mir.OpLocalUndeclare:
				if len(stack) == 0 || stack[len(stack)-1] != op.Name {
					errs.Simple(source.IDAnalysis, "unbalanced scope teardown", op.Ref,
						"function %q: local_undeclare %q does not match the innermost open declaration",
						f.Name, op.Name)
					continue
				}
				stack = stack[:len(stack)-1]
			case mir.OpReturn, mir.OpReturnVoid:
				if len(stack) > 0 {
					errs.Simple(source.IDAnalysis, "variable escapes scope", op.Ref,
						"function %q: %d variable(s) still declared at return (%s)",
						f.Name, len(stack), strings.Join(stack, ", "))
				}
			}
		}
		for _, succ := range b.Successors() {
			walk(succ, stack)
		}
	}
	walk(0, nil)
}

func stackKey(id int, stack []string) string {
	return strconv.Itoa(id) + "\x01" + strings.Join(stack, "\x00")
}
