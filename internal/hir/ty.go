package hir

import (
	"strings"
)

// TyKind discriminates resolved types.
type TyKind uint8

const (
	TyUnknown TyKind = iota
	TyRef
	TyAdt
	TyTuple
	TyParam
	TyPrim
)

// DefPath is the namespace path of a nominal type: the crate that defines
// it and the path segments inside that crate.
type DefPath struct {
	Crate string
	Data  []string
}

func (p DefPath) String() string {
	if len(p.Data) == 0 {
		return p.Crate
	}
	return p.Crate + "::" + strings.Join(p.Data, "::")
}

// Ty is a resolved type.
type Ty struct {
	Kind    TyKind
	Mutable bool    // TyRef only
	Elem    *Ty     // TyRef only
	Def     DefPath // TyAdt only
	Name    string  // TyParam, TyPrim
	Elems   []Ty    // TyTuple
}

// Ref returns a reference to elem.
func Ref(elem Ty, mutable bool) Ty {
	return Ty{Kind: TyRef, Mutable: mutable, Elem: &elem}
}

// Adt returns the nominal type crate::data.
func Adt(crate string, data ...string) Ty {
	return Ty{Kind: TyAdt, Def: DefPath{Crate: crate, Data: data}}
}

// Known reports whether t carries any type information.
func (t Ty) Known() bool {
	return t.Kind != TyUnknown
}

// Peel strips every reference layer.
func (t Ty) Peel() Ty {
	for t.Kind == TyRef && t.Elem != nil {
		t = *t.Elem
	}
	return t
}

// ShortName is the last path segment of an ADT after peeling references.
func (t Ty) ShortName() string {
	p := t.Peel()
	if p.Kind != TyAdt {
		return ""
	}
	if n := len(p.Def.Data); n > 0 {
		return p.Def.Data[n-1]
	}
	return ""
}

func (t Ty) String() string {
	switch t.Kind {
	case TyRef:
		prefix := "&"
		if t.Mutable {
			prefix = "&mut "
		}
		if t.Elem == nil {
			return prefix + "?"
		}
		return prefix + t.Elem.String()
	case TyAdt:
		return t.Def.String()
	case TyTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TyParam, TyPrim:
		return t.Name
	default:
		return "?"
	}
}
