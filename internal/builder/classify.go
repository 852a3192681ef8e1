package builder

import (
	"github.com/DeusData/builder-migrate/internal/hir"
)

// Target is the namespace builders are declared in: crate::module::...
type Target struct {
	Crate  string
	Module string
}

// DefaultTarget is serenity's builder module.
var DefaultTarget = Target{Crate: "serenity", Module: "builder"}

// ClassifyType returns the short name of the builder t refers to. References
// are peeled; only nominal types declared under target.Crate::target.Module
// match.
func ClassifyType(t hir.Ty, target Target) (string, bool) {
	t = t.Peel()
	if t.Kind != hir.TyAdt || t.Def.Crate != target.Crate {
		return "", false
	}
	data := t.Def.Data
	if len(data) < 2 || data[0] != target.Module {
		return "", false
	}
	return data[len(data)-1], true
}
