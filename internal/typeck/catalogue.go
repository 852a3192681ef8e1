// Package typeck computes the static types the builder engine queries:
// types of path expressions, method-call results and closure parameters
// inside function bodies. It is a table of known serenity builder types and
// closure-taking signatures, not a Rust type checker.
package typeck

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/builder-migrate/internal/hir"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

// AnyReceiver matches any receiver type in a Signature.
const AnyReceiver = "*"

// Signature says that argument Arg of Receiver.Method is a closure taking
// `&mut Param`.
type Signature struct {
	Receiver string `yaml:"receiver"`
	Method   string `yaml:"method"`
	Arg      int    `yaml:"arg"`
	Param    string `yaml:"param"`
}

// Catalogue is the table of builder types and closure signatures.
type Catalogue struct {
	Crate  string `yaml:"crate"`
	Module string `yaml:"module"`
	// Builders maps a builder's short name to the submodule defining it.
	Builders   map[string]string `yaml:"builders"`
	Signatures []Signature       `yaml:"signatures"`

	index map[sigKey]string
}

type sigKey struct {
	receiver string
	method   string
	arg      int
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
	defaultErr  error
)

// Default returns the embedded catalogue. Callers must not modify it; use
// Clone before merging extra signatures.
func Default() (*Catalogue, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = ParseCatalogue(defaultCatalogue)
	})
	return defaultCat, defaultErr
}

// ParseCatalogue decodes a YAML catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	c := &Catalogue{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	if c.Crate == "" || c.Module == "" {
		return nil, fmt.Errorf("catalogue: crate and module are required")
	}
	if c.Builders == nil {
		c.Builders = map[string]string{}
	}
	c.reindex()
	return c, nil
}

// Clone returns an independent copy of c.
func (c *Catalogue) Clone() *Catalogue {
	out := &Catalogue{
		Crate:      c.Crate,
		Module:     c.Module,
		Builders:   make(map[string]string, len(c.Builders)),
		Signatures: append([]Signature(nil), c.Signatures...),
	}
	for k, v := range c.Builders {
		out.Builders[k] = v
	}
	out.reindex()
	return out
}

// Merge adds signatures; a signature for an existing (receiver, method, arg)
// replaces the old one. Param types unknown to the catalogue are registered
// as builders defined directly in the builder module.
func (c *Catalogue) Merge(sigs []Signature) {
	for _, s := range sigs {
		if _, ok := c.Builders[s.Param]; !ok {
			c.Builders[s.Param] = ""
		}
	}
	c.Signatures = append(c.Signatures, sigs...)
	c.reindex()
}

// Retarget moves the builder namespace to crate::module.
func (c *Catalogue) Retarget(crate, module string) {
	if crate != "" {
		c.Crate = crate
	}
	if module != "" {
		c.Module = module
	}
}

func (c *Catalogue) reindex() {
	c.index = make(map[sigKey]string, len(c.Signatures))
	for _, s := range c.Signatures {
		c.index[sigKey{s.Receiver, s.Method, s.Arg}] = s.Param
	}
}

// IsBuilder reports whether name is a known builder short name.
func (c *Catalogue) IsBuilder(name string) bool {
	_, ok := c.Builders[name]
	return ok
}

// BuilderTy returns the nominal type of the builder called name.
func (c *Catalogue) BuilderTy(name string) (hir.Ty, bool) {
	sub, ok := c.Builders[name]
	if !ok {
		return hir.Ty{}, false
	}
	if sub == "" {
		return hir.Adt(c.Crate, c.Module, name), true
	}
	return hir.Adt(c.Crate, c.Module, sub, name), true
}

// IsBuilderModule reports whether path names the builder module itself.
func (c *Catalogue) IsBuilderModule(path []string) bool {
	return len(path) == 2 && path[0] == c.Crate && path[1] == c.Module
}

// Lookup returns the builder a closure passed as argument arg of
// receiver.method is configured with. A receiver-specific signature wins
// over a wildcard one.
func (c *Catalogue) Lookup(receiver, method string, arg int) (string, bool) {
	if receiver != "" {
		if p, ok := c.index[sigKey{receiver, method, arg}]; ok {
			return p, true
		}
	}
	p, ok := c.index[sigKey{AnyReceiver, method, arg}]
	return p, ok
}
