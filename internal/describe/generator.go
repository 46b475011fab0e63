package describe

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Describer produces descriptions for classified lines.
type Describer interface {
	HasCommand(name string) bool
	Describe(cl CmdLine) *CmdDesc
}

// CommandSource supplies descriptions of registered commands.
type CommandSource interface {
	HasCommand(name string) bool
	Descriptor(name string) *CmdDesc
}

// Signature is one resolved call signature.
type Signature struct {
	Name   string
	Params []string
}

func (s Signature) String() string {
	return s.Name + "(" + strings.Join(s.Params, ", ") + ")"
}

// Resolver finds the signatures a call could refer to.
type Resolver interface {
	Resolve(call string) ([]Signature, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(call string) ([]Signature, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(call string) ([]Signature, error) {
	return f(call)
}

// ResolutionError reports that a call could not be resolved.
type ResolutionError struct {
	Msg string
}

func (e *ResolutionError) Error() string { return e.Msg }

// StaticResolver resolves calls from a fixed symbol table keyed by method
// name. Fallback answers for unknown names. Sources longer than MaxSource
// are refused when MaxSource is positive.
type StaticResolver struct {
	Methods   map[string][]Signature
	Fallback  []Signature
	MaxSource int
}

var callNameRE = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\($`)

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(call string) ([]Signature, error) {
	if r.MaxSource > 0 && len(call) > r.MaxSource {
		return nil, &ResolutionError{Msg: "Failed to create object from source: " + call}
	}
	name := ""
	if i := strings.LastIndexByte(call, '('); i >= 0 {
		if m := callNameRE.FindStringSubmatch(call[:i+1]); m != nil {
			name = m[1]
		}
	}
	if sigs, ok := r.Methods[name]; ok {
		return sigs, nil
	}
	if len(r.Fallback) > 0 {
		return r.Fallback, nil
	}
	return nil, &ResolutionError{Msg: fmt.Sprintf("No method %q found", name)}
}

// DefaultKeywords open constructs whose header is still being typed when
// they are followed only by whitespace.
var DefaultKeywords = []string{"if", "while", "for"}

// Generator describes lines using the command registry for commands and a
// Resolver for calls. It never panics: failures become error lines.
type Generator struct {
	Commands CommandSource
	Resolver Resolver
	// Keywords overrides DefaultKeywords.
	Keywords []string
}

// HasCommand implements Describer.
func (g *Generator) HasCommand(name string) bool {
	return g.Commands != nil && g.Commands.HasCommand(name)
}

// Describe implements Describer.
func (g *Generator) Describe(cl CmdLine) (desc *CmdDesc) {
	defer func() {
		if r := recover(); r != nil {
			desc = failure(fmt.Errorf("%v", r))
		}
	}()

	switch cl.Type {
	case Command:
		if g.Commands == nil || len(cl.Args) == 0 {
			return nil
		}
		return g.Commands.Descriptor(cl.Head)
	case Method:
		return g.method(cl)
	case Syntax:
		return InvalidSyntax()
	}
	return nil
}

func (g *Generator) method(cl CmdLine) *CmdDesc {
	keywords := g.Keywords
	if keywords == nil {
		keywords = DefaultKeywords
	}
	for _, kw := range keywords {
		if keywordAtEnd(kw).MatchString(cl.Head) {
			return nil
		}
	}
	if g.Resolver == nil {
		return nil
	}
	sigs, err := g.Resolver.Resolve(cl.Line)
	if err != nil {
		return failure(err)
	}
	main := make([]Line, len(sigs))
	for i, s := range sigs {
		main[i] = Line{Text: s.String()}
	}
	return &CmdDesc{Main: main}
}

func keywordAtEnd(kw string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\s*$`)
}

func failure(err error) *CmdDesc {
	var lines []Line
	for _, s := range strings.Split(err.Error(), "\n") {
		lines = append(lines, Line{Text: s, Severity: Error})
	}
	return &CmdDesc{Main: lines}
}

// Static describes commands from a fixed table.
type Static map[string]*CmdDesc

// HasCommand implements Describer.
func (s Static) HasCommand(name string) bool {
	_, ok := s[name]
	return ok
}

// Describe implements Describer.
func (s Static) Describe(cl CmdLine) *CmdDesc {
	switch cl.Type {
	case Command:
		return s[cl.Head]
	case Syntax:
		return InvalidSyntax()
	}
	return nil
}

// Names lists the described commands, sorted.
func (s Static) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
