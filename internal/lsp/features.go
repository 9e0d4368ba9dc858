package lsp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"pebl/internal/eventloop"
	"pebl/internal/runtime"
	"pebl/internal/stdlib"
	"pebl/internal/token"
)

var log = commonlog.GetLogger("pebl.lsp")

// Server answers editor requests for open documents.
type Server struct {
	store *Store
	libs  []runtime.Library
	table *runtime.FunctionTable
}

// NewServer knows the standard library plus libs, the functions a host
// such as the window adds.
func NewServer(libs []runtime.Library) (*Server, error) {
	rt := runtime.NewValidator()
	if err := stdlib.Install(rt, eventloop.New(rt, nil, nil)); err != nil {
		return nil, err
	}
	if err := rt.LoadLibrary(libs); err != nil {
		return nil, err
	}
	return &Server{store: NewStore(), libs: libs, table: rt.Functions}, nil
}

// Update analyzes text and returns the diagnostics to publish.
func (s *Server) Update(ctx context.Context, uri, text string) []protocol.Diagnostic {
	if !IsScript(uri) {
		s.store.Delete(uri)
		return []protocol.Diagnostic{}
	}
	path := UriToPath(uri)
	if path == "" {
		path = uri
	}
	an := Analyze(ctx, path, text, s.libs)
	s.store.Set(uri, an)
	log.Debugf("analyzed %s: %d diagnostics", uri, len(an.Diagnostics))
	return ToLspDiagnostics(text, an.Diagnostics)
}

func (s *Server) Close(uri string) { s.store.Delete(uri) }

func (s *Server) Text(uri string) (string, bool) {
	an, ok := s.store.Get(uri)
	if !ok {
		return "", false
	}
	return an.Text, true
}

func (s *Server) occurrenceAt(uri string, pos protocol.Position) (*Analysis, Occurrence, bool) {
	an, ok := s.store.Get(uri)
	if !ok {
		return nil, Occurrence{}, false
	}
	p, ok := positionToByte(an.Text, pos)
	if !ok {
		return nil, Occurrence{}, false
	}
	occ, ok := an.At(p)
	return an, occ, ok
}

// Symbols lists the document's function definitions.
func (s *Server) Symbols(uri string) []protocol.DocumentSymbol {
	an, ok := s.store.Get(uri)
	if !ok {
		return []protocol.DocumentSymbol{}
	}
	out := []protocol.DocumentSymbol{}
	for _, o := range an.Occurrences {
		if o.Kind != SymFunc || !o.Decl {
			continue
		}
		r := rangeFor(an.Text, o.Pos, o.Name)
		detail := signature(o.Name, an.Params[o.Name])
		out = append(out, protocol.DocumentSymbol{
			Name:           o.Name,
			Detail:         &detail,
			Kind:           protocol.SymbolKindFunction,
			Range:          r,
			SelectionRange: r,
		})
	}
	return out
}

func (s *Server) Definition(uri string, pos protocol.Position) []protocol.Location {
	an, occ, ok := s.occurrenceAt(uri, pos)
	if !ok {
		return nil
	}
	for _, o := range an.Same(occ) {
		if o.Decl || occ.Kind == SymGlobal {
			return []protocol.Location{{URI: protocol.DocumentUri(uri), Range: rangeFor(an.Text, o.Pos, o.Name)}}
		}
	}
	return nil
}

func (s *Server) References(uri string, pos protocol.Position, includeDecl bool) []protocol.Location {
	an, occ, ok := s.occurrenceAt(uri, pos)
	if !ok {
		return nil
	}
	var out []protocol.Location
	for _, o := range an.Same(occ) {
		if o.Decl && !includeDecl {
			continue
		}
		out = append(out, protocol.Location{URI: protocol.DocumentUri(uri), Range: rangeFor(an.Text, o.Pos, o.Name)})
	}
	return out
}

func (s *Server) Hover(uri string, pos protocol.Position) *protocol.Hover {
	an, occ, ok := s.occurrenceAt(uri, pos)
	if !ok {
		return nil
	}

	var kindLabel, sig string
	switch occ.Kind {
	case SymFunc:
		if params, defined := an.Params[occ.Name]; defined {
			kindLabel, sig = "function", signature(occ.Name, params)
		} else if lib, isLib := s.table.LibraryByName(occ.Name); isLib {
			kindLabel, sig = "library", libSignature(lib)
		} else {
			kindLabel = "undefined function"
		}
	case SymParam:
		kindLabel = "parameter of " + occ.Function
	case SymLocal:
		kindLabel = "local in " + occ.Function
	case SymGlobal:
		kindLabel = "global"
	}

	lines := []string{fmt.Sprintf("%s: %s", kindLabel, occ.Name)}
	if sig != "" {
		lines = append(lines, sig)
	}
	contents := protocol.MarkupContent{Kind: "markdown", Value: strings.Join(lines, "\n")}
	r := rangeFor(an.Text, occ.Pos, occ.Name)
	return &protocol.Hover{Contents: contents, Range: &r}
}

func (s *Server) Completion(uri string, pos protocol.Position) []protocol.CompletionItem {
	an, ok := s.store.Get(uri)
	if !ok {
		return nil
	}
	p, ok := positionToByte(an.Text, pos)
	if !ok {
		return nil
	}
	prefix := wordBefore(an.Text, p)
	enclosing := an.functionAt(p.Line)

	seen := map[string]bool{}
	var items []completionCandidate
	add := func(name string, kind SymbolKind, detail string) {
		if seen[name] || !strings.HasPrefix(name, prefix) {
			return
		}
		seen[name] = true
		items = append(items, completionCandidate{name: name, kind: kind, detail: detail})
	}
	typed := Pos{Line: p.Line, Col: p.Col - len(prefix)}
	for _, o := range an.Occurrences {
		if o.Pos == typed {
			continue
		}
		switch {
		case local(o.Kind) && o.Function == enclosing:
			add(o.Name, o.Kind, "")
		case o.Kind == SymGlobal:
			add(o.Name, o.Kind, "")
		case o.Kind == SymFunc && o.Decl:
			add(o.Name, o.Kind, signature(o.Name, an.Params[o.Name]))
		}
	}
	for _, name := range s.table.Names() {
		if lib, ok := s.table.LibraryByName(name); ok {
			add(name, SymLibrary, libSignature(lib))
		}
	}
	for _, kw := range token.Keywords() {
		add(kw, SymKeyword, "")
	}
	return buildCompletionItems(items)
}

// functionAt names the definition enclosing line, or "".
func (a *Analysis) functionAt(line int) string {
	name := ""
	for _, o := range a.Occurrences {
		if o.Kind == SymFunc && o.Decl && o.Pos.Line <= line {
			name = o.Name
		}
	}
	return name
}

type completionCandidate struct {
	name   string
	kind   SymbolKind
	detail string
}

func buildCompletionItems(items []completionCandidate) []protocol.CompletionItem {
	sort.SliceStable(items, func(i, j int) bool {
		wi, wj := completionWeight(items[i].kind), completionWeight(items[j].kind)
		if wi != wj {
			return wi < wj
		}
		return items[i].name < items[j].name
	})
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		ci := protocol.CompletionItem{Label: it.name, Kind: completionItemKindPtr(it.kind)}
		if it.detail != "" {
			detail := it.detail
			ci.Detail = &detail
		}
		out = append(out, ci)
	}
	return out
}

func completionWeight(kind SymbolKind) int {
	switch kind {
	case SymLocal, SymParam:
		return 0
	case SymGlobal:
		return 1
	case SymFunc:
		return 2
	case SymLibrary:
		return 3
	default:
		return 4
	}
}

func completionItemKindPtr(kind SymbolKind) *protocol.CompletionItemKind {
	k := protocol.CompletionItemKindText
	switch kind {
	case SymLocal, SymParam, SymGlobal:
		k = protocol.CompletionItemKindVariable
	case SymFunc, SymLibrary:
		k = protocol.CompletionItemKindFunction
	case SymKeyword:
		k = protocol.CompletionItemKindKeyword
	}
	return &k
}

func signature(name string, params []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

func libSignature(lib *runtime.Library) string {
	switch {
	case lib.Max < 0:
		return fmt.Sprintf("%s: at least %s", lib.Name, plural(lib.Min, "argument"))
	case lib.Min == lib.Max:
		return fmt.Sprintf("%s: %s", lib.Name, plural(lib.Min, "argument"))
	}
	return fmt.Sprintf("%s: %d to %d arguments", lib.Name, lib.Min, lib.Max)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
