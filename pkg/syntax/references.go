package syntax

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ritzau/forge-graph/pkg/project"
)

// Reference kinds, checked in this order
const (
	RefInstantiation   = "instantiation"
	RefTypeof          = "typeof"
	RefInheritance     = "inheritance"
	RefGenericArgument = "generic_argument"
	RefMethodCall      = "method_call"
	RefStaticAccess    = "static_access"
	RefMemberAccess    = "member_access"
	RefTypeUsage       = "type_usage"
)

// reference kinds relevant to each kind of symbol
var kindFilters = map[string]map[string]bool{
	"type": {
		RefInstantiation: true, RefTypeof: true, RefInheritance: true,
		RefGenericArgument: true, RefStaticAccess: true, RefTypeUsage: true,
	},
	"method": {RefMethodCall: true},
	"field":  {RefMemberAccess: true, RefTypeUsage: true},
}

// Reference is one classified occurrence of a symbol
type Reference struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Kind    string `json:"kind"`
	Context string `json:"context"`
}

// ReferenceResult is the outcome of FindReferences
type ReferenceResult struct {
	Symbol     string         `json:"symbol"`
	SymbolKind string         `json:"symbolKind,omitempty"`
	Scope      string         `json:"scope,omitempty"`
	References []Reference    `json:"references"`
	Count      int            `json:"count"`
	FileCount  int            `json:"fileCount"`
	ByKind     map[string]int `json:"byKind"`
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	newBefore         = regexp.MustCompile(`\bnew\s+(?:[\w.]+\.)?$`)
	typeofBefore      = regexp.MustCompile(`\btypeof\s*\(\s*(?:[\w.]+\.)?$`)
	baseListBefore    = regexp.MustCompile(`\b(?:class|struct|interface|record)\s+\w+(?:\s*<[^>]*>)?\s*:[^{;]*$`)
	genericBefore     = regexp.MustCompile(`<\s*(?:[\w.<>\[\]]+\s*,\s*)*(?:[\w.]+\.)?$`)
	genericAfter      = regexp.MustCompile(`^\s*(?:<[^>]*>\s*)?[,>\[]`)
	callAfter         = regexp.MustCompile(`^\s*(?:<[^()>]*>\s*)?\(`)
)

// FindReferences scans every script under scope for occurrences of symbol and
// classifies them. The declaration of the symbol itself is not reported.
// Kind narrows the classification to "type", "method" or "field"; empty keeps all.
func (a *Analyzer) FindReferences(symbol, kind, scope string) (*ReferenceResult, error) {
	if !identifierPattern.MatchString(symbol) {
		return nil, fmt.Errorf("symbol name %q: %w", symbol, project.ErrInvalidArgument)
	}
	kind = normalizeSymbolKind(kind)
	var filter map[string]bool
	if kind != "" {
		var ok bool
		if filter, ok = kindFilters[kind]; !ok {
			return nil, fmt.Errorf("symbol kind %q (want type, method, field or property): %w", kind, project.ErrInvalidArgument)
		}
	}

	files, err := a.load(scope)
	if err != nil {
		return nil, err
	}

	word := regexp.MustCompile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
	result := &ReferenceResult{
		Symbol:     symbol,
		SymbolKind: kind,
		Scope:      scope,
		References: []Reference{},
		ByKind:     make(map[string]int),
	}
	filesWithRefs := make(map[string]bool)

	for _, f := range files {
		declared := declarationLines(f.info, symbol)
		for _, loc := range word.FindAllStringIndex(f.src.text, -1) {
			line := f.src.line(loc[0])
			if declared[line] {
				continue
			}
			refKind := classify(f.src.text, loc[0], loc[1])
			if filter != nil && !filter[refKind] {
				continue
			}
			result.References = append(result.References, Reference{
				File:    f.path,
				Line:    line,
				Column:  loc[0] - f.src.lineStarts[line-1] + 1,
				Kind:    refKind,
				Context: strings.TrimSpace(f.src.lineText(line)),
			})
			result.ByKind[refKind]++
			filesWithRefs[f.path] = true
		}
	}

	result.Count = len(result.References)
	result.FileCount = len(filesWithRefs)
	return result, nil
}

func normalizeSymbolKind(kind string) string {
	switch strings.ToLower(kind) {
	case "":
		return ""
	case "type", "class", "struct", "interface", "enum":
		return "type"
	case "method", "function":
		return "method"
	case "field", "property", "variable":
		return "field"
	default:
		return strings.ToLower(kind)
	}
}

// declarationLines returns the lines on which symbol is declared
func declarationLines(info *ScriptInfo, symbol string) map[int]bool {
	lines := make(map[int]bool)
	for _, t := range info.Types {
		if t.Name == symbol {
			lines[t.StartLine] = true
		}
		for _, m := range t.Methods {
			if m.Name == symbol {
				lines[m.StartLine] = true
			}
		}
		for _, f := range t.Fields {
			if f.Name == symbol {
				lines[f.Line] = true
			}
		}
		for _, p := range t.Properties {
			if p.Name == symbol {
				lines[p.Line] = true
			}
		}
	}
	return lines
}

// classify decides what kind of use the occurrence at [start, end) is
func classify(text string, start, end int) string {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := strings.IndexByte(text[end:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += end
	}
	before := text[lineStart:start]
	after := text[end:lineEnd]

	switch {
	case newBefore.MatchString(before):
		return RefInstantiation
	case typeofBefore.MatchString(before):
		return RefTypeof
	case baseListBefore.MatchString(before):
		return RefInheritance
	case genericBefore.MatchString(before) && genericAfter.MatchString(after):
		return RefGenericArgument
	case callAfter.MatchString(after):
		return RefMethodCall
	case strings.HasPrefix(strings.TrimLeft(after, " \t"), ".") && !strings.HasSuffix(strings.TrimRight(before, " \t"), "."):
		return RefStaticAccess
	case strings.HasSuffix(strings.TrimRight(before, " \t"), "."):
		return RefMemberAccess
	default:
		return RefTypeUsage
	}
}
