package transform

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/scripting"
)

const scriptSeparator = "\n"

// scriptText is the raw content of a <script> element.
func scriptText(el *cst.Element) string {
	var b strings.Builder

	for _, child := range el.Children {
		switch n := child.(type) {
		case *cst.Text:
			b.WriteString(n.Raw)
		case *cst.CDATA:
			b.WriteString(n.Raw)
		}
	}

	return b.String()
}

// aggregateScripts joins the script bodies of one element, harvests the
// top-level declarations and records syntax and duplicate diagnostics under
// the module name. Declaration names are scoped to this element.
func (t *transformer) aggregateScripts(def *compdef.ComponentDef, scripts []string) error {
	def.Script = strings.Join(scripts, scriptSeparator)

	script, err := t.parser.Parse(def.Script)
	if err != nil {
		return fmt.Errorf("transform: script of <%s>: %w", def.Type, err)
	}

	if script.HasErrors() {
		def.ScriptError = map[string][]diag.Diagnostic{t.moduleName: script.Diagnostics}

		return nil
	}

	collected, duplicates := collectDeclarations(def.Script, script.Declarations)
	def.ScriptCollected = collected

	if len(duplicates) > 0 {
		def.ScriptError = map[string][]diag.Diagnostic{t.moduleName: duplicates}
	}

	return nil
}

// collectDeclarations files each declaration under vars or functions. The
// first declaration of a name wins; later ones become warnings, W020 when
// both are functions and W021 otherwise.
func collectDeclarations(source string, decls []scripting.Declaration) (*compdef.ScriptCollected, []diag.Diagnostic) {
	collected := &compdef.ScriptCollected{
		Vars:      map[string]compdef.Declaration{},
		Functions: map[string]compdef.Declaration{},
	}

	var (
		seen       = make(map[string]scripting.DeclKind, len(decls))
		duplicates []diag.Diagnostic
		lines      *cst.LineIndex
	)

	for _, decl := range decls {
		if first, dup := seen[decl.Name]; dup {
			code := diag.CodeDuplicateVariable
			if first.IsFunction() && decl.Kind.IsFunction() {
				code = diag.CodeDuplicateFunction
			}

			if lines == nil {
				lines = cst.NewLineIndex(source)
			}

			d := diag.NewDiagnostic(code, diag.SeverityWarning, decl.Start, decl.End, decl.Name)
			d.Line, d.Column = lines.Position(decl.Start)
			duplicates = append(duplicates, d)

			continue
		}

		seen[decl.Name] = decl.Kind

		if decl.Kind.IsFunction() {
			collected.Functions[decl.Name] = compdef.Declaration{Tree: decl.Tree}
		} else {
			collected.Vars[decl.Name] = compdef.Declaration{Tree: decl.Tree}
		}
	}

	return collected, duplicates
}
