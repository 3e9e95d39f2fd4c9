package lsp

import (
	"strings"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/transform"
)

// elementDocs documents the elements with a fixed meaning.
var elementDocs = map[string]string{
	"var":                 "Declares a component variable. `<var name=\"count\" value=\"{0}\"/>`",
	"variable":            "Alias of `var`.",
	"global":              "Declares a global variable visible to the whole application.",
	"property":            "Sets a property. The value comes from `value`, text content, nested components or `field`/`item` children.",
	"event":               "Binds an event handler. The name must not start with `on`.",
	"method":              "Exposes a method on the component API.",
	"uses":                "Lists the parent state a component uses: `<uses value=\"a, b\"/>`.",
	"template":            "A property whose value is one or more components.",
	"field":               "A named member of an object value.",
	"item":                "An unnamed member of a list value.",
	"script":              "Inline script. Top-level declarations become component variables and functions.",
	"loaders":             "Holds the data loaders of a component.",
	transform.CompoundTag: "Declares a reusable component. Requires a `name` starting with an uppercase letter.",
}

// prefixDocs documents the dotted attribute prefixes.
var prefixDocs = map[string]string{
	"var":    "`var.name` declares a component variable.",
	"global": "`global.name` declares a global variable.",
	"method": "`method.name` exposes a method on the component API.",
	"api":    "`api.name` exposes a method on the component API.",
	"prop":   "`prop.name` sets a property, for names that collide with reserved attributes.",
	"event":  "`event.name` binds an event handler.",
}

func isWordByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '.' || ch == '-' || ch == ':'
}

// wordAt returns the markup word spanning offset.
func wordAt(text string, offset int) string {
	offset = min(max(offset, 0), len(text))

	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}

	end := offset
	for end < len(text) && isWordByte(text[end]) {
		end++
	}

	return text[start:end]
}

// hoverDoc returns the documentation of word, or "".
func hoverDoc(word string) string {
	if doc, ok := elementDocs[word]; ok {
		return doc
	}

	if prefix, _, ok := strings.Cut(word, "."); ok {
		return prefixDocs[prefix]
	}

	return ""
}
