package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

func TestClassifyAttribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		attr   cst.Attribute
		target attrTarget
		key    string
		value  string
	}{
		{"plain prop", cst.Attribute{Name: "label", Value: "Hi", Quote: cst.QuoteDouble}, targetProp, "label", "Hi"},
		{"key only", cst.Attribute{Name: "enabled"}, targetProp, "enabled", "true"},
		{"unquoted", cst.Attribute{Name: "width", Value: "100px", Quote: cst.QuoteUnquoted}, targetProp, "width", "100px"},
		{"uid", cst.Attribute{Name: "uid", Value: "x", Quote: cst.QuoteSingle}, targetUID, "uid", "x"},
		{"testId", cst.Attribute{Name: "testId", Value: "x", Quote: cst.QuoteSingle}, targetTestID, "testId", "x"},
		{"when", cst.Attribute{Name: "when", Value: "{a}", Quote: cst.QuoteSingle}, targetWhen, "when", "{a}"},
		{"var dotted", cst.Attribute{Name: "var.count", Value: "0", Quote: cst.QuoteDouble}, targetVar, "count", "0"},
		{"global dotted", cst.Attribute{Name: "global.theme", Value: "d", Quote: cst.QuoteDouble}, targetGlobal, "theme", "d"},
		{"method dotted", cst.Attribute{Name: "method.go", Value: "f()", Quote: cst.QuoteDouble}, targetAPI, "go", "f()"},
		{"api dotted", cst.Attribute{Name: "api.go", Value: "f()", Quote: cst.QuoteDouble}, targetAPI, "go", "f()"},
		{"prop dotted", cst.Attribute{Name: "prop.size", Value: "s", Quote: cst.QuoteDouble}, targetProp, "size", "s"},
		{"event dotted", cst.Attribute{Name: "event.click", Value: "c()", Quote: cst.QuoteDouble}, targetEvent, "click", "c()"},
		{"implicit event", cst.Attribute{Name: "onClick", Value: "c()", Quote: cst.QuoteDouble}, targetEvent, "click", "c()"},
		{"implicit event camel", cst.Attribute{Name: "onDidChange", Value: "c()", Quote: cst.QuoteDouble}, targetEvent, "didChange", "c()"},
		{"on without upper", cst.Attribute{Name: "online", Value: "y", Quote: cst.QuoteDouble}, targetProp, "online", "y"},
		{"bare on", cst.Attribute{Name: "on", Value: "y", Quote: cst.QuoteDouble}, targetProp, "on", "y"},
		{"namespaced", cst.Attribute{Namespace: "xmlns", Name: "x", Value: "u", Quote: cst.QuoteDouble}, targetIgnored, "xmlns:x", ""},
		{"entities", cst.Attribute{Name: "t", Value: "a &lt; b &amp;&amp; c", Quote: cst.QuoteDouble}, targetProp, "t", "a < b && c"},
		{"backslash literal", cst.Attribute{Name: "t", Value: `a\nb\"`, Quote: cst.QuoteSingle}, targetProp, "t", `a\nb\"`},
		{"empty value", cst.Attribute{Name: "t", Value: "", Quote: cst.QuoteDouble}, targetProp, "t", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			attr := tt.attr
			got, err := classifyAttribute(&attr)
			require.NoError(t, err)
			assert.Equal(t, tt.target, got.target)
			assert.Equal(t, tt.key, got.name)
			assert.Equal(t, tt.value, got.value)
		})
	}
}

func TestClassifyAttribute_InvalidDotted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code diag.Code
	}{
		{"a.b.c", diag.CodeInvalidDottedAttr},
		{"var.x.y", diag.CodeInvalidDottedAttr},
		{".x", diag.CodeInvalidDottedAttr},
		{"var.", diag.CodeInvalidDottedAttr},
		{"style.color", diag.CodeInvalidDottedAttr},
		{"event.onClick", diag.CodeEventNameOnPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := classifyAttribute(&cst.Attribute{Name: tt.name, Value: "1", Quote: cst.QuoteDouble})
			require.ErrorIs(t, err, tt.code)
		})
	}
}

func TestTransform_NamespacedAttributesAreDropped(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, `<App xmlns:x="urn:x" x:size="3" size="4"/>`)

	assert.Len(t, def.Props, 1)
	assert.Equal(t, "4", def.Props["size"].Text)
}

func TestTransform_DottedAttributeErrorCarriesName(t *testing.T) {
	t.Parallel()

	derr := requireCode(t, `<App event.onTap="x"/>`, diag.CodeEventNameOnPrefix)

	assert.Contains(t, derr.Message, "event.onTap")
}

func TestHasEventPrefix(t *testing.T) {
	t.Parallel()

	assert.True(t, hasEventPrefix("onClick"))
	assert.True(t, hasEventPrefix("onÄnderung"))
	assert.False(t, hasEventPrefix("on"))
	assert.False(t, hasEventPrefix("once"))
	assert.False(t, hasEventPrefix("Click"))
	assert.Equal(t, "änderung", eventName("onÄnderung"))
}
