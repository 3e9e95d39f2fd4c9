package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

func TestValueOf_Structured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want compdef.Value
	}{
		{
			"items",
			`<item value="a"/><item>b</item><item/>`,
			compdef.List(compdef.Text("a"), compdef.Text("b"), compdef.Null()),
		},
		{
			"nested object in list",
			`<item><field name="k" value="v"/></item>`,
			compdef.List(compdef.Object(map[string]compdef.Value{"k": compdef.Text("v")})),
		},
		{
			"nested list in object",
			`<field name="tags"><item value="x"/><item value="y"/></field>`,
			compdef.Object(map[string]compdef.Value{"tags": compdef.List(compdef.Text("x"), compdef.Text("y"))}),
		},
		{
			"repeated field becomes list",
			`<field name="k" value="1"/><field name="k" value="2"/><field name="o" value="3"/>`,
			compdef.Object(map[string]compdef.Value{
				"k": compdef.List(compdef.Text("1"), compdef.Text("2")),
				"o": compdef.Text("3"),
			}),
		},
		{
			"empty field is null",
			`<field name="k"></field>`,
			compdef.Object(map[string]compdef.Value{"k": compdef.Null()}),
		},
		{
			"whitespace between fields ignored",
			"\n  <field name=\"k\" value=\"1\"/>\n  <!-- c -->\n",
			compdef.Object(map[string]compdef.Value{"k": compdef.Text("1")}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := mustComponent(t, `<A><property name="p">`+tt.body+`</property></A>`)
			assert.Equal(t, tt.want, def.Props["p"])
		})
	}
}

func TestValueOf_ValueAttributeWins(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, `<A><var name="v" value="attr">content</var></A>`)

	assert.Equal(t, compdef.Text("attr"), def.Vars["v"])
}

func TestValueOf_EmptyContainerIsNull(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, `<A><var name="v"/><global name="g"></global><property name="p"> </property></A>`)

	assert.Equal(t, compdef.Null(), def.Vars["v"])
	assert.Equal(t, compdef.Null(), def.GlobalVars["g"])
	assert.Equal(t, compdef.Null(), def.Props["p"])
}

func TestValueOf_ComponentValuedProperty(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, `<List><property name="itemTemplate"><Card title="x"/></property>`+
		`<template name="footer"><A/>text<B/></template></List>`)

	single := def.Props["itemTemplate"]
	require.Equal(t, compdef.KindComponent, single.Kind)
	assert.Equal(t, "Card", single.Component.Type)
	assert.Equal(t, compdef.Text("x"), single.Component.Props["title"])

	multi := def.Props["footer"]
	require.Equal(t, compdef.KindList, multi.Kind)
	require.Len(t, multi.List, 3)
	assert.Equal(t, "A", multi.List[0].Component.Type)
	assert.Equal(t, compdef.TypeTextNode, multi.List[1].Component.Type)
	assert.Equal(t, "B", multi.List[2].Component.Type)
}

func TestValueOf_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"item after field", `<A><var name="v"><field name="a"/><item/></var></A>`, diag.CodeMixedFieldItem},
		{"field after item", `<A><var name="v"><item/><field name="a"/></var></A>`, diag.CodeMixedFieldItem},
		{"mixed deep", `<A><var name="v"><field name="a"><item/><field name="b"/></field></var></A>`, diag.CodeMixedFieldItem},
		{"named item", `<A><var name="v"><item name="x"/></var></A>`, diag.CodeNamedItem},
		{"unnamed field", `<A><var name="v"><field value="1"/></var></A>`, diag.CodeMissingName},
		{"empty field name", `<A><var name="v"><field name=" "/></var></A>`, diag.CodeMissingName},
		{"missing var name", `<A><var value="1"/></A>`, diag.CodeMissingName},
		{"empty var name", `<A><variable name=""/></A>`, diag.CodeMissingName},
		{"key-only name", `<A><property name/></A>`, diag.CodeMissingName},
		{"bad attribute", `<A><var name="v" type="x"/></A>`, diag.CodeInvalidDeclAttr},
		{"bad field attribute", `<A><var name="v"><field name="f" extra/></var></A>`, diag.CodeInvalidDeclAttr},
		{"component in var", `<A><var name="v"><B/></var></A>`, diag.CodeInvalidValueChild},
		{"component in global", `<A><global name="v"><B/></global></A>`, diag.CodeInvalidValueChild},
		{"script in property", `<A><property name="v"><script>x</script></property></A>`, diag.CodeInvalidValueChild},
		{"var in property", `<A><property name="v"><var name="x"/></property></A>`, diag.CodeInvalidValueChild},
		{"component mixed with field", `<A><property name="v"><B/><field name="x"/></property></A>`, diag.CodeInvalidValueChild},
		{"compound in property", `<A><property name="v"><Component name="Cx"/></property></A>`, diag.CodeInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			requireCode(t, tt.src, tt.code)
		})
	}
}

func TestDeclSet_RepetitionLaw(t *testing.T) {
	t.Parallel()

	for k := 1; k <= 4; k++ {
		var set declSet

		values := make([]compdef.Value, 0, k)

		for i := range k {
			v := compdef.Text(string(rune('a' + i)))
			values = append(values, v)
			set.add("n", v)
			set.add("other", compdef.Null())
		}

		got := set.finalize()["n"]
		if k == 1 {
			assert.Equal(t, values[0], got)

			continue
		}

		assert.Equal(t, compdef.List(values...), got)
	}

	var empty declSet
	assert.Nil(t, empty.finalize())
	assert.True(t, empty.empty())
}

func TestHandlerSet_LastWins(t *testing.T) {
	t.Parallel()

	var set handlerSet
	assert.Nil(t, set.finalize())

	set.set("a", "1")
	set.set("a", "2")
	assert.Equal(t, map[string]string{"a": "2"}, set.finalize())
}
