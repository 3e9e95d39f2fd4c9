package compdef

import "sort"

// Visitor is called for every ComponentDef reached by Walk. parent is nil for
// the root. Returning false skips the node's descendants.
type Visitor func(def, parent *ComponentDef) bool

// Walk visits def and every nested ComponentDef in pre-order: children,
// loaders, then component-valued props, vars and global vars (by sorted
// name, so the order is deterministic).
func Walk(def *ComponentDef, visit Visitor) {
	walk(def, nil, visit)
}

// WalkDefinition walks the root component of d.
func WalkDefinition(d Definition, visit Visitor) {
	if root := d.Root(); root != nil {
		walk(root, nil, visit)
	}
}

func walk(def, parent *ComponentDef, visit Visitor) {
	if def == nil || !visit(def, parent) {
		return
	}

	for _, child := range def.Children {
		walk(child, def, visit)
	}

	for _, loader := range def.Loaders {
		walk(loader, def, visit)
	}

	for _, values := range []map[string]Value{def.Props, def.Vars, def.GlobalVars} {
		for _, name := range sortedKeys(values) {
			walkValue(values[name], def, visit)
		}
	}
}

func walkValue(v Value, owner *ComponentDef, visit Visitor) {
	switch v.Kind {
	case KindComponent:
		walk(v.Component, owner, visit)
	case KindList:
		for _, item := range v.List {
			walkValue(item, owner, visit)
		}
	case KindObject:
		for _, name := range sortedKeys(v.Object) {
			walkValue(v.Object[name], owner, visit)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// Stats counts what a definition tree contains.
type Stats struct {
	Components  int
	MaxDepth    int
	Diagnostics int
}

// Collect computes Stats for d.
func Collect(d Definition) Stats {
	var stats Stats

	depth := map[*ComponentDef]int{}

	WalkDefinition(d, func(def, parent *ComponentDef) bool {
		level := 1
		if parent != nil {
			level = depth[parent] + 1
		}

		depth[def] = level
		stats.Components++
		stats.MaxDepth = max(stats.MaxDepth, level)

		for _, diags := range def.ScriptError {
			stats.Diagnostics += len(diags)
		}

		return true
	})

	return stats
}
