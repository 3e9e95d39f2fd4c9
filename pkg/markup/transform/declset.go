package transform

import "github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"

// declSet accumulates named values for one element in declaration order and
// is finalized exactly once: a name seen once maps to its value, a name seen
// several times maps to a list of all its values in order.
type declSet struct {
	order  []string
	values map[string][]compdef.Value
}

func (s *declSet) add(name string, v compdef.Value) {
	if s.values == nil {
		s.values = make(map[string][]compdef.Value)
	}

	if _, seen := s.values[name]; !seen {
		s.order = append(s.order, name)
	}

	s.values[name] = append(s.values[name], v)
}

func (s *declSet) empty() bool {
	return len(s.order) == 0
}

// finalize returns nil for an empty set.
func (s *declSet) finalize() map[string]compdef.Value {
	if s.empty() {
		return nil
	}

	out := make(map[string]compdef.Value, len(s.order))

	for _, name := range s.order {
		values := s.values[name]
		if len(values) == 1 {
			out[name] = values[0]

			continue
		}

		out[name] = compdef.List(values...)
	}

	return out
}

// handlerSet holds event and API handlers, where a repeated name keeps the
// last handler.
type handlerSet map[string]string

func (h *handlerSet) set(name, handler string) {
	if *h == nil {
		*h = make(handlerSet)
	}

	(*h)[name] = handler
}

func (h handlerSet) finalize() map[string]string {
	if len(h) == 0 {
		return nil
	}

	return h
}
