package object

import (
	"fmt"
	"sort"
)

// Scope is a flat variable table. Each lambda call frame owns one and every
// Runtime owns exactly one global instance; there is no outer chaining.
type Scope struct {
	store map[string]Object
}

func NewScope() *Scope {
	return &Scope{store: map[string]Object{}}
}

func (s *Scope) Get(name string) (Object, bool) {
	obj, ok := s.store[name]
	return obj, ok
}

func (s *Scope) Set(name string, val Object) error {
	if IsSignal(val) {
		return fmt.Errorf("cannot store %s in variable %s", val.Inspect(), name)
	}
	s.store[name] = val
	return nil
}

func (s *Scope) Has(name string) bool {
	_, ok := s.store[name]
	return ok
}

func (s *Scope) Len() int { return len(s.store) }

func (s *Scope) Clear() {
	for k := range s.store {
		delete(s.store, k)
	}
}

func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.store))
	for k := range s.store {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Scope) Snapshot() map[string]Object {
	out := make(map[string]Object, len(s.store))
	for k, v := range s.store {
		out[k] = v
	}
	return out
}

// Replace makes s hold exactly the entries of from.
func (s *Scope) Replace(from *Scope) {
	s.Clear()
	for k, v := range from.store {
		s.store[k] = v
	}
}

// Clone copies the table; complex values stay shared.
func (s *Scope) Clone() *Scope {
	return &Scope{store: s.Snapshot()}
}
