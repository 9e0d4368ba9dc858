package vm

import "pebl/internal/object"

// Frame is a caller's local scope, saved on the scope stack while a lambda
// runs.
type Frame struct {
	Scope *object.Scope
	Name  string
}

func NewFrame(scope *object.Scope, name string) Frame {
	return Frame{Scope: scope, Name: name}
}

func (f Frame) clone() Frame {
	if f.Scope == nil {
		return f
	}
	return Frame{Scope: f.Scope.Clone(), Name: f.Name}
}
