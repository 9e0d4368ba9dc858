package limits

import "fmt"

// DefaultMaxStackDepth bounds both the recursive evaluator's call depth and
// each of the continuation evaluator's stacks.
const DefaultMaxStackDepth = 10000

const (
	StackDepthMessage = "Maximum Stack Depth Exceeded. Runaway Function?"
	EmptyStackMessage = "Tried to Pop an empty stack"
)

type DepthError struct {
	Limit int
}

func (e DepthError) Error() string {
	return StackDepthMessage
}

type EmptyStackError struct {
	Stack string
}

func (e EmptyStackError) Error() string {
	if e.Stack == "" {
		return EmptyStackMessage
	}
	return fmt.Sprintf("%s (%s stack)", EmptyStackMessage, e.Stack)
}

func MaxStepsMessage(limit int64) string {
	return fmt.Sprintf("max steps exceeded (%d)", limit)
}

type MaxStepsError struct {
	Limit int64
}

func (e MaxStepsError) Error() string {
	return MaxStepsMessage(e.Limit)
}

// Depth tracks nesting against a limit. A zero limit means
// DefaultMaxStackDepth; a negative one disables the check.
type Depth struct {
	limit int
	depth int
}

func NewDepth(limit int) *Depth {
	if limit == 0 {
		limit = DefaultMaxStackDepth
	}
	return &Depth{limit: limit}
}

func (d *Depth) Limit() int {
	if d == nil {
		return 0
	}
	return d.limit
}

func (d *Depth) Current() int {
	if d == nil {
		return 0
	}
	return d.depth
}

func (d *Depth) Enter() error {
	if d == nil {
		return nil
	}
	if d.limit > 0 && d.depth >= d.limit {
		return DepthError{Limit: d.limit}
	}
	d.depth++
	return nil
}

func (d *Depth) Leave() {
	if d != nil && d.depth > 0 {
		d.depth--
	}
}

// Budget counts evaluation steps. A zero limit is unlimited.
type Budget struct {
	limit int64
	used  int64
}

func NewBudget(limit int64) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}

func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used
}

func (b *Budget) Reset() {
	if b != nil {
		b.used = 0
	}
}

func (b *Budget) Charge(n int64) error {
	if b == nil || b.limit == 0 {
		return nil
	}
	if n <= 0 {
		return nil
	}
	if b.used+n > b.limit {
		return MaxStepsError{Limit: b.limit}
	}
	b.used += n
	return nil
}
