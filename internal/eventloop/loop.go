package eventloop

import (
	"time"

	"pebl/internal/evaluator"
	"pebl/internal/object"
	"pebl/internal/runtime"
	"pebl/internal/vm"
)

// Callbacks returning either spelling remove their own registration.
const (
	RemoveSentinel      = "<REMOVE>"
	RemoveSentinelLower = "<remove>"
)

func isRemove(v object.Object) bool {
	s, ok := v.(*object.String)
	return ok && (s.Value == RemoveSentinel || s.Value == RemoveSentinelLower)
}

type entry struct {
	id       int
	test     Test
	callback string
	params   *object.List
	event    bool
}

// Loop is the cooperative scheduler. Each cycle it primes the queue, tests
// the registrations in order and reacts to the first match only: by
// scheduling its callback, or by ending the loop when it has none.
type Loop struct {
	rt     *runtime.Runtime
	Queue  EventQueue
	Device DeviceState

	// Idle runs after a cycle in which nothing matched.
	Idle func()

	entries []entry
	nextID  int

	running   bool
	temporary bool
	reply     func(Event) object.Object
	last      Event
	matched   bool
	result    object.Object
}

// New builds a loop reading q and d. A nil queue never has events; a nil
// device reports no input and reads time from the runtime's clock.
func New(rt *runtime.Runtime, q EventQueue, d DeviceState) *Loop {
	if q == nil {
		q = NewBuffer(nil)
	}
	if d == nil {
		d = Clock(rt.Clock)
	}
	return &Loop{
		rt:     rt,
		Queue:  q,
		Device: d,
		Idle:   func() { time.Sleep(100 * time.Microsecond) },
	}
}

func (l *Loop) register(test Test, callback string, params *object.List, event bool) (int, error) {
	if callback != "" && !l.rt.Functions.Has(callback) {
		return 0, l.rt.Fatalf(nil, "Undefined function [%s]", callback)
	}
	if params == nil {
		params = object.NewList()
	}
	l.nextID++
	l.entries = append(l.entries, entry{
		id:       l.nextID,
		test:     test,
		callback: callback,
		params:   params,
		event:    event,
	})
	return l.nextID, nil
}

// RegisterState adds a test polled against the live device state. An empty
// callback ends the loop when the test fires.
func (l *Loop) RegisterState(test Test, callback string, params *object.List) (int, error) {
	return l.register(test, callback, params, false)
}

// RegisterEvent adds a test matched against the head of the event queue.
func (l *Loop) RegisterEvent(test Test, callback string, params *object.List) (int, error) {
	return l.register(test, callback, params, true)
}

func (l *Loop) Clear() {
	l.entries = nil
}

func (l *Loop) Len() int { return len(l.entries) }

func (l *Loop) Running() bool { return l.running }

func (l *Loop) remove(id int) bool {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// start arms the loop. reply turns the event that ended it into the
// loop's result; temporary registrations are cleared once it ends.
func (l *Loop) start(reply func(Event) object.Object, temporary bool) {
	if reply == nil {
		reply = func(ev Event) object.Object { return ev.Object() }
	}
	l.running = true
	l.temporary = temporary
	l.reply = reply
	l.matched = false
	l.result = nil
	l.rt.SetKeepLooping(true)
}

func (l *Loop) finish() {
	l.running = false
	if l.matched {
		l.result = l.reply(l.last)
	}
	if l.temporary {
		l.Clear()
	}
}

// Result is what the last completed loop produced, or nil when no test
// ever matched.
func (l *Loop) Result() object.Object { return l.result }

// match primes the queue and finds the first registration satisfied this
// cycle. An unmatched event at the head of the queue is dropped.
func (l *Loop) match() (Event, entry, bool) {
	l.Queue.Prime()
	for _, e := range l.entries {
		if e.event {
			if l.Queue.IsEmpty() || l.Queue.PeekType() != e.test.Device {
				continue
			}
			ev := l.Queue.Peek()
			if !e.test.matchEvent(ev) {
				continue
			}
			l.Queue.Pop()
			return ev, e, true
		}
		if ev, ok := e.test.poll(l.Device); ok {
			return ev, e, true
		}
	}
	if !l.Queue.IsEmpty() {
		l.Queue.Pop()
	}
	return Event{}, entry{}, false
}

func (l *Loop) arguments(e entry, ev Event) *object.List {
	args := make([]object.Object, 0, len(e.params.Elements)+1)
	args = append(args, e.params.Elements...)
	args = append(args, ev.Object())
	return object.NewList(args...)
}

type dispatchFunc func(callback string, args *object.List, id int) error

// cycle is one pass shared by RunCycle and Run. It reports whether the
// loop goes on.
func (l *Loop) cycle(dispatch dispatchFunc) (bool, error) {
	if !l.running {
		l.start(nil, false)
	}
	if !l.rt.KeepLooping() {
		l.finish()
		return false, nil
	}
	if len(l.entries) == 0 {
		l.rt.Warn(nil, "Event loop started with no tests registered")
		l.rt.SetKeepLooping(false)
		l.finish()
		return false, nil
	}

	ev, e, ok := l.match()
	if !ok {
		if l.Idle != nil {
			l.Idle()
		}
		return true, nil
	}
	l.last, l.matched = ev, true
	l.rt.Log.Debug().
		Str("device", e.test.Device.String()).
		Str("callback", e.callback).
		Int("entry", e.id).
		Msg("event loop match")

	if e.callback == "" {
		l.rt.SetKeepLooping(false)
		l.finish()
		return false, nil
	}
	if err := dispatch(e.callback, l.arguments(e, ev), e.id); err != nil {
		l.running = false
		return false, err
	}
	return true, nil
}

// RunCycle runs one cycle on the iterative machine. A matched callback is
// only scheduled; the machine runs it before the next cycle.
func (l *Loop) RunCycle(m *vm.Machine) (bool, error) {
	return l.cycle(func(callback string, args *object.List, id int) error {
		return m.ScheduleCall(callback, args, id, l)
	})
}

// CallbackReturned applies a callback's result: either remove sentinel
// drops the registration that fired, and the loop ends once none remain.
func (l *Loop) CallbackReturned(id int, result object.Object) error {
	if !isRemove(result) {
		return nil
	}
	l.remove(id)
	if len(l.entries) == 0 {
		l.rt.SetKeepLooping(false)
	}
	return nil
}

// Run drives the loop to completion on the recursive evaluator, calling
// each callback directly.
func (l *Loop) Run(ev *evaluator.Evaluator) (object.Object, error) {
	for {
		more, err := l.cycle(func(callback string, args *object.List, id int) error {
			res, err := ev.Call(callback, args)
			if err != nil {
				return err
			}
			return l.CallbackReturned(id, res)
		})
		if err != nil {
			return nil, err
		}
		if !more {
			return l.result, nil
		}
	}
}
