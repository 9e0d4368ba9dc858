package eventloop

import (
	"fmt"
	"strings"

	"pebl/internal/evaluator"
	"pebl/internal/object"
	"pebl/internal/runtime"
	"pebl/internal/semantics"
	"pebl/internal/vm"
)

// registration describes a RegisterEvent device name. fixed tests ignore
// the script's value and comparison and check State against state.
type registration struct {
	device DeviceType
	event  bool
	fixed  bool
	state  int64
}

var registrations = map[string]registration{
	"<KEY_PRESS>":            {device: DeviceKeyboard, event: true, fixed: true, state: 1},
	"<KEY_RELEASE>":          {device: DeviceKeyboard, event: true, fixed: true, state: 0},
	"<KEYBOARD>":             {device: DeviceKeyboard},
	"<MOUSE_BUTTON_PRESS>":   {device: DeviceMouseButton, event: true, fixed: true, state: 1},
	"<MOUSE_BUTTON_RELEASE>": {device: DeviceMouseButton, event: true, fixed: true, state: 0},
	"<MOUSE_BUTTON>":         {device: DeviceMouseButton, event: true},
	"<MOUSE_MOVEMENT>":       {device: DeviceMouseMovement, event: true},
	"<WINDOW_RESIZE>":        {device: DeviceWindow, event: true},
	"<TEXT_INPUT>":           {device: DeviceTextInput, event: true},
	"<TIMER>":                {device: DeviceTimer},
}

// Functions binds the event-loop library to l.
func (l *Loop) Functions() []runtime.Library {
	return []runtime.Library{
		{Name: "RegisterEvent", Min: 5, Max: 6, Fn: l.registerEvent},
		{Name: "ClearEventLoop", Min: 0, Max: 0, Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			l.Clear()
			return nil, nil
		}},
		{Name: "StartEventLoop", Min: 0, Max: 0, Fn: func(rt *runtime.Runtime, _ []object.Object) (object.Object, error) {
			return l.launch(rt, nil, false)
		}},
		{Name: "Wait", Min: 1, Max: 1, Fn: l.wait},
		{Name: "WaitForKeyDown", Min: 1, Max: 1, Fn: l.waitKey(false, 1, Equal)},
		{Name: "WaitForKeyUp", Min: 1, Max: 1, Fn: l.waitKey(false, 1, NotEqual)},
		{Name: "WaitForKeyPress", Min: 1, Max: 1, Fn: l.waitKey(true, 1, Equal)},
		{Name: "WaitForKeyRelease", Min: 1, Max: 1, Fn: l.waitKey(true, 0, Equal)},
		{Name: "WaitForAnyKeyDown", Min: 0, Max: 0, Fn: l.waitAnyKey(false)},
		{Name: "WaitForAnyKeyPress", Min: 0, Max: 0, Fn: l.waitAnyKey(true)},
		{Name: "IsKeyDown", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
			return object.NewBool(l.Device.KeyDown(args[0].Inspect())), nil
		}},
		{Name: "IsKeyUp", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
			return object.NewBool(!l.Device.KeyDown(args[0].Inspect())), nil
		}},
		{Name: "IsAnyKeyDown", Min: 0, Max: 0, Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			return object.NewBool(l.Device.DownKey() != ""), nil
		}},
	}
}

// launch starts the loop on whichever evaluator is running. On the
// iterative machine it only queues the first cycle and the loop's result
// later replaces this call's value.
func (l *Loop) launch(rt *runtime.Runtime, reply func(Event) object.Object, temporary bool) (object.Object, error) {
	if l.running {
		return nil, rt.Fatal(nil, "Event loop is already running")
	}
	l.start(reply, temporary)
	switch e := rt.Engine().(type) {
	case *vm.Machine:
		return nil, e.PushCycle(l)
	case *evaluator.Evaluator:
		return l.Run(e)
	}
	l.running = false
	return nil, rt.Fatal(nil, "Event loop needs a running evaluator")
}

func (l *Loop) registerEvent(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
	name := strings.ToUpper(args[0].Inspect())
	reg, ok := registrations[name]
	if !ok {
		return nil, fmt.Errorf("Unknown device type [%s] in function [RegisterEvent]", args[0].Inspect())
	}
	test := Test{Device: reg.device, Interface: args[1].Inspect()}
	if reg.fixed {
		test.Value, test.Condition = reg.state, Equal
	} else {
		v, ok := integerArg(args[2])
		if !ok {
			return nil, fmt.Errorf("In RegisterEvent, test value not a number: %s", args[2].Inspect())
		}
		cond, ok := ParseCondition(args[3].Inspect())
		if !ok {
			return nil, fmt.Errorf("Unknown comparison [%s] in function [RegisterEvent]", args[3].Inspect())
		}
		test.Value, test.Condition = v, cond
	}

	callback := args[4].Inspect()
	params := object.NewList()
	if len(args) > 5 {
		if p, ok := args[5].(*object.List); ok {
			params = p
		}
	}

	var err error
	if reg.event {
		_, err = l.RegisterEvent(test, callback, params)
	} else {
		_, err = l.RegisterState(test, callback, params)
	}
	return nil, err
}

func (l *Loop) wait(rt *runtime.Runtime, args []object.Object) (object.Object, error) {
	ms, ok := integerArg(args[0])
	if !ok {
		return nil, fmt.Errorf("Argument error in function [Wait(<number>)]: %s is not a number", args[0].Inspect())
	}
	test := Test{Device: DeviceTimer, Value: l.Device.Now() + ms, Condition: GreaterEqual}
	if _, err := l.RegisterState(test, "", nil); err != nil {
		return nil, err
	}
	return l.launch(rt, func(ev Event) object.Object { return object.NewInteger(ev.Time) }, true)
}

func (l *Loop) waitKey(event bool, state int64, cond Condition) runtime.LibraryFunc {
	return func(rt *runtime.Runtime, args []object.Object) (object.Object, error) {
		key := args[0].Inspect()
		test := Test{Device: DeviceKeyboard, Value: state, Interface: key, Condition: cond}
		var err error
		if event {
			_, err = l.RegisterEvent(test, "", nil)
		} else {
			_, err = l.RegisterState(test, "", nil)
		}
		if err != nil {
			return nil, err
		}
		return l.launch(rt, func(Event) object.Object { return object.NewString(key) }, true)
	}
}

func (l *Loop) waitAnyKey(event bool) runtime.LibraryFunc {
	return func(rt *runtime.Runtime, _ []object.Object) (object.Object, error) {
		test := Test{Device: DeviceKeyboard, Value: 1, Condition: Equal}
		var err error
		if event {
			_, err = l.RegisterEvent(test, "", nil)
		} else {
			_, err = l.RegisterState(test, "", nil)
		}
		if err != nil {
			return nil, err
		}
		return l.launch(rt, func(ev Event) object.Object { return object.NewString(ev.Key) }, true)
	}
}

func integerArg(o object.Object) (int64, bool) {
	n, ok := semantics.ToNumber(o)
	if !ok {
		return 0, false
	}
	switch v := n.(type) {
	case *object.Integer:
		return v.Value, true
	case *object.Float:
		return int64(v.Value), true
	}
	return 0, false
}
