package gfx

import (
	"fmt"
	"image/color"

	"pebl/internal/object"
	"pebl/internal/runtime"
	"pebl/internal/semantics"
)

// Functions is the window library scripts see under `pebl gfx`.
func (h *Host) Functions() []runtime.Library {
	return []runtime.Library{
		{Name: "SetBackgroundColor", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
			c, err := colorArg("SetBackgroundColor(<color>)", args[0])
			if err != nil {
				return nil, err
			}
			h.mu.Lock()
			h.clear = c
			h.mu.Unlock()
			return nil, nil
		}},
		{Name: "DrawRect", Min: 5, Max: 5, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
			const sig = "DrawRect(<x>, <y>, <width>, <height>, <color>)"
			var dims [4]float32
			for i := range dims {
				f, err := floatArg(sig, args[i])
				if err != nil {
					return nil, err
				}
				dims[i] = f
			}
			c, err := colorArg(sig, args[4])
			if err != nil {
				return nil, err
			}
			h.mu.Lock()
			h.commands = append(h.commands, rectCmd{x: dims[0], y: dims[1], w: dims[2], h: dims[3], c: c})
			h.mu.Unlock()
			return nil, nil
		}},
		{Name: "ClearScreen", Min: 0, Max: 0, Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			h.mu.Lock()
			h.commands = h.commands[:0]
			h.mu.Unlock()
			return nil, nil
		}},
		{Name: "GetVideoWidth", Min: 0, Max: 0, Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			return object.NewInteger(int64(h.width)), nil
		}},
		{Name: "GetVideoHeight", Min: 0, Max: 0, Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			return object.NewInteger(int64(h.height)), nil
		}},
		{Name: "CloseWindow", Min: 0, Max: 0, Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			h.Close()
			return nil, nil
		}},
	}
}

func colorArg(sig string, o object.Object) (color.RGBA, error) {
	c, ok := o.(*object.Color)
	if !ok {
		return color.RGBA{}, fmt.Errorf("Argument error in function [%s]: %s is not a color", sig, o.Inspect())
	}
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}, nil
}

func floatArg(sig string, o object.Object) (float32, error) {
	n, ok := semantics.ToNumber(o)
	if !ok {
		return 0, fmt.Errorf("Argument error in function [%s]: %s is not a number", sig, o.Inspect())
	}
	switch v := n.(type) {
	case *object.Integer:
		return float32(v.Value), nil
	case *object.Float:
		return float32(v.Value), nil
	}
	return 0, nil
}
