package stdlib

import (
	"errors"
	"strings"
	"unicode/utf8"

	"pebl/internal/object"
	"pebl/internal/runtime"
)

var text = []runtime.Library{
	{Name: "Uppercase", Min: 1, Max: 1, Fn: mapString("Uppercase(<string>)", strings.ToUpper)},
	{Name: "Lowercase", Min: 1, Max: 1, Fn: mapString("Lowercase(<string>)", strings.ToLower)},
	{Name: "StringLength", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		s, err := stringArg("StringLength(<string>)", args[0])
		if err != nil {
			return nil, err
		}
		return object.NewInteger(int64(utf8.RuneCountInString(s))), nil
	}},
	{Name: "SubString", Min: 3, Max: 3, Fn: subString},
	{Name: "SplitString", Min: 2, Max: 2, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		const sig = "SplitString(<string>, <separator>)"
		s, err := stringArg(sig, args[0])
		if err != nil {
			return nil, err
		}
		sep, err := stringArg(sig, args[1])
		if err != nil {
			return nil, err
		}
		var parts []string
		if sep == "" {
			parts = strings.Split(s, "")
		} else {
			// only the separator's first character splits
			r, _ := utf8.DecodeRuneInString(sep)
			parts = strings.Split(s, string(r))
		}
		els := make([]object.Object, len(parts))
		for i, p := range parts {
			els[i] = object.NewString(p)
		}
		return object.NewList(els...), nil
	}},
}

func mapString(sig string, fn func(string) string) runtime.LibraryFunc {
	return func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		s, err := stringArg(sig, args[0])
		if err != nil {
			return nil, err
		}
		return object.NewString(fn(s)), nil
	}
}

// subString takes length characters from the 1-based position. A length
// past the end stops at the end.
func subString(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
	const sig = "SubString(<string>, <index>, <length>)"
	s, err := stringArg(sig, args[0])
	if err != nil {
		return nil, err
	}
	pos, err := integerArg(sig, args[1])
	if err != nil {
		return nil, err
	}
	length, err := integerArg(sig, args[2])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if pos < 1 {
		return nil, errors.New("Trying to get substring with index less than 1")
	}
	if int64(len(runes)) < pos {
		return nil, errors.New("Trying to get substring with index longer than string")
	}
	stop := pos - 1 + length
	if length < 0 || stop > int64(len(runes)) {
		stop = int64(len(runes))
	}
	return object.NewString(string(runes[pos-1 : stop])), nil
}
