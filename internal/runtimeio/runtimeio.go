package runtimeio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"pebl/internal/object"
	"pebl/internal/runtime"
)

var ErrInputUnavailable = errors.New("input is not available in non-interactive mode")

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Input prints prompt and reads one line from stdin.
func Input(prompt string) (string, error) {
	if !IsInteractive() {
		return "", ErrInputUnavailable
	}
	if prompt != "" {
		_, _ = fmt.Fprint(os.Stdout, prompt)
	}
	line, err := readLine(os.Stdin)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrInputUnavailable
		}
		return "", err
	}
	return line, nil
}

func readLine(r io.Reader) (string, error) {
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Functions is the console library for headless runs. It must not be
// loaded while a Terminal holds stdin in raw mode.
func Functions() []runtime.Library {
	return []runtime.Library{
		{Name: "GetInput", Min: 0, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
			prompt := ""
			if len(args) > 0 {
				prompt = args[0].Inspect()
			}
			line, err := Input(prompt)
			if err != nil {
				return nil, err
			}
			return object.NewString(line), nil
		}},
	}
}
