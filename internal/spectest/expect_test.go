package spectest

import (
	"strings"
	"testing"
)

func TestParseExpectationStdoutExact(t *testing.T) {
	src := "# expect: ok\n# expect: stdout \"alpha\\n\"\ndefine Start(p) {\n  Print(\"alpha\")\n}\n"
	exp, err := ParseExpectation(strings.NewReader(src), "exact.test.pbl")
	if err != nil {
		t.Fatalf("ParseExpectation failed: %v", err)
	}
	if exp.Mode != ExpectOK {
		t.Fatalf("expected mode ok, got %v", exp.Mode)
	}
	if exp.Stdout.Mode != StdoutExact || exp.Stdout.Value != "alpha\n" {
		t.Fatalf("unexpected stdout expectation %+v", exp.Stdout)
	}
}

func TestParseExpectationErrorContains(t *testing.T) {
	src := "# EXPECT: error contains \"boom\"\n# expect: stdout contains \"part\\n\"\n"
	exp, err := ParseExpectation(strings.NewReader(src), "contains.test.pbl")
	if err != nil {
		t.Fatalf("ParseExpectation failed: %v", err)
	}
	if exp.Mode != ExpectErrorContains || exp.Substring != "boom" {
		t.Fatalf("unexpected outcome %v %q", exp.Mode, exp.Substring)
	}
	if exp.Stdout.Mode != StdoutContains || exp.Stdout.Value != "part\n" {
		t.Fatalf("unexpected stdout expectation %+v", exp.Stdout)
	}
}

func TestParseExpectationRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"duplicate stdout", "# expect: stdout \"a\\n\"\n# expect: stdout contains \"b\"\n", "multiple stdout"},
		{"duplicate outcome", "# expect: ok\n# expect: error\n", "multiple outcome"},
		{"unquoted", "# expect: error contains boom\n", "expected quoted string"},
		{"unknown", "\n# expect: maybe\n", "t.pbl:2: invalid expect directive"},
	}
	for _, tt := range tests {
		_, err := ParseExpectation(strings.NewReader(tt.src), "t.pbl")
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: got %v, want error containing %q", tt.name, err, tt.want)
		}
	}
}

func TestDirectivesStopAtCode(t *testing.T) {
	src := "define Start(p) {\n}\n# expect: error\n"
	exp, err := ParseExpectation(strings.NewReader(src), "t.pbl")
	if err != nil {
		t.Fatalf("ParseExpectation failed: %v", err)
	}
	if exp.Mode != ExpectOK {
		t.Fatalf("directives after code must be ignored")
	}
}

func TestCheck(t *testing.T) {
	src := "# expect: error contains \"PB0100\"\n# expect: stdout \"before\\n\"\n" +
		"define Start(p) {\n  Print(\"before\")\n  SignalFatalError(\"stop\")\n}\n"
	exp, err := ParseExpectation(strings.NewReader(src), "t.pbl")
	if err != nil {
		t.Fatalf("ParseExpectation failed: %v", err)
	}
	for _, mode := range []Mode{ModeRecursive, ModeIterative} {
		res := RunSource("t.pbl", src, Options{Mode: mode})
		ok, reason, err := exp.Check(res, "")
		if err != nil || !ok {
			t.Fatalf("%s: check failed: %s %v (result %+v)", mode, reason, err, res)
		}
	}
}
