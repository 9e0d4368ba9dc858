package numlit

import "testing"

func TestParseLiterals(t *testing.T) {
	if v, err := ParseIntLiteral("1200"); err != nil || v != 1200 {
		t.Fatalf("ParseIntLiteral(1200) = %d, %v", v, err)
	}
	if v, err := ParseFloatLiteral(".25"); err != nil || v != 0.25 {
		t.Fatalf("ParseFloatLiteral(.25) = %v, %v", v, err)
	}
	if v, err := ParseFloatLiteral("3.5"); err != nil || v != 3.5 {
		t.Fatalf("ParseFloatLiteral(3.5) = %v, %v", v, err)
	}
}

func TestClassifyErrors(t *testing.T) {
	for _, lit := range []string{"", "1.", "1a", "1.2.3", "99999999999999999999"} {
		if _, err := ParseIntLiteral(lit); err == nil {
			t.Fatalf("expected error for %q", lit)
		}
	}
	if _, err := ParseFloatLiteral("1."); err == nil {
		t.Fatal("expected error for trailing decimal point")
	}
}
