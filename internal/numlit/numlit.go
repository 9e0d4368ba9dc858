package numlit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Literal is a classified numeric lexeme. Script numbers are decimal only:
// integers are [0-9]+ and floats are [0-9]*.[0-9]+ (a leading digit is
// optional, so ".25" is a float).
type Literal struct {
	IsFloat    bool
	Normalized string
}

func Classify(lit string) (Literal, error) {
	if lit == "" {
		return Literal{}, fmt.Errorf("digits required")
	}
	if idx := strings.IndexByte(lit, '.'); idx >= 0 {
		whole, frac := lit[:idx], lit[idx+1:]
		if frac == "" {
			return Literal{}, fmt.Errorf("float literal requires digits after decimal point")
		}
		if whole != "" {
			if err := validateDigits(whole); err != nil {
				return Literal{}, fmt.Errorf("invalid float literal: %w", err)
			}
		} else {
			whole = "0"
		}
		if err := validateDigits(frac); err != nil {
			return Literal{}, fmt.Errorf("invalid float literal: %w", err)
		}
		return Literal{IsFloat: true, Normalized: whole + "." + frac}, nil
	}
	if err := validateDigits(lit); err != nil {
		return Literal{}, fmt.Errorf("invalid integer literal: %w", err)
	}
	return Literal{Normalized: lit}, nil
}

func ParseIntLiteral(lit string) (int64, error) {
	info, err := Classify(lit)
	if err != nil {
		return 0, err
	}
	if info.IsFloat {
		return 0, fmt.Errorf("invalid integer literal")
	}
	v, err := strconv.ParseInt(info.Normalized, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("integer literal out of range")
		}
		return 0, fmt.Errorf("invalid integer literal")
	}
	return v, nil
}

func ParseFloatLiteral(lit string) (float64, error) {
	info, err := Classify(lit)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(info.Normalized, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("float literal out of range")
		}
		return 0, fmt.Errorf("invalid float literal")
	}
	return v, nil
}

func validateDigits(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("invalid digit %q", s[i])
		}
	}
	return nil
}
