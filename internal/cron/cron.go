package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Package cron implements the 5/6-field expression grammar used by
// schedules: "minutes hours day-of-month month day-of-week [year]".
// Each field is "*", "?", or a comma list of N, A-B, or BASE/STEP.
// Day-of-week uses 0 = Sunday; month uses 1 = January. No named aliases.

// ElementKind discriminates the element variants of a field list.
type ElementKind int

const (
	Single ElementKind = iota
	Range
	Step
)

// Element is one entry of a comma-separated field list.
// A holds the single value, range low, or step base; B holds the range
// high or the step interval.
type Element struct {
	Kind ElementKind
	A    int
	B    int
}

// Field is either the wildcard or a list of elements.
type Field struct {
	All      bool
	Elements []Element
}

// Expression is the parsed form of a cron expression. Year is optional;
// a nil Year matches any year.
type Expression struct {
	Minutes    Field
	Hours      Field
	DayOfMonth Field
	Month      Field
	DayOfWeek  Field
	Year       *Field
}

// Parse parses expr. Step intervals of zero and ranges with low > high
// are rejected here rather than left to silently never match.
func Parse(expr string) (Expression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 && len(fields) != 6 {
		return Expression{}, fmt.Errorf("expected 5 or 6 fields, got %d", len(fields))
	}

	parsed := make([]Field, len(fields))
	for i, raw := range fields {
		f, err := parseField(raw)
		if err != nil {
			return Expression{}, fmt.Errorf("field %d %q: %w", i+1, raw, err)
		}
		parsed[i] = f
	}

	out := Expression{
		Minutes:    parsed[0],
		Hours:      parsed[1],
		DayOfMonth: parsed[2],
		Month:      parsed[3],
		DayOfWeek:  parsed[4],
	}
	if len(parsed) == 6 {
		out.Year = &parsed[5]
	}
	return out, nil
}

// parseField parses one whitespace-separated field.
// "?" is accepted as a synonym for "*".
func parseField(raw string) (Field, error) {
	if raw == "*" || raw == "?" {
		return Field{All: true}, nil
	}
	parts := strings.Split(raw, ",")
	elems := make([]Element, 0, len(parts))
	for _, part := range parts {
		el, err := parseElement(part)
		if err != nil {
			return Field{}, err
		}
		elems = append(elems, el)
	}
	return Field{Elements: elems}, nil
}

func parseElement(part string) (Element, error) {
	switch {
	case strings.Contains(part, "-"):
		lohi := strings.Split(part, "-")
		if len(lohi) != 2 {
			return Element{}, fmt.Errorf("malformed range %q", part)
		}
		lo, err := parseNum(lohi[0])
		if err != nil {
			return Element{}, err
		}
		hi, err := parseNum(lohi[1])
		if err != nil {
			return Element{}, err
		}
		if lo > hi {
			return Element{}, fmt.Errorf("range %q: low bound exceeds high bound", part)
		}
		return Element{Kind: Range, A: lo, B: hi}, nil
	case strings.Contains(part, "/"):
		bs := strings.Split(part, "/")
		if len(bs) != 2 {
			return Element{}, fmt.Errorf("malformed step %q", part)
		}
		base, err := parseNum(bs[0])
		if err != nil {
			return Element{}, err
		}
		step, err := parseNum(bs[1])
		if err != nil {
			return Element{}, err
		}
		if step == 0 {
			return Element{}, fmt.Errorf("step %q: interval must be > 0", part)
		}
		return Element{Kind: Step, A: base, B: step}, nil
	default:
		n, err := parseNum(part)
		if err != nil {
			return Element{}, err
		}
		return Element{Kind: Single, A: n}, nil
	}
}

func parseNum(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value: %q", s)
	}
	return n, nil
}

// Matches reports whether t satisfies every field of the expression.
// The caller is responsible for shifting t into the desired timezone first.
func (e Expression) Matches(t time.Time) bool {
	if !e.Minutes.matches(t.Minute()) {
		return false
	}
	if !e.Hours.matches(t.Hour()) {
		return false
	}
	if !e.DayOfMonth.matches(t.Day()) {
		return false
	}
	if !e.Month.matches(int(t.Month())) {
		return false
	}
	if !e.DayOfWeek.matches(int(t.Weekday())) {
		return false
	}
	if e.Year != nil && !e.Year.matches(t.Year()) {
		return false
	}
	return true
}

// matches reports whether any element of the field matches v.
func (f Field) matches(v int) bool {
	if f.All {
		return true
	}
	for _, el := range f.Elements {
		switch el.Kind {
		case Single:
			if v == el.A {
				return true
			}
		case Range:
			if el.A <= v && v <= el.B {
				return true
			}
		case Step:
			if v >= el.A && (v-el.A)%el.B == 0 {
				return true
			}
		}
	}
	return false
}

// String renders the parsed expression back to canonical text form, so
// parse(String(parse(e))) is stable for any e that parsed.
func (e Expression) String() string {
	fields := []string{
		e.Minutes.String(),
		e.Hours.String(),
		e.DayOfMonth.String(),
		e.Month.String(),
		e.DayOfWeek.String(),
	}
	if e.Year != nil {
		fields = append(fields, e.Year.String())
	}
	return strings.Join(fields, " ")
}

func (f Field) String() string {
	if f.All {
		return "*"
	}
	parts := make([]string, 0, len(f.Elements))
	for _, el := range f.Elements {
		switch el.Kind {
		case Single:
			parts = append(parts, strconv.Itoa(el.A))
		case Range:
			parts = append(parts, fmt.Sprintf("%d-%d", el.A, el.B))
		case Step:
			parts = append(parts, fmt.Sprintf("%d/%d", el.A, el.B))
		}
	}
	return strings.Join(parts, ",")
}
