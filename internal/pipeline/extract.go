package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```[ \t]*(?:json|JSON)?[ \t]*\r?\n?(.*?)```")
	// objectSpan is greedy: it runs from the first '{' to the last '}'.
	objectSpan  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractStructured recovers a JSON value from model output, or returns def
// unchanged when nothing usable can be found. It never fails. Numbers come
// back as json.Number so integers of any size survive a re-encode.
func ExtractStructured(text string, def any) any {
	v, _ := Extract(text, def)
	return v
}

// Extract is ExtractStructured that also reports which step succeeded.
// MethodFallback means def was returned.
func Extract(text string, def any) (any, Method) {
	if v, ok := parseJSON(text); ok {
		return v, MethodDirect
	}

	variants := []string{text}
	if unescaped := html.UnescapeString(text); unescaped != text {
		if v, ok := parseJSON(unescaped); ok {
			return v, MethodUnescaped
		}
		variants = append(variants, unescaped)
	}

	steps := []struct {
		method Method
		try    func(string) (any, bool)
	}{
		{MethodFenced, fromFence},
		{MethodTrimmed, fromBrackets},
		{MethodScanned, fromObjectSpan},
	}
	for _, step := range steps {
		for _, s := range variants {
			if v, ok := step.try(s); ok {
				return v, step.method
			}
		}
	}
	return def, MethodFallback
}

// ExtractInto decodes the recovered value into T. When extraction falls back,
// the recovered value is null, or it does not fit T, def is returned with
// MethodFallback.
func ExtractInto[T any](text string, def T) (T, Method) {
	v, method := Extract(text, nil)
	if method == MethodFallback || v == nil {
		return def, MethodFallback
	}
	out, ok := As[T](v)
	if !ok {
		return def, MethodFallback
	}
	return out, method
}

// As converts a generic JSON value (as returned by Extract) into T.
func As[T any](v any) (T, bool) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, false
	}
	if err := decodeOne(bytes.NewReader(b), &out); err != nil {
		return out, false
	}
	return out, true
}

// decodeOne decodes exactly one JSON value from r, keeping numbers as
// json.Number. Anything but whitespace after the value is an error.
func decodeOne(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

func parseJSON(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v any
	if err := decodeOne(strings.NewReader(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func fromFence(s string) (any, bool) {
	m := fencedBlock.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	return parseJSON(m[1])
}

func fromBrackets(s string) (any, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	return parseJSON(s[start : end+1])
}

func fromObjectSpan(s string) (any, bool) {
	span := objectSpan.FindString(s)
	if span == "" {
		return nil, false
	}
	return parseJSON(span)
}
