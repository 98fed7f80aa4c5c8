package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFansOut(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{a, nil, b}, 16)
	for _, line := range []string{"one\n", "two\n"} {
		if err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if a.String() != "one\ntwo\n" || b.String() != "one\ntwo\n" {
		t.Fatalf("sinks = %q, %q", a.String(), b.String())
	}
}

func TestAsyncWriterIsolatesBrokenSink(t *testing.T) {
	good := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{brokenWriter{}, good}, 1)
	if err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err == nil {
		t.Fatal("flush should report the broken sink")
	}
	if err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write with one healthy sink: %v", err)
	}
	_ = w.Close()
	if good.String() != "first\nsecond\n" {
		t.Fatalf("healthy sink = %q", good.String())
	}
}

func TestAsyncWriterFailsWhenAllSinksBroken(t *testing.T) {
	w := newAsyncWriter([]io.Writer{brokenWriter{}}, 1)
	_ = w.Write([]byte("x\n"))
	_ = w.Flush()
	if err := w.Write([]byte("y\n")); err == nil {
		t.Fatal("expected error once every sink failed")
	}
	if err := w.Close(); err == nil {
		t.Fatal("close should report the failure")
	}
}

func TestParseRatioSpec(t *testing.T) {
	tests := []struct {
		spec string
		n, d int
	}{
		{"1/50", 1, 50},
		{" 3 / 4 ", 3, 4},
		{"10", 1, 10},
		{"", 0, 0},
		{"0", 0, 0},
		{"a/b", 0, 0},
		{"2/0", 0, 0},
	}
	for _, tt := range tests {
		if n, d := parseRatioSpec(tt.spec); n != tt.n || d != tt.d {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", tt.spec, n, d, tt.n, tt.d)
		}
	}
}

func TestRatioSamplerDisabled(t *testing.T) {
	s := newRatioSampler(0, 0)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
	s.Set(2, 1)
	if !s.Allow() || !s.Allow() {
		t.Fatal("numerator is capped at the denominator")
	}
}

func TestPreview(t *testing.T) {
	got, omitted := Preview([]string{"a", "b", "c"}, 2)
	if got != "a, b" || omitted != 1 {
		t.Fatalf("Preview = %q, %d", got, omitted)
	}
	if got, omitted := Preview([]string{"a"}, 5); got != "a" || omitted != 0 {
		t.Fatalf("Preview short = %q, %d", got, omitted)
	}
	if got, omitted := Preview([]string{"a"}, -1); got != "" || omitted != 1 {
		t.Fatalf("Preview negative limit = %q, %d", got, omitted)
	}
}

func TestStatus(t *testing.T) {
	if Status(nil) != "ok" || Status(errors.New("x")) != "fail" || Status(context.Canceled) != "canceled" {
		t.Fatal("unexpected status mapping")
	}
}
