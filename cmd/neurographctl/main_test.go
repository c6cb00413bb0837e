package main

import (
	"context"
	"reflect"
	"testing"
)

func TestParseHiddenUnits(t *testing.T) {
	cases := []struct {
		raw     string
		want    []int
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "3", want: []int{3}},
		{raw: "3,5,5,3", want: []int{3, 5, 5, 3}},
		{raw: " 4 , 2 ", want: []int{4, 2}},
		{raw: "3,x", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-2", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseHiddenUnits(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseHiddenUnits(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseHiddenUnits(%q): %v", tc.raw, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parseHiddenUnits(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"teleport"}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for missing command")
	}
}

func TestRunCommandEndToEnd(t *testing.T) {
	args := []string{"run", "-scape", "xor", "-pop", "6", "-gens", "2", "-seed", "42", "-workers", "2"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestBenchCommand(t *testing.T) {
	args := []string{"bench", "-iters", "5", "-hidden", "3,5,5,3"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("bench: %v", err)
	}
}

func TestInitCommandMemoryStore(t *testing.T) {
	if err := run(context.Background(), []string{"init", "-store", "memory"}); err != nil {
		t.Fatalf("init: %v", err)
	}
}
