package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/digiheadway/sales-crm/internal/crm"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []crm.FilterOption
		wantErr bool
	}{
		{
			name: "equality",
			raw:  []string{"stage=Fresh Lead"},
			want: []crm.FilterOption{{Field: "stage", Op: crm.OpEq, Value: "Fresh Lead"}},
		},
		{
			name: "contains",
			raw:  []string{"requirement~3BHK"},
			want: []crm.FilterOption{{Field: "requirement", Op: crm.OpContains, Value: "3BHK"}},
		},
		{
			name: "bounds",
			raw:  []string{"budget>=500000", "budget<=2000000"},
			want: []crm.FilterOption{
				{Field: "budget", Op: crm.OpGte, Value: "500000"},
				{Field: "budget", Op: crm.OpLte, Value: "2000000"},
			},
		},
		{
			name: "whitespace trimmed",
			raw:  []string{" priority = Hot "},
			want: []crm.FilterOption{{Field: "priority", Op: crm.OpEq, Value: "Hot"}},
		},
		{
			name: "value may contain equals",
			raw:  []string{"note=a=b"},
			want: []crm.FilterOption{{Field: "note", Op: crm.OpEq, Value: "a=b"}},
		},
		{
			name:    "no operator",
			raw:     []string{"stage"},
			wantErr: true,
		},
		{
			name:    "empty field",
			raw:     []string{"=Hot"},
			wantErr: true,
		},
		{
			name: "empty input",
			raw:  nil,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseFilters(%v) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFilters(%v) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFilters(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		if got := splitTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorize(t *testing.T) {
	orig := noColor
	defer func() { noColor = orig }()

	noColor = false
	got := colorize(colorGreen, "done")
	if !strings.HasPrefix(got, colorGreen) || !strings.HasSuffix(got, colorReset) {
		t.Errorf("colorize() = %q, want wrapped in ANSI codes", got)
	}

	noColor = true
	if got := colorize(colorGreen, "done"); got != "done" {
		t.Errorf("colorize() with noColor = %q, want plain text", got)
	}
}

func TestRootCommandStructure(t *testing.T) {
	want := map[string]bool{
		"leads": true, "todos": true, "options": true,
		"config": true, "mock": true, "mcp": true,
	}
	for _, c := range rootCmd.Commands() {
		delete(want, c.Name())
	}
	for name := range want {
		t.Errorf("missing subcommand %q", name)
	}
}
