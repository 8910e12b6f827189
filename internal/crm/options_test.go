package crm

import "testing"

func TestOptionSets_RoundTrip(t *testing.T) {
	for _, set := range []OptionSet{Stages, Priorities, Sources} {
		for _, o := range set.Options {
			got := set.APIToValue(set.ValueToAPI(o.Value))
			if got != o.Value {
				t.Errorf("%s: round trip of %q = %q", set.Name, o.Value, got)
			}
		}
	}
}

func TestOptionSet_ValueToAPI_PassThrough(t *testing.T) {
	if got := Stages.ValueToAPI("Not A Stage"); got != "Not A Stage" {
		t.Errorf("unknown internal value should pass through, got %q", got)
	}
}

func TestOptionSet_APIToValue_Fallbacks(t *testing.T) {
	tests := []struct {
		set  OptionSet
		raw  string
		want string
	}{
		{Stages, "no_such_stage", "Fresh Lead"},
		{Priorities, "??", "General"},
		{Sources, "carrier_pigeon", "Other"},
		{Stages, "", "Fresh Lead"},
	}
	for _, tt := range tests {
		if got := tt.set.APIToValue(tt.raw); got != tt.want {
			t.Errorf("%s.APIToValue(%q) = %q, want %q", tt.set.Name, tt.raw, got, tt.want)
		}
	}
}

// A raw value that is already an internal value (e.g. data written before the
// wire mapping existed) must survive the reverse mapping unchanged.
func TestOptionSet_APIToValue_AcceptsInternalValue(t *testing.T) {
	if got := Stages.APIToValue("Negotiation"); got != "Negotiation" {
		t.Errorf("APIToValue(internal value) = %q, want Negotiation", got)
	}
}

func TestOptionSet_Values(t *testing.T) {
	vals := Priorities.Values()
	if len(vals) != len(Priorities.Options) {
		t.Fatalf("Values() returned %d entries, want %d", len(vals), len(Priorities.Options))
	}
	if vals[0] != "Hot" {
		t.Errorf("Values()[0] = %q, want Hot", vals[0])
	}
}
