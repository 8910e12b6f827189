package crm

// Option pairs an internal value with its wire representation. The two drift
// independently (the upstream renames wire values without coordinating with
// clients), which is why every set carries an explicit fallback.
type Option struct {
	Value    string `json:"value"`
	APIValue string `json:"api_value"`
}

// OptionSet is a fixed catalog of options for one enumerated field plus the
// fallback returned for unrecognized wire values. Unknown values are never an
// error: data must always render.
type OptionSet struct {
	Name     string
	Fallback string
	Options  []Option
}

// ValueToAPI maps an internal value to its wire representation. A value that
// is not a member of the set passes through unchanged (best effort).
func (s OptionSet) ValueToAPI(value string) string {
	for _, o := range s.Options {
		if o.Value == value {
			return o.APIValue
		}
	}
	return value
}

// APIToValue maps a wire value back to the internal one. If no option's wire
// representation matches and the raw value is not itself already a recognized
// internal value, the set's fallback is returned. This guards against schema
// drift between the client and server option catalogs.
func (s OptionSet) APIToValue(raw string) string {
	for _, o := range s.Options {
		if o.APIValue == raw {
			return o.Value
		}
	}
	for _, o := range s.Options {
		if o.Value == raw {
			return o.Value
		}
	}
	return s.Fallback
}

// Values returns the internal values in catalog order.
func (s OptionSet) Values() []string {
	vals := make([]string, len(s.Options))
	for i, o := range s.Options {
		vals[i] = o.Value
	}
	return vals
}

// Stages is the pipeline stage catalog. "Fresh Lead" doubles as the fallback
// for unrecognized wire stages.
var Stages = OptionSet{
	Name:     "stage",
	Fallback: "Fresh Lead",
	Options: []Option{
		{Value: "Fresh Lead", APIValue: "fresh"},
		{Value: "Contacted", APIValue: "contacted"},
		{Value: "Follow Up", APIValue: "follow_up"},
		{Value: "Site Visit", APIValue: "site_visit"},
		{Value: "Negotiation", APIValue: "negotiation"},
		{Value: "Booked", APIValue: "booked"},
		{Value: "Dropped", APIValue: "dropped"},
	},
}

// Priorities is the lead priority catalog.
var Priorities = OptionSet{
	Name:     "priority",
	Fallback: "General",
	Options: []Option{
		{Value: "Hot", APIValue: "hot"},
		{Value: "Warm", APIValue: "warm"},
		{Value: "Cold", APIValue: "cold"},
		{Value: "General", APIValue: "general"},
	},
}

// Sources is the lead source catalog.
var Sources = OptionSet{
	Name:     "source",
	Fallback: "Other",
	Options: []Option{
		{Value: "Website", APIValue: "website"},
		{Value: "Facebook", APIValue: "facebook"},
		{Value: "Google Ads", APIValue: "google_ads"},
		{Value: "Referral", APIValue: "referral"},
		{Value: "Walk In", APIValue: "walk_in"},
		{Value: "Other", APIValue: "other"},
	},
}
