package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/digiheadway/sales-crm/internal/crm"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Browse and manage leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	Long: `List leads, one page at a time.

Filters use field=value for equality, field~value for contains, and
field>=value / field<=value for bounds:

  crm leads list --filter stage="Fresh Lead" --filter budget>=500000
  crm leads list --search anan --sort budget --order desc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		sortBy, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		search, _ := cmd.Flags().GetString("search")
		pipeline, _ := cmd.Flags().GetBool("pipeline")
		rawFilters, _ := cmd.Flags().GetStringArray("filter")

		filters, err := parseFilters(rawFilters)
		if err != nil {
			return err
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		store.SetLeadFilters(filters)

		result, err := store.FetchLeads(cmd.Context(), crm.LeadQuery{
			Page:     page,
			PerPage:  perPage,
			SortBy:   sortBy,
			SortDir:  order,
			Search:   search,
			Filters:  filters,
			Pipeline: pipeline,
		})
		if err != nil {
			return err
		}

		if jsonOut {
			return printJSON(map[string]any{"leads": result.Items, "total": result.Total})
		}
		for _, l := range result.Items {
			fmt.Printf("%s  %s  %s\n",
				colorize(colorBold, fmt.Sprintf("#%-5d", l.ID)),
				fmt.Sprintf("%-24s", l.Name),
				fmt.Sprintf("%-12s  %-8s  %s", l.Stage, l.Priority, l.Phone))
		}
		printStep("page %d of %d leads total", page, result.Total)
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one lead in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lead id %q", args[0])
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		lead, ok, err := store.FetchLead(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no lead with id %d", id)
		}
		return printJSON(lead)
	},
}

var leadsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		phone, _ := cmd.Flags().GetString("phone")
		if name == "" || phone == "" {
			return fmt.Errorf("--name and --phone are required")
		}

		draft := crm.LeadDraft{Name: name, Phone: phone}
		draft.Stage, _ = cmd.Flags().GetString("stage")
		draft.Priority, _ = cmd.Flags().GetString("priority")
		draft.Source, _ = cmd.Flags().GetString("source")
		draft.Requirement, _ = cmd.Flags().GetString("requirement")
		draft.Budget, _ = cmd.Flags().GetFloat64("budget")
		draft.Address, _ = cmd.Flags().GetString("address")
		draft.Email, _ = cmd.Flags().GetString("email")
		draft.PropertyType, _ = cmd.Flags().GetString("type")
		draft.AssignedTo, _ = cmd.Flags().GetString("assign")
		draft.InPipeline, _ = cmd.Flags().GetBool("pipeline")
		if labels, _ := cmd.Flags().GetString("labels"); labels != "" {
			draft.Labels = splitTrim(labels)
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.AddLead(cmd.Context(), draft); err != nil {
			return err
		}
		printSuccess("Created lead #%d", store.ActiveID())
		return nil
	},
}

var leadsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields on a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lead id %q", args[0])
		}

		var p crm.LeadPatch
		strFlag := func(flag string, dst **string) {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dst = &v
			}
		}
		strFlag("name", &p.Name)
		strFlag("phone", &p.Phone)
		strFlag("stage", &p.Stage)
		strFlag("priority", &p.Priority)
		strFlag("source", &p.Source)
		strFlag("requirement", &p.Requirement)
		strFlag("address", &p.Address)
		strFlag("email", &p.Email)
		strFlag("type", &p.PropertyType)
		strFlag("assign", &p.AssignedTo)
		strFlag("note", &p.LastNote)
		if cmd.Flags().Changed("budget") {
			v, _ := cmd.Flags().GetFloat64("budget")
			p.Budget = &v
		}
		if cmd.Flags().Changed("labels") {
			raw, _ := cmd.Flags().GetString("labels")
			labels := splitTrim(raw)
			p.Labels = &labels
		}
		if cmd.Flags().Changed("pipeline") {
			v, _ := cmd.Flags().GetBool("pipeline")
			p.InPipeline = &v
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		// Pull the current record first so the diff only sends what changed.
		if _, _, err := store.FetchLead(cmd.Context(), id); err != nil {
			return err
		}
		if err := store.UpdateLead(cmd.Context(), id, p); err != nil {
			return err
		}
		printSuccess("Updated lead #%d", id)
		return nil
	},
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a lead and its follow-ups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lead id %q", args[0])
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.DeleteLead(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted lead #%d", id)
		return nil
	},
}

// parseFilters converts --filter expressions into filter options. Supported
// forms, checked longest-operator first: field>=v, field<=v, field~v, field=v.
func parseFilters(raw []string) ([]crm.FilterOption, error) {
	var filters []crm.FilterOption
	for _, expr := range raw {
		var field, op, value string
		switch {
		case strings.Contains(expr, ">="):
			parts := strings.SplitN(expr, ">=", 2)
			field, op, value = parts[0], crm.OpGte, parts[1]
		case strings.Contains(expr, "<="):
			parts := strings.SplitN(expr, "<=", 2)
			field, op, value = parts[0], crm.OpLte, parts[1]
		case strings.Contains(expr, "~"):
			parts := strings.SplitN(expr, "~", 2)
			field, op, value = parts[0], crm.OpContains, parts[1]
		case strings.Contains(expr, "="):
			parts := strings.SplitN(expr, "=", 2)
			field, op, value = parts[0], crm.OpEq, parts[1]
		default:
			return nil, fmt.Errorf("invalid filter %q (want field=value, field~value, field>=value, or field<=value)", expr)
		}
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("invalid filter %q: empty field name", expr)
		}
		filters = append(filters, crm.FilterOption{Field: field, Op: op, Value: strings.TrimSpace(value)})
	}
	return filters, nil
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	leadsListCmd.Flags().Int("page", 1, "page number")
	leadsListCmd.Flags().Int("per-page", 20, "leads per page")
	leadsListCmd.Flags().String("sort", "updated_at", "sort field")
	leadsListCmd.Flags().String("order", "desc", "sort order (asc|desc)")
	leadsListCmd.Flags().String("search", "", "free-text search")
	leadsListCmd.Flags().Bool("pipeline", false, "only leads in the pipeline")
	leadsListCmd.Flags().StringArray("filter", nil, "filter expression (repeatable)")

	for _, c := range []*cobra.Command{leadsAddCmd, leadsUpdateCmd} {
		c.Flags().String("name", "", "lead name")
		c.Flags().String("phone", "", "primary phone")
		c.Flags().String("stage", "Fresh Lead", "pipeline stage")
		c.Flags().String("priority", "General", "priority")
		c.Flags().String("source", "Other", "lead source")
		c.Flags().String("requirement", "", "requirement description")
		c.Flags().Float64("budget", 0, "budget")
		c.Flags().String("address", "", "address")
		c.Flags().String("email", "", "email")
		c.Flags().String("type", "", "property type")
		c.Flags().String("assign", "", "assigned owner")
		c.Flags().String("labels", "", "comma-separated labels")
		c.Flags().Bool("pipeline", false, "include in pipeline")
	}
	leadsUpdateCmd.Flags().String("note", "", "last note")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsAddCmd)
	leadsCmd.AddCommand(leadsUpdateCmd)
	leadsCmd.AddCommand(leadsDeleteCmd)
}
