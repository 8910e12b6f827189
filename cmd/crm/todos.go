package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/digiheadway/sales-crm/internal/crm"
)

var todosCmd = &cobra.Command{
	Use:   "todos",
	Short: "Browse and manage follow-up todos",
}

var todosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	RunE: func(cmd *cobra.Command, args []string) error {
		leadID, _ := cmd.Flags().GetInt64("lead")
		status, _ := cmd.Flags().GetString("status")

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.FetchTodos(cmd.Context()); err != nil {
			return err
		}

		var filters []crm.FilterOption
		if leadID > 0 {
			filters = append(filters, crm.FilterOption{Field: "lead_id", Op: crm.OpEq, Value: strconv.FormatInt(leadID, 10)})
		}
		if status != "" {
			filters = append(filters, crm.FilterOption{Field: "status", Op: crm.OpEq, Value: status})
		}
		store.SetTodoFilters(filters)

		todos := store.FilteredTodos()
		if jsonOut {
			return printJSON(map[string]any{"todos": todos})
		}
		for _, t := range todos {
			fmt.Printf("%s  lead #%-5d  %-10s  %s  %s\n",
				colorize(colorBold, fmt.Sprintf("#%-5d", t.ID)),
				t.LeadID, t.Status, t.ScheduledAt, t.Description)
		}
		printStep("%d todos", len(todos))
		return nil
	},
}

var todosAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a follow-up for a lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		leadID, _ := cmd.Flags().GetInt64("lead")
		description, _ := cmd.Flags().GetString("description")
		at, _ := cmd.Flags().GetString("at")
		if leadID == 0 || at == "" {
			return fmt.Errorf("--lead and --at are required")
		}

		draft := crm.TodoDraft{
			LeadID:      leadID,
			Description: description,
			ScheduledAt: at,
		}
		if participants, _ := cmd.Flags().GetString("participants"); participants != "" {
			draft.Participants = splitTrim(participants)
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.AddTodo(cmd.Context(), draft); err != nil {
			return err
		}
		printSuccess("Scheduled follow-up for lead #%d", leadID)
		return nil
	},
}

var todosUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid todo id %q", args[0])
		}

		var p crm.TodoPatch
		strFlag := func(flag string, dst **string) {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dst = &v
			}
		}
		strFlag("description", &p.Description)
		strFlag("response", &p.Response)
		strFlag("status", &p.Status)
		strFlag("at", &p.ScheduledAt)

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.UpdateTodo(cmd.Context(), id, p); err != nil {
			return err
		}
		printSuccess("Updated todo #%d", id)
		return nil
	},
}

var todosDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid todo id %q", args[0])
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.DeleteTodo(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted todo #%d", id)
		return nil
	},
}

func init() {
	todosListCmd.Flags().Int64("lead", 0, "only todos for this lead")
	todosListCmd.Flags().String("status", "", "only todos with this status")

	todosAddCmd.Flags().Int64("lead", 0, "lead id")
	todosAddCmd.Flags().String("description", "", "what to do")
	todosAddCmd.Flags().String("at", "", "scheduled time (ISO 8601)")
	todosAddCmd.Flags().String("participants", "", "comma-separated participant ids")

	todosUpdateCmd.Flags().String("description", "", "what to do")
	todosUpdateCmd.Flags().String("response", "", "resolution note")
	todosUpdateCmd.Flags().String("status", "", "Pending, Completed, Cancelled, or Overdue")
	todosUpdateCmd.Flags().String("at", "", "scheduled time (ISO 8601)")

	todosCmd.AddCommand(todosListCmd)
	todosCmd.AddCommand(todosAddCmd)
	todosCmd.AddCommand(todosUpdateCmd)
	todosCmd.AddCommand(todosDeleteCmd)
}
