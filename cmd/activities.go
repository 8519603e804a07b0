package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

var flagActivity model.ActivityInput

var activitiesCmd = &cobra.Command{
	Use:     "activities",
	Aliases: []string{"activity"},
	Short:   "Manage a project's activities",
}

var activitiesListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's activities",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runActivitiesList),
}

var activitiesAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Add an activity to a project",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runActivitiesAdd),
}

var activitiesUpdateCmd = &cobra.Command{
	Use:   "update <project-id> <activity-id>",
	Short: "Edit an activity; only the fields given as flags change",
	Args:  cobra.ExactArgs(2),
}

func init() {
	activitiesUpdateCmd.RunE = authed("", runActivitiesUpdate)
	f := activitiesAddCmd.Flags()
	f.StringVar(&flagActivity.Name, "name", "", "Activity name")
	f.StringVar(&flagActivity.Description, "description", "", "Description")
	f.StringVar(&flagActivity.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&flagActivity.EndDate, "end", "", "End date (YYYY-MM-DD)")
	f.Float64Var(&flagActivity.BudgetAmount, "budget", 0, "Budget amount")
	f.StringVar(&flagActivity.ResponsibleUser, "responsible", "", "Responsible user ID")

	u := activitiesUpdateCmd.Flags()
	u.String("name", "", "Activity name")
	u.String("description", "", "Description")
	u.String("start", "", "Start date (YYYY-MM-DD)")
	u.String("end", "", "End date (YYYY-MM-DD)")
	u.String("budget", "", "Budget amount")
	u.String("responsible", "", "Responsible user ID")

	activitiesCmd.AddCommand(activitiesListCmd, activitiesAddCmd, activitiesUpdateCmd)
	rootCmd.AddCommand(activitiesCmd)
}

func runActivitiesList(ctx context.Context, a *app, args []string) error {
	p, err := fetchProject(ctx, a, args[0])
	if err != nil {
		return err
	}
	activities, err := a.client.ListActivities(ctx, p.ID.String())
	if err != nil {
		return err
	}
	if len(activities) == 0 {
		fmt.Printf("\n  %s has no activities.\n", p.Name)
		return nil
	}

	var total float64
	rows := make([][]string, 0, len(activities)+2)
	for _, act := range activities {
		total += act.BudgetAmount
		responsible := "-"
		if act.ResponsibleUser != nil {
			responsible = act.ResponsibleUser.Label()
		}
		rows = append(rows, []string{
			cli.Truncate(act.Name, 30),
			cli.FormatShortDate(act.StartDate),
			cli.FormatShortDate(act.EndDate),
			cli.Truncate(responsible, 20),
			cli.FormatMoney(act.BudgetAmount, p.Currency()),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", "", cli.FormatMoney(total, p.Currency())})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Activities: %s", p.Name),
		Headers: []string{"Name", "Start", "End", "Responsible", "Budget"},
		Rows:    rows,
		Numeric: []bool{false, false, false, false, true},
	}))
	return nil
}

func runActivitiesAdd(ctx context.Context, a *app, args []string) error {
	in := flagActivity
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if missing := in.Missing(); len(missing) > 0 {
		return fmt.Errorf("all fields are required; missing: %s", strings.Join(missing, ", "))
	}
	for _, d := range []string{in.StartDate, in.EndDate} {
		if err := validDate(d); err != nil {
			return fmt.Errorf("date %q: %w", d, err)
		}
	}

	act, err := a.client.CreateActivity(ctx, args[0], in)
	if err != nil {
		return err
	}
	name := in.Name
	if act != nil && act.Name != "" {
		name = act.Name
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Added activity %s", name)))
	return nil
}

func runActivitiesUpdate(ctx context.Context, a *app, args []string) error {
	projectID, activityID := args[0], args[1]
	activities, err := a.client.ListActivities(ctx, projectID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(activities, func(act model.Activity) bool { return act.ID.String() == activityID })
	if idx < 0 {
		return fmt.Errorf("activity %s not found in project %s", activityID, projectID)
	}
	in := activities[idx].Input()

	n, err := changedStrings(activitiesUpdateCmd, map[string]*string{
		"name":        &in.Name,
		"description": &in.Description,
		"start":       &in.StartDate,
		"end":         &in.EndDate,
		"responsible": &in.ResponsibleUser,
	})
	if err != nil {
		return err
	}
	m, err := changedNumbers(activitiesUpdateCmd, map[string]*float64{"budget": &in.BudgetAmount}, "budget")
	if err != nil {
		return err
	}
	if n+m == 0 {
		return errNoChanges
	}
	if missing := in.Missing(); len(missing) > 0 {
		return fmt.Errorf("all fields are required; missing: %s", strings.Join(missing, ", "))
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return err
	}

	if _, err := a.client.UpdateActivity(ctx, projectID, activityID, in); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Updated activity %s", in.Name)))
	return nil
}
