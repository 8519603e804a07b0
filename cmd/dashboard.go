package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Overview of projects, NGOs, donors and expenses",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return authed("", showDashboard)(cmd, args)
}

func showDashboard(ctx context.Context, a *app, _ []string) error {
	progress("Loading dashboard...")
	s, err := dashboard.Load(ctx, a.client)
	if err != nil {
		return err
	}

	user, _ := a.session.User()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("NGO Dashboard  |  %s", userLabel(user))))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Overview",
		Headers: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Projects", cli.FormatNumber(int64(s.Projects))},
			{"NGOs", cli.FormatNumber(int64(s.NGOs))},
			{"Donors", cli.FormatNumber(int64(s.Donors))},
			{"Expenses", cli.FormatNumber(int64(s.Expenses))},
		},
	}))
	fmt.Println()

	if len(s.TotalBudget) > 0 {
		currencies := make([]string, 0, len(s.TotalBudget))
		for c := range s.TotalBudget {
			currencies = append(currencies, c)
		}
		sort.Strings(currencies)

		rows := make([][]string, 0, len(currencies))
		for _, c := range currencies {
			rows = append(rows, []string{c, cli.FormatMoney(s.TotalBudget[c], c)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Total Budget",
			Headers: []string{"Currency", "Amount"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	if len(s.ByStatus) > 0 {
		statuses := make([]string, 0, len(s.ByStatus))
		peak := 0
		for st, n := range s.ByStatus {
			statuses = append(statuses, st)
			peak = max(peak, n)
		}
		sort.Strings(statuses)

		fmt.Println(cli.RenderSection("Projects by status"))
		for _, st := range statuses {
			fmt.Printf("%s %d\n", cli.RenderHorizontalBar(cli.Capitalize(st), float64(s.ByStatus[st]), float64(peak), 30), s.ByStatus[st])
		}
		fmt.Println()
	}

	if len(s.Recent) > 0 {
		rows := make([][]string, 0, len(s.Recent))
		for _, p := range s.Recent {
			rows = append(rows, []string{
				cli.Truncate(p.Name, 32),
				cli.OrDash(p.ProjectCode),
				cli.FormatShortDate(p.StartDate),
				cli.FormatMoney(p.TotalBudget, p.Currency()),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Recent Projects",
			Headers: []string{"Name", "Code", "Start", "Budget"},
			Rows:    rows,
			Numeric: []bool{false, false, false, true},
		}))
		fmt.Println()
	}

	return nil
}
