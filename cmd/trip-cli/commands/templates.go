package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"tripweaver/pkg/client"
	"tripweaver/planner"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var TemplatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "Manage reusable trip templates",
	Long:    `Save a planned trip as a template and start new trips from it.`,
}

var saveTemplateCmd = &cobra.Command{
	Use:               "save [trip-id] [name]",
	Short:             "Save a trip as a named template",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		tmpl, err := c.SaveTemplate(args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved template %s (%s)\n", tmpl.Name, tmpl.ID)
	},
}

var listTemplatesCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List saved templates",
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		templates, err := c.ListTemplates()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tName\tDestination\tBudget\tLevel")

		for _, tmpl := range templates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				tmpl.ID,
				tmpl.Name,
				tmpl.Destination,
				tmpl.BudgetRange,
				tmpl.AutomationLevel,
			)
		}
		w.Flush()
	},
}

var applyTemplateCmd = &cobra.Command{
	Use:   "apply [template-id]",
	Short: "Start a new trip from a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))

		var input planner.Input
		input.Preferences.StartDate, _ = cmd.Flags().GetString("start")
		input.Preferences.EndDate, _ = cmd.Flags().GetString("end")
		input.Preferences.Budget, _ = cmd.Flags().GetFloat64("budget")
		input.AutomationLevel, _ = cmd.Flags().GetInt("level")

		result, err := c.CreateTripFromTemplate(args[0], input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
	},
}

func init() {
	applyTemplateCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	applyTemplateCmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	applyTemplateCmd.Flags().Float64("budget", 0, "total budget in USD")
	applyTemplateCmd.Flags().Int("level", 0, "automation level (1-4)")

	TemplatesCmd.AddCommand(saveTemplateCmd)
	TemplatesCmd.AddCommand(listTemplatesCmd)
	TemplatesCmd.AddCommand(applyTemplateCmd)
}
