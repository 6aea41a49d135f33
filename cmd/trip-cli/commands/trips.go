package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"tripweaver/pkg/client"
	"tripweaver/planner"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var TripsCmd = &cobra.Command{
	Use:     "trips",
	Aliases: []string{"t"},
	Short:   "Manage trip planning sessions",
	Long:    `Create, list, inspect, and drive trip planning sessions.`,
}

// completion helper for trips
func completeTripIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c := client.NewClient(viper.GetString("server"))
	trips, err := c.ListTrips()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, trip := range trips {
		ids = append(ids, fmt.Sprintf("%s\t%s (%s)", trip.ID, trip.Destination, trip.CurrentStep))
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

var createTripCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"c"},
	Short:   "Create a new trip planning session",
	Long: `Create a trip from a YAML preferences file or from flags. Missing
required preferences suspend the session until they are supplied with
"trips resume".`,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))

		var input planner.Input
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			if err := yaml.Unmarshal(data, &input); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}

		if dest, _ := cmd.Flags().GetString("destination"); dest != "" {
			input.Preferences.Destination = dest
		}
		if start, _ := cmd.Flags().GetString("start"); start != "" {
			input.Preferences.StartDate = start
		}
		if end, _ := cmd.Flags().GetString("end"); end != "" {
			input.Preferences.EndDate = end
		}
		if travelers, _ := cmd.Flags().GetInt("travelers"); travelers != 0 {
			input.Preferences.Travelers = travelers
		}
		if budget, _ := cmd.Flags().GetFloat64("budget"); budget != 0 {
			input.Preferences.Budget = budget
		}
		if level, _ := cmd.Flags().GetInt("level"); level != 0 {
			input.AutomationLevel = level
		}

		result, err := c.CreateTrip(input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
	},
}

var listTripsCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all trips",
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		trips, err := c.ListTrips()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tDestination\tStep\tLevel\tCost")

		for _, trip := range trips {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.2f\n",
				trip.ID,
				trip.Destination,
				trip.CurrentStep,
				trip.AutomationLevel,
				trip.TotalCost,
			)
		}
		w.Flush()
	},
}

var getTripCmd = &cobra.Command{
	Use:               "get [id]",
	Aliases:           []string{"g"},
	Short:             "Get trip details",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		trip, err := c.GetTrip(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		s := trip.Session
		fmt.Printf("ID: %s\n", s.ID)
		fmt.Printf("Destination: %s\n", s.Preferences.Destination)
		fmt.Printf("Dates: %s to %s\n", s.Preferences.StartDate, s.Preferences.EndDate)
		fmt.Printf("Step: %s\n", s.CurrentStep)
		fmt.Printf("Level: %d\n", s.AutomationLevel)
		fmt.Printf("Budget: $%.2f\n", s.Preferences.Budget)

		analysis := planner.BudgetCompliance(s.Cart.TotalCost, s.Preferences.Budget)
		fmt.Println("\nCart:")
		for _, f := range s.Cart.Flights {
			fmt.Printf("  Flight: %s %s ($%.2f)\n", f.Airline, f.FlightNumber, f.Price)
		}
		for _, h := range s.Cart.Hotels {
			fmt.Printf("  Hotel: %s ($%.2f total)\n", h.Name, h.TotalCost)
		}
		for _, a := range s.Cart.Activities {
			fmt.Printf("  Activity: %s ($%.2f)\n", a.Name, a.Price)
		}
		fmt.Printf("  Total: $%.2f (%s)\n", s.Cart.TotalCost, analysis.Status)

		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			out, err := yaml.Marshal(s)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("\n" + string(out))
		}
	},
}

var resumeTripCmd = &cobra.Command{
	Use:               "resume [id]",
	Short:             "Resume a suspended trip with additional preferences",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))

		var prefs planner.Preferences
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			if err := yaml.Unmarshal(data, &prefs); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}
		if dest, _ := cmd.Flags().GetString("destination"); dest != "" {
			prefs.Destination = dest
		}
		if start, _ := cmd.Flags().GetString("start"); start != "" {
			prefs.StartDate = start
		}
		if end, _ := cmd.Flags().GetString("end"); end != "" {
			prefs.EndDate = end
		}
		if travelers, _ := cmd.Flags().GetInt("travelers"); travelers != 0 {
			prefs.Travelers = travelers
		}
		if budget, _ := cmd.Flags().GetFloat64("budget"); budget != 0 {
			prefs.Budget = budget
		}

		result, err := c.ResumeTrip(args[0], prefs)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
	},
}

var confirmTripCmd = &cobra.Command{
	Use:               "confirm [id]",
	Short:             "Confirm the cart and execute bookings",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		result, err := c.ConfirmTrip(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
	},
}

var modifyTripCmd = &cobra.Command{
	Use:               "modify [id] [category]",
	Short:             "Re-run the search for one category (flights, hotels, activities)",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		result, err := c.ModifyTrip(args[0], planner.Category(args[1]))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
	},
}

var backtrackTripCmd = &cobra.Command{
	Use:               "backtrack [id] [snapshot-id]",
	Short:             "Restore the trip to an earlier snapshot",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		result, err := c.BacktrackTrip(args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
	},
}

func printResult(result planner.Result) {
	if result.Success {
		fmt.Printf("OK (%s, %.2fs)\n", result.ExecutionID, result.ExecutionTime)
	} else {
		fmt.Printf("Failed (%s)\n", result.ExecutionID)
	}
	if result.Error != "" {
		fmt.Printf("  error: %s\n", result.Error)
	}
	if result.Data != nil {
		out, err := yaml.Marshal(result.Data)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
	}
}

func init() {
	createTripCmd.Flags().StringP("file", "f", "", "YAML file with trip input")
	createTripCmd.Flags().String("destination", "", "destination city")
	createTripCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	createTripCmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	createTripCmd.Flags().Int("travelers", 0, "number of travelers")
	createTripCmd.Flags().Float64("budget", 0, "total budget in USD")
	createTripCmd.Flags().Int("level", 0, "automation level (1-4)")

	resumeTripCmd.Flags().StringP("file", "f", "", "YAML file with preferences")
	resumeTripCmd.Flags().String("destination", "", "destination city")
	resumeTripCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	resumeTripCmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	resumeTripCmd.Flags().Int("travelers", 0, "number of travelers")
	resumeTripCmd.Flags().Float64("budget", 0, "total budget in USD")

	getTripCmd.Flags().Bool("yaml", false, "print the full session as YAML")

	TripsCmd.AddCommand(createTripCmd)
	TripsCmd.AddCommand(listTripsCmd)
	TripsCmd.AddCommand(getTripCmd)
	TripsCmd.AddCommand(resumeTripCmd)
	TripsCmd.AddCommand(confirmTripCmd)
	TripsCmd.AddCommand(modifyTripCmd)
	TripsCmd.AddCommand(backtrackTripCmd)
}
