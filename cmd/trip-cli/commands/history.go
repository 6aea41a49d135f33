package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"tripweaver/pkg/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var EventsCmd = &cobra.Command{
	Use:               "events [id]",
	Aliases:           []string{"e"},
	Short:             "Show the event log for a trip",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		events, err := c.GetEvents(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "Time\tType\tMessage")

		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				ev.Timestamp.Format("15:04:05"),
				ev.Type,
				ev.Message,
			)
		}
		w.Flush()
	},
}

var SnapshotsCmd = &cobra.Command{
	Use:               "snapshots [id]",
	Aliases:           []string{"s"},
	Short:             "Show backtrack points for a trip",
	Long:              `List the snapshots a trip can backtrack to, oldest first.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		points, err := c.GetSnapshots(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "Snapshot\tLabel\tDescription\tWhen")

		for _, point := range points {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				point.SnapshotID,
				point.Label,
				point.Description,
				point.TimeAgo,
			)
		}
		w.Flush()
	},
}
