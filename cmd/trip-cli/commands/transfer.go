package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"tripweaver/pkg/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ExportCmd = &cobra.Command{
	Use:               "export [id]",
	Short:             "Export a trip session as JSON",
	Long:              `Write the full serialized session to stdout or a file, suitable for "import".`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTripIDs,
	Run: func(cmd *cobra.Command, args []string) {
		c := client.NewClient(viper.GetString("server"))
		data, err := c.ExportTrip(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if file, _ := cmd.Flags().GetString("output"); file != "" {
			if err := os.WriteFile(file, out, 0644); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Exported trip %s to %s\n", args[0], file)
			return
		}
		fmt.Println(string(out))
	},
}

var ImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a previously exported trip session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		c := client.NewClient(viper.GetString("server"))
		id, err := c.ImportTrip(data)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported trip %s\n", id)
	},
}

func init() {
	ExportCmd.Flags().StringP("output", "o", "", "write export to a file instead of stdout")
}
