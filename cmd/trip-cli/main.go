package main

import (
	"fmt"
	"os"
	"path/filepath"

	"tripweaver/cmd/trip-cli/commands"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	server  string
)

var rootCmd = &cobra.Command{
	Use:   "trip-cli",
	Short: "TripWeaver CLI - conversational trip planning",
	Long: `TripWeaver plans complete trips from a set of preferences. Parallel
search agents gather flights, hotels and activities, the engine filters and
combines them within budget, and bookings escalate through fallback methods
until they succeed or are handed back to you.`,
}

func main() {
	// Register commands

	rootCmd.AddCommand(commands.TripsCmd)

	rootCmd.AddCommand(commands.TemplatesCmd)

	rootCmd.AddCommand(commands.EventsCmd)

	rootCmd.AddCommand(commands.SnapshotsCmd)

	rootCmd.AddCommand(commands.ExportCmd)

	rootCmd.AddCommand(commands.ImportCmd)

	rootCmd.AddCommand(commands.HealthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tripweaver/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "TripWeaver server URL")

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		tripweaverDir := filepath.Join(home, ".tripweaver")
		viper.AddConfigPath(tripweaverDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		// fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
