package commands

import (
	"fmt"
	"os"

	"tripweaver/pkg/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var HealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Run: func(cmd *cobra.Command, args []string) {
		addr := viper.GetString("server")
		c := client.NewClient(addr)
		if err := c.Health(); err != nil {
			fmt.Printf("Server %s unreachable: %v\n", addr, err)
			os.Exit(1)
		}
		fmt.Printf("Server %s is healthy\n", addr)
	},
}
