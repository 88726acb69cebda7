package cmd

import (
	"fmt"
	"time"

	"github.com/go-appimage/aimctl/pkg/ratelimit"
	"github.com/go-appimage/aimctl/pkg/release"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:          "whoami",
	Short:        "Show GitHub authentication status and API rate limits",
	SilenceUsage: true,
	RunE:         runWhoAmI,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoAmI(cmd *cobra.Command, args []string) error {
	client := release.NewClient(ratelimit.New())
	status := client.WhoAmI(cmd.Context())

	if status.TokenSource != "" {
		fmt.Printf("Token source: %s\n", status.TokenSource)
	} else {
		fmt.Println("Token source: none (checked GITHUB_TOKEN, GH_TOKEN, GITHUB_ACCESS_TOKEN)")
	}

	if status.Authenticated {
		fmt.Println("Authenticated: yes")
	} else {
		fmt.Println("Authenticated: no")
		if status.Error != "" {
			fmt.Printf("  %s\n", status.Error)
		}
	}

	if status.User != nil {
		fmt.Printf("\nUser: %s\n", status.User.Username)
		if status.User.Name != "" {
			fmt.Printf("  Name: %s\n", status.User.Name)
		}
		if status.User.Email != "" {
			fmt.Printf("  Email: %s\n", status.User.Email)
		}
		if status.User.Company != "" {
			fmt.Printf("  Company: %s\n", status.User.Company)
		}
		if status.User.CreatedAt != nil {
			fmt.Printf("  Account created: %s\n", status.User.CreatedAt.Format("2006-01-02"))
		}
	}

	if status.RateLimit != nil {
		fmt.Printf("\nAPI rate limit: %d/%d remaining\n", status.RateLimit.Remaining, status.RateLimit.Total)
		if status.RateLimit.ResetTime != nil {
			fmt.Printf("  Resets in: %s\n", time.Until(*status.RateLimit.ResetTime).Round(time.Second))
		}
		if status.RateLimit.Remaining < 100 {
			fmt.Println("  Warning: low rate limit remaining")
		}
	}

	if !status.Authenticated {
		fmt.Println("\nSet GITHUB_TOKEN for authenticated access and higher rate limits.")
	}
	return nil
}
