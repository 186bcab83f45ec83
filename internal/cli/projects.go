package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List visible projects",
	RunE:  runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	projects, err := client.Projects(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects visible.")
		return nil
	}

	fmt.Println()
	for _, p := range projects {
		fmt.Printf("  %4d  %-30s  %d assigned\n", p.ID, p.Name, len(p.Users))
	}
	fmt.Println()
	return nil
}
