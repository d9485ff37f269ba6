package cli

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

// requiredTools are the external binaries the service shells out to.
var requiredTools = []string{"latexmk", "pdftoppm", "git"}

// newCheckCmd creates the check command.
func (a *App) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the required external tools are installed",
		RunE: func(_ *cobra.Command, _ []string) error {
			var missing []string
			for _, tool := range requiredTools {
				path, err := exec.LookPath(tool)
				if err != nil {
					fmt.Fprintf(a.stdout, "  %-10s MISSING\n", tool)
					missing = append(missing, tool)
					continue
				}
				fmt.Fprintf(a.stdout, "  %-10s %s\n", tool, path)
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing tools: %v", missing)
			}
			fmt.Fprintln(a.stdout, "all tools available")
			return nil
		},
	}
}
