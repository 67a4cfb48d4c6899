package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize bikelog with Strava",
		Long:  "Run the OAuth flow in the browser and store the tokens in the cache database.",
		Args:  cobra.NoArgs,
		RunE:  runAuth,
	}

	RootCmd.AddCommand(cmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	stored, err := s.authenticate(cmd)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully authenticated as athlete %d!\n", stored.AthleteID)
	return nil
}
