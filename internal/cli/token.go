package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizan-app/mizan/internal/daemon"
)

func init() {
	tokenCreateCmd.Flags().Int64Var(&tokenUserID, "user", 0, "User id the token is bound to")
	tokenCreateCmd.Flags().StringVar(&tokenPlan, "plan", "yearly", "Subscription plan label")
	_ = tokenCreateCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(tokenCreateCmd)
	rootCmd.AddCommand(tokenCmd)
}

var (
	tokenUserID int64
	tokenPlan   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage premium activation tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint a single-use premium activation token for a user",
	RunE:  runTokenCreate,
}

func runTokenCreate(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(rootCmd.Version)
	if err != nil {
		return err
	}
	defer d.Close()

	now := time.Now()
	token, err := d.Subscription.MintToken(tokenUserID, tokenPlan, "cli", now)
	if err != nil {
		return err
	}

	fmt.Printf("Token:   %s\n", token.Token)
	fmt.Printf("Plan:    %s\n", token.Plan)
	fmt.Printf("Expires: %s\n", token.ExpiresAt.Format(time.RFC3339))
	return nil
}
