package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/maubot-operator/pkg/client"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a workload admin account",
	Long: `Create an admin account on the running workload.

The password is generated by the operator and printed once; it is not
stored anywhere.

Examples:
  maubot-operator create-admin --name oncall`,
	RunE: runCreateAdmin,
}

var registerAccountCmd = &cobra.Command{
	Use:   "register-client-account",
	Short: "Register a Matrix account for a bot client",
	Long: `Register a Matrix account on the federated homeserver.

Admin credentials authenticate the request against the workload API;
the account password is generated by the operator and printed once.

Examples:
  maubot-operator register-client-account \
    --admin-name oncall --admin-password SECRET --account-name alerts`,
	RunE: runRegisterAccount,
}

func init() {
	createAdminCmd.Flags().String("name", "", "Account name (required)")
	createAdminCmd.Flags().String("operator", DefaultListenAddr, "Operator API address")
	_ = createAdminCmd.MarkFlagRequired("name")

	registerAccountCmd.Flags().String("admin-name", "", "Admin account name (required)")
	registerAccountCmd.Flags().String("admin-password", "", "Admin account password (required)")
	registerAccountCmd.Flags().String("account-name", "", "Matrix account localpart to register (required)")
	registerAccountCmd.Flags().String("operator", DefaultListenAddr, "Operator API address")
	_ = registerAccountCmd.MarkFlagRequired("admin-name")
	_ = registerAccountCmd.MarkFlagRequired("admin-password")
	_ = registerAccountCmd.MarkFlagRequired("account-name")

	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(registerAccountCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	operatorAddr, _ := cmd.Flags().GetString("operator")

	result, err := client.New(operatorAddr).CreateAdmin(name)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Admin account created: %s\n", name)
	fmt.Printf("  Password: %s\n", result.Password)
	return nil
}

func runRegisterAccount(cmd *cobra.Command, args []string) error {
	adminName, _ := cmd.Flags().GetString("admin-name")
	adminPassword, _ := cmd.Flags().GetString("admin-password")
	accountName, _ := cmd.Flags().GetString("account-name")
	operatorAddr, _ := cmd.Flags().GetString("operator")

	result, err := client.New(operatorAddr).RegisterClientAccount(adminName, adminPassword, accountName)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Account registered: %s\n", result.UserID)
	fmt.Printf("  Password: %s\n", result.Password)
	fmt.Printf("  Access Token: %s\n", result.AccessToken)
	fmt.Printf("  Device ID: %s\n", result.DeviceID)
	return nil
}
