package main

// @title           Entra Login API
// @version         1.0
// @description     Microsoft Entra ID sign-in bridge. Runs the OAuth2 authorization-code flow and opens local sessions for primary and administrative surfaces.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/entra-login/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "entra-login",
		Short:         "Microsoft Entra ID sign-in bridge",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newEncryptSecretCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
