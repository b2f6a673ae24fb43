/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/beluga/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server over the bookshelf",
	Long: `Start the beluga REST API server with authentication.

Example:
  beluga serve --api-key=mysecretkey --port=8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		bind, _ := cmd.Flags().GetString("bind")
		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			apiKey = configFromContext(cmd).Security.APIKey
		}
		if apiKey == "" || apiKey == "auto" {
			return fmt.Errorf("--api-key is required (or set security.api_key in config)")
		}

		shelf := bookshelfFromContext(cmd)
		serverConfig := api.ServerConfig{
			Bind:    bind,
			Port:    port,
			APIKey:  apiKey,
			DataDir: configFromContext(cmd).DataDir,
		}
		return container.GetServerFactory().StartServer(shelf, serverConfig)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key for authentication (defaults to config's security.api_key)")
}
