package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"coop-server/internal/coop/client"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:9443"
	defaultTimeout = 10 * time.Second
)

var (
	rootCmd = &cobra.Command{
		Use:   "coopctl",
		Short: "command line client for the coop server",
		Long: `coopctl talks to a running coop server: it reads the coop status,
moves the door and resets the board.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
	}
)

func init() {
	_ = godotenv.Load(".env")

	viper.SetEnvPrefix("coopctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("server", defaultServer, "base URL of the coop server")
	rootCmd.PersistentFlags().Duration("timeout", defaultTimeout, "timeout for each request")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON")

	rootCmd.AddCommand(statusCmd, doorCmd, resetCmd, readCmd, timesCmd, echoCmd, watchCmd)
}

func newClient() *client.Client {
	return client.New(viper.GetString("server"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printValue(cmd *cobra.Command, label string, value any) error {
	if viper.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), value)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", label, value)
	return err
}
