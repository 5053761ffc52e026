package main

import (
	"fmt"
	"os"

	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/spf13/cobra"
)

var bootstrapPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "controller",
	Short: "ndi ingress-controller - ACME-backed ingress controller for Docker Swarm",
	Long: `controller runs the ndi ingress controller: a state-reconciliation
loop against a Docker Swarm cluster that renders an nginx reverse-proxy
configuration for every "nginx-ingress.*" labelled service and keeps its
TLS certificates current via ACME HTTP-01.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&bootstrapPath, "config", "", "Bootstrap config file (defaults applied for anything unset)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(observeCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
