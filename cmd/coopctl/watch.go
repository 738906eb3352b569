package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/mqtt"
	"coop-server/internal/infra/node"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follows the status snapshots the server publishes to MQTT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		broker, _ := cmd.Flags().GetString("broker")
		topic, _ := cmd.Flags().GetString("topic")
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		mqttClient, err := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
			Broker:   broker,
			ClientID: node.GetNodeInfo().ClientID("coopctl"),
			Username: username,
			Password: password, //pragma: allowlist secret
		})
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect()

		out := cmd.OutOrStdout()
		messageHandler := func(_ mqtt.Client, msg mqtt.Message) {
			var status usecases.StatusMessage
			if err := json.Unmarshal(msg.Payload(), &status); err != nil {
				slog.Warn("ignoring malformed status message",
					slog.String("topic", msg.Topic()),
					slog.Any("error", err))
				return
			}
			fmt.Fprintf(out, "%s door=%s temp=%d light=%d uptime=%d\n",
				status.PublishedAt.Format("15:04:05"),
				doorLabel(status.Status.Door),
				status.Status.Temp,
				status.Status.Light,
				status.Status.Uptime)
		}
		if err := mqttClient.Subscribe(topic, 0, messageHandler); err != nil {
			return err
		}

		signalChannel := make(chan os.Signal, 2)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
		<-signalChannel
		return nil
	},
}

func init() {
	watchCmd.Flags().String("broker", "tcp://localhost:1883", "MQTT broker")
	watchCmd.Flags().String("topic", "coop/status", "status topic")
	watchCmd.Flags().String("username", "", "MQTT username")
	watchCmd.Flags().String("password", "", "MQTT password")
}
