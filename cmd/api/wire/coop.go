//go:build wireinject
// +build wireinject

package wire

import (
	"fmt"

	"coop-server/cmd/config"
	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/bus/i2c"
	"coop-server/internal/coop/bus/simulator"
	"coop-server/internal/coop/httpapi"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/cache"
	"coop-server/internal/infra/mqtt"
	"coop-server/internal/infra/node"
	"coop-server/internal/infra/notification"

	"github.com/google/wire"
)

func InitializeCoopService(broker async.InternalBroker) (*usecases.SimpleCoopService, func(), error) {
	wire.Build(
		provideAppConfig,
		provideTransport,
		provideBusOptions,
		bus.NewController,
		wire.Bind(new(usecases.CoopBus), new(*bus.Controller)),
		provideReadingsCache,
		provideDoorSchedule,
		provideCoopServiceConfig,
		usecases.NewCoopService,
	)
	return nil, nil, nil
}

func InitializeCoopController(service usecases.CoopService) (*httpapi.CoopController, error) {
	wire.Build(
		httpapi.NewCoopController,
	)
	return nil, nil
}

func InitializeCoopEventsWebSocketController(broker async.InternalBroker) (*httpapi.CoopEventsWebSocketController, error) {
	wire.Build(
		httpapi.NewCoopEventsWebSocketController,
	)
	return nil, nil
}

func InitializeNotificationWorker(broker async.InternalBroker) (*usecases.NotificationWorker, error) {
	wire.Build(
		provideAppConfig,
		provideNotificationClient,
		provideNotificationRecipient,
		usecases.NewNotificationWorker,
	)
	return nil, nil
}

func InitializeStatusPublisherWorker(broker async.InternalBroker, service usecases.CoopService) (*usecases.StatusPublisherWorker, error) {
	wire.Build(
		provideAppConfig,
		provideMQTTClient,
		provideStatusTopic,
		usecases.NewStatusPublisherWorker,
	)
	return nil, nil
}

func provideAppConfig() config.AppConfig {
	return config.LoadConfig()
}

func provideTransport(cfg config.AppConfig) (bus.Transport, func(), error) {
	switch cfg.Bus.Driver {
	case config.BusDriverSimulator:
		return simulator.New(), func() {}, nil
	case config.BusDriverI2C:
		transport, err := i2c.Open(cfg.Bus.Device, cfg.Bus.Address)
		if err != nil {
			return nil, nil, err
		}
		return transport, func() { transport.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown bus driver %q", cfg.Bus.Driver)
	}
}

func provideBusOptions(cfg config.AppConfig) bus.Options {
	return bus.Options{
		SettleDelay: cfg.Bus.SettleDelay,
		ReadTimeout: cfg.Bus.ReadTimeout,
	}
}

func provideReadingsCache() (cache.Cache, func(), error) {
	readings, err := cache.New(nil)
	if err != nil {
		return nil, nil, err
	}
	return readings, readings.Close, nil
}

func provideDoorSchedule(cfg config.AppConfig) (usecases.DoorSchedule, error) {
	switch cfg.Coop.ScheduleMode {
	case config.ScheduleModeCron:
		schedule, err := usecases.NewCronSchedule(cfg.Coop.OpenSchedule, cfg.Coop.CloseSchedule)
		if err != nil {
			return nil, err
		}
		return schedule, nil
	case config.ScheduleModeSolar:
		return usecases.SolarSchedule{
			Latitude:    cfg.Coop.Latitude,
			Longitude:   cfg.Coop.Longitude,
			OpenOffset:  cfg.Coop.OpenOffset,
			CloseOffset: cfg.Coop.CloseOffset,
		}, nil
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", cfg.Coop.ScheduleMode)
	}
}

func provideCoopServiceConfig(cfg config.AppConfig) usecases.CoopServiceConfig {
	return usecases.CoopServiceConfig{
		ReadingsMaxAge:     cfg.Coop.ReadingsMaxAge,
		AutoResetThreshold: cfg.Coop.AutoResetThreshold,
	}
}

func provideNotificationClient(cfg config.AppConfig) notification.NotificationClient {
	if cfg.Notify.MailerSend.APIKey == "" {
		return notification.NewLogClient()
	}

	emailClient := notification.NewMailerSendClient(notification.MailerSendConfig{
		APIKey:    cfg.Notify.MailerSend.APIKey,
		FromEmail: cfg.Notify.MailerSend.FromEmail,
		FromName:  cfg.Notify.MailerSend.FromName,
	})
	return notification.NewCompositeNotificationClient(emailClient, notification.NewLogClient())
}

func provideNotificationRecipient(cfg config.AppConfig) string {
	return cfg.Notify.To
}

func provideMQTTClient(cfg config.AppConfig) (mqtt.Client, error) {
	clientID := cfg.MQTTClient.ClientID
	if clientID == "" {
		clientID = node.GetNodeInfo().ClientID("coop-server")
	}

	client, err := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
		Broker:   cfg.MQTTClient.Broker,
		ClientID: clientID,
		Username: cfg.MQTTClient.Username,
		Password: cfg.MQTTClient.Password, //pragma: allowlist secret
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideStatusTopic(cfg config.AppConfig) string {
	return cfg.MQTTClient.Topic
}
