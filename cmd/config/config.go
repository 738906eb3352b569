package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BusDriverI2C       = "i2c"
	BusDriverSimulator = "simulator"

	ScheduleModeSolar = "solar"
	ScheduleModeCron  = "cron"
)

var loadConfigOnce sync.Once
var configInstance AppConfig

func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		_ = godotenv.Load(".env")
		setup()
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				panic(fmt.Errorf("fatal error config file: %w", err))
			}
		}
		configInstance = newAppConfig()
	})

	return configInstance
}

func setup() {
	viper.SetEnvPrefix("coop_server")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigName("server")
	viper.AddConfigPath("config")
	viper.AddConfigPath("/config")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("http.addr", ":9443")
	viper.SetDefault("http.allowed_origins", []string{"*"})
	viper.SetDefault("bus.driver", BusDriverI2C)
	viper.SetDefault("bus.device", "/dev/i2c-1")
	viper.SetDefault("bus.address", 0x05)
	viper.SetDefault("bus.settle_delay", 50*time.Millisecond)
	viper.SetDefault("bus.read_timeout", time.Second)
	viper.SetDefault("coop.poll_interval", time.Minute)
	viper.SetDefault("coop.readings_max_age", 5*time.Minute)
	viper.SetDefault("coop.auto_reset_threshold", 10)
	viper.SetDefault("coop.schedule_enabled", false)
	viper.SetDefault("coop.schedule_mode", ScheduleModeSolar)
	viper.SetDefault("coop.schedule_interval", time.Minute)
	viper.SetDefault("coop.open_offset", 30*time.Minute)
	viper.SetDefault("coop.close_offset", 30*time.Minute)
	viper.SetDefault("coop.open_schedule", "0 7 * * *")
	viper.SetDefault("coop.close_schedule", "0 20 * * *")
	viper.SetDefault("notify.enabled", false)
	viper.SetDefault("mqtt_client.topic", "coop/status")
}

func newAppConfig() AppConfig {
	return AppConfig{
		General: GeneralConfig{
			LogLevel: viper.GetString("general.log_level"),
		},
		HTTP: HTTPConfig{
			Addr:           viper.GetString("http.addr"),
			TLSCertFile:    viper.GetString("http.tls_cert_file"),
			TLSKeyFile:     viper.GetString("http.tls_key_file"),
			AllowedOrigins: viper.GetStringSlice("http.allowed_origins"),
		},
		Bus: BusConfig{
			Driver:      viper.GetString("bus.driver"),
			Device:      viper.GetString("bus.device"),
			Address:     uint16(viper.GetUint("bus.address")),
			SettleDelay: viper.GetDuration("bus.settle_delay"),
			ReadTimeout: viper.GetDuration("bus.read_timeout"),
		},
		Coop: CoopConfig{
			PollInterval:       viper.GetDuration("coop.poll_interval"),
			ReadingsMaxAge:     viper.GetDuration("coop.readings_max_age"),
			AutoResetThreshold: viper.GetInt("coop.auto_reset_threshold"),
			ScheduleEnabled:    viper.GetBool("coop.schedule_enabled"),
			ScheduleMode:       viper.GetString("coop.schedule_mode"),
			ScheduleInterval:   viper.GetDuration("coop.schedule_interval"),
			Latitude:           viper.GetFloat64("coop.latitude"),
			Longitude:          viper.GetFloat64("coop.longitude"),
			OpenOffset:         viper.GetDuration("coop.open_offset"),
			CloseOffset:        viper.GetDuration("coop.close_offset"),
			OpenSchedule:       viper.GetString("coop.open_schedule"),
			CloseSchedule:      viper.GetString("coop.close_schedule"),
		},
		Notify: NotifyConfig{
			Enabled: viper.GetBool("notify.enabled"),
			To:      viper.GetString("notify.to"),
			MailerSend: MailerSendConfig{
				APIKey:    viper.GetString("notify.mailersend.api_key"),
				FromEmail: viper.GetString("notify.mailersend.from_email"),
				FromName:  viper.GetString("notify.mailersend.from_name"),
			},
		},
		MQTTClient: MQTTClientConfig{
			Broker:   viper.GetString("mqtt_client.broker"),
			ClientID: viper.GetString("mqtt_client.client_id"),
			Username: viper.GetString("mqtt_client.username"),
			Password: viper.GetString("mqtt_client.password"),
			Topic:    viper.GetString("mqtt_client.topic"),
		},
	}
}

type AppConfig struct {
	General    GeneralConfig
	HTTP       HTTPConfig
	Bus        BusConfig
	Coop       CoopConfig
	Notify     NotifyConfig
	MQTTClient MQTTClientConfig
}

type GeneralConfig struct {
	LogLevel string
}

type HTTPConfig struct {
	Addr           string
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
}

type BusConfig struct {
	// Driver is either i2c or simulator.
	Driver      string
	Device      string
	Address     uint16
	SettleDelay time.Duration
	ReadTimeout time.Duration
}

type CoopConfig struct {
	PollInterval       time.Duration
	ReadingsMaxAge     time.Duration
	AutoResetThreshold int
	ScheduleEnabled    bool
	ScheduleMode       string
	ScheduleInterval   time.Duration
	Latitude           float64
	Longitude          float64
	OpenOffset         time.Duration
	CloseOffset        time.Duration
	OpenSchedule       string
	CloseSchedule      string
}

type NotifyConfig struct {
	Enabled    bool
	To         string
	MailerSend MailerSendConfig
}

type MailerSendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type MQTTClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}
