package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"water_heater/internal/bridge"
	"water_heater/internal/device"
	"water_heater/internal/handlers"
	"water_heater/internal/hub"
	"water_heater/internal/logger"
	"water_heater/internal/repository"
	"water_heater/internal/server"
	"water_heater/internal/service"

	"github.com/spf13/viper"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	defaultControlTick  = 1 * time.Second
	defaultGuardianTick = 10 * time.Second
	defaultWatchdogTick = 1 * time.Second
)

// @title        Water Heater Controller API
// @version      1.0
// @description  On-device HTTP surface of the relay-driven water heater controller.
// @BasePath     /
func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log_level"))

	// memory-mapped GPIO must be claimed before the relay pin is touched
	if err := rpio.Open(); err != nil {
		log.Fatalw("failed to open gpio", "err", err)
	}
	defer func() {
		if cerr := rpio.Close(); cerr != nil {
			log.Errorw("failed to close gpio", "err", cerr)
		}
	}()

	// hardware collaborators
	probe := device.NewDS18B20(viper.GetString("probe.device_id"))
	relay := device.NewRelayPin(uint8(viper.GetUint("relay.pin")), viper.GetBool("relay.active_low"))
	link := device.NewWPALink(viper.GetString("network.interface"), viper.GetString("network.static_ip"), log)
	restart := device.NewProcessRestarter(log)

	// wire dependencies
	repos := repository.NewRepository(viper.GetFloat64("control.default_setpoint_c"))
	observers := hub.New(log)

	deps := service.Deps{
		Probe:   probe,
		Relay:   relay,
		Link:    link,
		Restart: restart,
		Hub:     observers,
		Log:     log,
	}

	// The bridge closures run only after Connect subscribes, so the late
	// services binding is safe.
	var services *service.Service
	var broker *bridge.Bridge
	if viper.GetBool("mqtt.enabled") {
		broker = newBridge(&services, log)
		deps.Sink = broker
	}

	services = service.NewService(repos, deps, serviceConfig())

	if broker != nil {
		if err := broker.Connect(); err != nil {
			log.Warnw("mqtt bridge connect failed, continuing without mirror", "err", err)
		}
		defer broker.Close()
	}

	apiHandler := handlers.NewHandler(services, observers, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Control.Run(ctx, viperDuration("control.tick", defaultControlTick))
	go services.Guardian.Run(ctx, viperDuration("network.check_interval", defaultGuardianTick))
	go services.Watchdog.Run(ctx, viperDuration("watchdog.tick", defaultWatchdogTick))
	go services.Broadcaster.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, relay, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// serviceConfig maps the config file onto the policy knobs. Missing keys
// fall back to the built-in defaults.
func serviceConfig() service.Config {
	return service.Config{
		SessionTimeout:   viper.GetDuration("control.session_timeout"),
		SetpointMinC:     viper.GetFloat64("control.setpoint_min_c"),
		SetpointMaxC:     viper.GetFloat64("control.setpoint_max_c"),
		CheckInterval:    viper.GetDuration("network.check_interval"),
		AssociateTimeout: viper.GetDuration("network.associate_timeout"),
		FailThreshold:    viper.GetInt("network.fail_threshold"),
		IdleResetAfter:   viper.GetDuration("network.idle_reset_after"),
		LivenessBound:    viper.GetDuration("watchdog.liveness_bound"),
		ResetWait:        viper.GetDuration("watchdog.reset_wait"),
		ActiveInterval:   viper.GetDuration("telemetry.active_interval"),
		IdleInterval:     viper.GetDuration("telemetry.idle_interval"),
	}
}

func viperDuration(key string, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

// newBridge builds the MQTT mirror. Commands land on the same service
// surface as HTTP; a broker that is down at boot is not fatal because the
// client keeps retrying in the background.
func newBridge(services **service.Service, log *logger.Logger) *bridge.Bridge {
	cfg := bridge.Config{
		Enabled:   true,
		Host:      viper.GetString("mqtt.host"),
		Port:      viper.GetInt("mqtt.port"),
		Topic:     viper.GetString("mqtt.topic"),
		Username:  viper.GetString("mqtt.username"),
		Password:  viper.GetString("mqtt.password"),
		KeepAlive: viper.GetInt("mqtt.keepalive"),
	}
	cmds := bridge.Commands{
		OnSetpoint: func(celsius float64) {
			if err := (*services).Heater.SetSetpoint(context.Background(), celsius); err != nil {
				log.Warnw("mqtt setpoint rejected", "setpoint_c", celsius, "err", err)
			}
		},
		OnToggle: func(start bool) {
			var err error
			if start {
				err = (*services).Heater.Start(context.Background())
			} else {
				err = (*services).Heater.Stop(context.Background())
			}
			if err != nil {
				log.Errorw("mqtt toggle failed", "start", start, "err", err)
			}
		},
	}
	return bridge.New(cfg, cmds, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful
// shutdown. The relay is de-energized before the process exits; a heating
// element must never outlive its controller.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, relay device.Relay, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	relay.Set(false)

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
