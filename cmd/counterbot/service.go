package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"counterbot/pkg/channels"
	"counterbot/pkg/config"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage counterbot as a system service",
	Long: `Install and control counterbot as a system service:
- Linux: systemd
- macOS: launchd
- Windows: Windows Service Manager

Examples:
  sudo counterbot -c /etc/counterbot/config.yaml service install
  sudo counterbot service start
  sudo counterbot service status

Installing and controlling services requires administrator privileges.`,
}

var serviceRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run under the service manager",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunService()
	},
}

func serviceAction(use, short string, action func(service.Service) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			if err := action(s); err != nil {
				return fmt.Errorf("%s service: %w", use, err)
			}
			fmt.Println(done)
			return nil
		},
	}
}

func init() {
	serviceCmd.AddCommand(serviceRunCmd)
	serviceCmd.AddCommand(serviceAction("install", "Install the system service",
		service.Service.Install, "Service installed successfully!\nUse 'counterbot service start' to start the service"))
	serviceCmd.AddCommand(serviceAction("uninstall", "Uninstall the system service",
		service.Service.Uninstall, "Service uninstalled successfully!"))
	serviceCmd.AddCommand(serviceAction("start", "Start the system service",
		service.Service.Start, "Service started successfully!"))
	serviceCmd.AddCommand(serviceAction("stop", "Stop the system service",
		service.Service.Stop, "Service stopped successfully!"))
	serviceCmd.AddCommand(serviceAction("restart", "Restart the system service",
		service.Service.Restart, "Service restarted successfully!"))
	serviceCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the system service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			status, err := s.Status()
			if err != nil {
				return fmt.Errorf("getting service status: %w", err)
			}
			fmt.Printf("Service Status: %s\n", statusString(status))
			return nil
		},
	})
}

// BotService implements service.Interface.
type BotService struct {
	app    *fx.App
	logger service.Logger
}

// Start implements service.Interface.Start
func (s *BotService) Start(svc service.Service) error {
	if s.logger != nil {
		_ = s.logger.Info("Starting counterbot service")
	}

	s.app = fx.New(appOptions(channels.Selection{"discord"}), fx.NopLogger)
	if err := s.app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.app.Start(ctx)
}

// Stop implements service.Interface.Stop
func (s *BotService) Stop(svc service.Service) error {
	if s.logger != nil {
		_ = s.logger.Info("Stopping counterbot service")
	}
	if s.app == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.app.Stop(ctx); err != nil {
		if s.logger != nil {
			_ = s.logger.Errorf("Error stopping service: %v", err)
		}
		return err
	}
	return nil
}

// ServiceConfig returns the service configuration. The config path in
// effect at install time is baked into the service arguments.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "counterbot",
		DisplayName: "Counterbot",
		Description: "Discord bot that shows counter values",
		Arguments:   serviceArguments(),
	}
}

func serviceArguments() []string {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path == "" {
		return []string{"service", "run"}
	}
	return []string{"-c", path, "service", "run"}
}

func newService() (service.Service, error) {
	s, err := service.New(&BotService{}, ServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return s, nil
}

// RunService runs the bot under the service manager.
func RunService() error {
	prg := &BotService{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	logger, err := s.Logger(nil)
	if err != nil {
		return fmt.Errorf("creating service logger: %w", err)
	}
	prg.logger = logger

	if err := s.Run(); err != nil {
		_ = logger.Error(err)
		return err
	}
	return nil
}

func statusString(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
