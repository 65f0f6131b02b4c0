package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"github.com/calcws/calcws-go/core"
	"github.com/calcws/calcws-go/logger"
)

func main() {
	configPath := flag.String("c", "", "Path to config file (default searches ./config.yaml, /etc/calcws/config.yaml, etc.)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	client, err := core.NewClient(cfg, logger.Logger())
	if err != nil {
		logger.Error("Failed to create client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close client", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := runInteractive(ctx, client); err != nil {
		logger.Error("Session ended with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Session closed")
}

// readLines pumps stdin lines into a channel from its own goroutine, so
// waiting for input never blocks shutdown or the connection-holding task.
func readLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func runInteractive(ctx context.Context, client *core.Client) error {
	fmt.Println("--- Connecting to Server ---")
	if err := client.Connect(ctx); err != nil {
		return err
	}
	fmt.Println("Connected! (Type 'exit' or 'q' to quit)")
	fmt.Println("-----------------------------------")

	lines := readLines()
	for {
		fmt.Print("\nEnter two numbers (e.g., '10 20'): ")

		select {
		case <-ctx.Done():
			fmt.Println("\nExiting...")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Println("\nExiting...")
				return nil
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			switch strings.ToLower(line) {
			case "exit", "quit", "q":
				fmt.Println("Exiting...")
				return nil
			}

			parts := strings.Fields(line)
			if len(parts) != 2 {
				fmt.Println("Please enter exactly two numbers separated by a space.")
				continue
			}

			a, errA := core.ParseOperand(parts[0])
			b, errB := core.ParseOperand(parts[1])
			if errA != nil || errB != nil {
				fmt.Println("Invalid input. Please enter numbers only.")
				continue
			}

			result, err := client.Add(ctx, a, b)
			switch {
			case err == nil:
				fmt.Printf("Result: %v\n", result)
			case errors.Is(err, context.Canceled):
				fmt.Println("\nExiting...")
				return nil
			case errors.Is(err, core.ErrServer):
				fmt.Printf("Server Error: %v\n", err)
			case errors.Is(err, core.ErrConnectionFailed):
				// connection is re-established on the next request
				fmt.Printf("Connection Error: %v\n", err)
			default:
				fmt.Printf("Error: %v\n", err)
			}
		}
	}
}

// loadConfig 加载配置文件
func loadConfig(configPath string) (core.Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/calcws")
	}

	viper.SetDefault("endpoint", "ws://localhost:8765")
	viper.SetDefault("transport", "websocket")
	viper.SetDefault("setup_timeout", "10s")
	viper.SetDefault("max_attempts", 3)
	viper.SetDefault("backoff_unit", "1s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.outputs", []string{"stdout"})

	if err := viper.ReadInConfig(); err != nil {
		// missing config file is fine, defaults cover everything
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return core.Config{}, fmt.Errorf("failed to read config: %v", err)
		}
	}

	var cfg core.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return core.Config{}, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	return cfg, nil
}

// initLogger 初始化日志系统
func initLogger(cfg core.Config, debug bool) error {
	logCfg := logger.Config{
		Level:   cfg.Logging.Level,
		Outputs: cfg.Logging.Outputs,
	}

	if debug {
		logCfg.Level = "debug"
	}

	return logger.Init(logCfg)
}
