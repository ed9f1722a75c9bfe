package console

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/internal/usecase"
	"scenably/pkg/logg"
)

// Interface is the development stand-in for the IPC dispatch layer: a
// stdin console driving the same orchestrator surface the desktop
// shell calls.
type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase:  params.Usecase,
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  sigChan,
		stopping: false,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Println("\n\nInterrupt received, shutting down...")
		i.stopping = true
		i.Stop()
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		if i.stopping {
			break
		}

		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if err.Error() == "exit" {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (i *Interface) Stop() error {
	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")

	i.cancel()

	fmt.Println("Goodbye!")
	os.Exit(0)

	return nil
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)
	command := fields[0]
	args := fields[1:]

	switch command {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Println("Shutting down...")

		return fmt.Errorf("exit")
	case "record":
		return i.record(args)
	case "stop":
		return i.stopRecording(args)
	case "run":
		return i.run(args)
	case "debug":
		return i.debug(args)
	case "sessions":
		return i.sessions()
	case "install":
		return i.install()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		i.printHelp()

		return nil
	}
}

func (i *Interface) record(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: record <url> [sessionId]")

		return nil
	}

	sessionID := ""
	if len(args) > 1 {
		sessionID = args[1]
	}

	printResult(i.usecase.StartRecording(i.ctx, args[0], sessionID))

	return nil
}

func (i *Interface) stopRecording(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: stop <sessionId>")

		return nil
	}

	printResult(i.usecase.StopRecording(i.ctx, args[0]))

	return nil
}

func (i *Interface) run(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: run <spec-file> [scenarioId]")

		return nil
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	scenarioID := ""
	if len(args) > 1 {
		scenarioID = args[1]
	}

	executionID := uuid.New().String()

	result := i.usecase.Execute(i.ctx, executionID, scenarioID, string(code), func(status entity.ExecutionStatus) {
		fmt.Printf("\nExecution %s finished: %s\n> ", executionID, status)
	})
	printResult(result)

	return nil
}

func (i *Interface) debug(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: debug <spec-file> [sessionId]")

		return nil
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	sessionID := ""
	if len(args) > 1 {
		sessionID = args[1]
	}

	fmt.Println("Starting debug session (blocks until the run closes)...")
	printResult(i.usecase.Debug(i.ctx, string(code), sessionID))

	return nil
}

func (i *Interface) sessions() error {
	active := make([]*entity.Session, 0)
	active = append(active, i.usecase.Recorder.ActiveSessions()...)
	active = append(active, i.usecase.Debugger.ActiveSessions()...)
	active = append(active, i.usecase.Executor.ActiveSessions()...)

	if len(active) == 0 {
		fmt.Println("No active sessions")

		return nil
	}

	for _, s := range active {
		fmt.Printf("%s  %-8s %-10s pid=%d\n", s.ID, s.Kind, s.Status, s.PID)
	}

	return nil
}

func (i *Interface) install() error {
	fmt.Println("Installing playwright driver and browsers (this can take a while)...")

	if err := i.usecase.Provision.Install(i.ctx); err != nil {
		return err
	}

	fmt.Println("Install completed")

	return nil
}

func printResult(result entity.Result) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", result)

		return
	}

	fmt.Println(string(data))
}

func (i *Interface) printBanner() {
	banner := `
Scenably session manager
Record, debug, and execute Playwright scenarios
`
	fmt.Println(banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  record <url> [sessionId]      - Start an interactive recording
  stop <sessionId>              - Stop a recording and print its code
  run <spec-file> [scenarioId]  - Execute a spec headlessly in the background
  debug <spec-file> [sessionId] - Run a spec in interactive debug mode
  sessions                      - List active sessions
  install                       - Install playwright driver and browsers
  help, h                       - Show this help message
  exit, quit, q                 - Exit
`
	fmt.Println(help)
}
