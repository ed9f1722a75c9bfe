package bootstrap

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"scenably/internal/config"
	"scenably/internal/console"
	"scenably/internal/debugger"
	"scenably/internal/executor"
	"scenably/internal/locator"
	"scenably/internal/notify"
	"scenably/internal/ports"
	"scenably/internal/proc"
	"scenably/internal/provision"
	"scenably/internal/recorder"
	"scenably/internal/script"
	"scenably/internal/session"
	"scenably/internal/store"
	"scenably/internal/usecase"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,
			clock.New,

			session.NewStore,
			locator.NewLocator,
			script.NewMaterializer,
			proc.NewRunner,
			proc.NewSupervisor,

			fx.Annotate(store.NewMemory, fx.As(new(ports.ResultStore))),
			fx.Annotate(notify.NewBroadcaster, fx.As(new(ports.Notifier))),

			fx.Annotate(recorder.NewService, fx.As(new(ports.Recorder))),
			fx.Annotate(debugger.NewService, fx.As(new(ports.Debugger))),
			fx.Annotate(executor.NewService, fx.As(new(ports.Executor))),
			fx.Annotate(provision.NewService, fx.As(new(ports.Provisioner))),

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(10*time.Second),
	)
}
