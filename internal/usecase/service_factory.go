package usecase

import (
	"scenably/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateRecorderService() adapters.RecorderService {
	return f.deps.Recorder
}

func (f *serviceFactory) CreateDebuggerService() adapters.DebuggerService {
	return f.deps.Debugger
}

func (f *serviceFactory) CreateExecutorService() adapters.ExecutorService {
	return f.deps.Executor
}

func (f *serviceFactory) CreateProvisionService() adapters.ProvisionService {
	return f.deps.Provisioner
}
