package tasks

import (
	"fmt"

	"github.com/lysyi3m/minute-foot/app/scrape"
)

type TaskFactory func(taskType TaskType) (TaskInterface, error)

type TaskDeps struct {
	Engine       Engine
	Sessions     SessionProvider
	NewSession   scrape.SessionFactory
	Destinations DestinationLoader
}

func NewTaskFactory(deps TaskDeps) TaskFactory {
	return func(taskType TaskType) (TaskInterface, error) {
		switch taskType {
		case TaskTypeLiveCheck:
			return NewLiveCheckTask(deps.Engine, deps.Sessions), nil
		case TaskTypeLiveSummary:
			return NewLiveSummaryTask(deps.Engine), nil
		case TaskTypePublishNews:
			return NewPublishNewsTask(deps.Engine, deps.NewSession), nil
		case TaskTypeSweepDestinations:
			return NewSweepDestinationsTask(deps.Destinations), nil
		default:
			return nil, fmt.Errorf("unknown task type %q", taskType)
		}
	}
}
