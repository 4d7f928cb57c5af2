package api

import (
	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/tasks"
)

type DestinationLister interface {
	GetConfigs() []*announce.Config
	GetConfigCount() int
}

type TaskTrigger interface {
	Trigger(taskType tasks.TaskType) (tasks.TaskInterface, error)
	InFlight() []tasks.TaskType
}

var (
	_ DestinationLister = (*announce.DestinationCache)(nil)
	_ TaskTrigger       = (*tasks.Scheduler)(nil)
)

type Handler struct {
	stateRepo     database.MatchStateRepository
	publishedRepo database.PublishedMatchRepository
	newsRepo      database.NewsRepository
	broadcastRepo database.BroadcastRepository
	destinations  DestinationLister
	scheduler     TaskTrigger
	version       string
}
