package taskqueue

import (
	"sync"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/notify"
)

var (
	globalQueue *Queue
	setupOnce   sync.Once
)

// Setup wires the global queue with its collaborators and starts it. Called
// once from application bootstrap; later calls return the existing queue.
func Setup(renewer Renewer, sender notify.Sender) *Queue {
	setupOnce.Do(func() {
		globalQueue = NewQueue(renewer, sender)
		globalQueue.Start()
	})
	return globalQueue
}

// Get returns the global queue, or nil before Setup ran.
func Get() *Queue {
	return globalQueue
}
