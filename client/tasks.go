package client

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
)

// DeleteBackgroundTask deletes the background task with the given key on
// the Echo Mobile server.
func (s *Session) DeleteBackgroundTask(ctx context.Context, taskKey string) error {
	log.Debug().Str("task", taskKey).Msg("deleting background task")
	err := s.do(ctx, "POST", "cms/backgroundtask/cancel", url.Values{"key": {taskKey}}, nil)
	if err != nil {
		return err
	}
	tasksDeletedTotal.Inc()
	return nil
}

// DeleteSessionBackgroundTasks deletes every background task this session
// has created so far. A key leaves the outstanding set only once its
// delete call succeeds, so after a mid-sequence failure the set still
// holds every task not yet confirmed deleted.
func (s *Session) DeleteSessionBackgroundTasks(ctx context.Context) error {
	for _, key := range s.OutstandingTasks() {
		if err := s.DeleteBackgroundTask(ctx, key); err != nil {
			return err
		}
		delete(s.tasks, key)
	}
	return nil
}
