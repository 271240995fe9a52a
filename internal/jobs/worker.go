package jobs

import (
	"context"

	"glowdesk/internal/config"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// NewWorker builds the asynq server that drains the email queue.
func NewWorker(redisOpt asynq.RedisConnOpt, cfg config.QueuingConfig, log *logrus.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	queues := cfg.QueuePriorities
	if len(queues) == 0 {
		queues = map[string]int{QueueEmail: 6, "default": 3}
	}

	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      log,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			log.WithError(err).WithFields(logrus.Fields{"task": task.Type(), "retried": retried}).Warn("Task failed")
		}),
	})
}

// NewServeMux routes task types to their handlers.
func NewServeMux(emailHandler *EmailHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailSend, emailHandler.HandleEmailSend)
	return mux
}
