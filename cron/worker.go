package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge/config"
	"concierge/models"
	"concierge/services/notification"
	"concierge/services/tasks"
	"concierge/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotifyRedisOpt is the asynq connection for the staff notification queue.
func NotifyRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyQueueDB,
	}
}

// InitNotificationWorker runs the staff notification worker in background. The returned server
// is shut down by the caller.
func InitNotificationWorker(notifSvc notification.NotificationService) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		NotifyRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
				tasks.QueueLow:      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeStaffNotify, handleStaffNotifyTask(notifSvc, logger))

	go monitorRedisConnection(logger)

	// Start async worker with retry logic
	go func() {
		logger.Info("Starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Notification worker failed to start",
					zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("Notification worker gave up after max retry attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

func handleStaffNotifyTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.StaffNotifyPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid staff notification payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		logger.Info("Notifying staff",
			zap.String("taskId", p.TaskID),
			zap.String("tenantId", p.TenantID),
			zap.String("department", p.Department),
			zap.Bool("updated", p.Updated))

		if err := notifSvc.NotifyStaff(ctx, p); err != nil {
			logger.Error("Failed to notify staff", zap.String("taskId", p.TaskID), zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Notification queue Redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
