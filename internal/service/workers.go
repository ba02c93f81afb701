package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bricklink/inventory/internal/domain/task"
	"bricklink/inventory/internal/queue"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// EnqueueSets pushes one acquisition task per set number, skipping sets
// already marked acquired.
func (s *Service) EnqueueSets(ctx context.Context, setNumbers []string) error {
	for _, setNumber := range setNumbers {
		done, err := s.stateManager.IsAcquired(ctx, setNumber)
		if err != nil {
			return err
		}
		if done {
			log.Infof("Set %s already acquired, skipping", setNumber)
			continue
		}

		if _, err := s.queue.AddTask(ctx, &task.InventoryTask{SetNumber: setNumber}); err != nil {
			return fmt.Errorf("failed to enqueue set %s: %w", setNumber, err)
		}
	}
	return nil
}

// RunWorkers consumes acquisition and retry streams until ctx is done.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	s.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamPrefix+task.TypeInventory, "main")
	s.runWorkersForStream(ctx, &wg, max(1, numWorkers/2), queue.StreamPrefix+task.TypeRetry, "retry")

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Reclaim messages whose consumer died mid-acquisition.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimed, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
				if err != nil {
					log.Errorf("Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimed) > 0 {
					log.Infof("Auto-claimed %d messages from %s stream", len(claimed), workerType)
					for _, msg := range claimed {
						if err := s.processMessage(ctx, &msg); err != nil {
							log.Errorf("Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("%s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
					if err != nil {
						log.Errorf("Failed to get task from %s: %v", streamName, err)
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, msg); err != nil {
							log.Errorf("Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	var streamName string
	switch taskType {
	case task.TypeInventory:
		streamName = queue.StreamPrefix + task.TypeInventory
		invTask, err := task.Decode[*task.InventoryTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal inventory task data: %w", err)
		}

		if err := s.acquireAndSave(ctx, invTask.SetNumber); err != nil {
			// Queue-level retry; the pipeline itself never retries.
			retryTask := &task.RetryTask{
				SetNumber:  invTask.SetNumber,
				RetryCount: 0,
				Error:      err.Error(),
			}
			if _, addErr := s.queue.AddTask(ctx, retryTask); addErr != nil {
				log.Errorf("Failed to add retry task for set %s: %v", invTask.SetNumber, addErr)
			} else {
				log.Warnf("Added set %s to retry queue: %v", invTask.SetNumber, err)
			}
		}

	case task.TypeRetry:
		streamName = queue.StreamPrefix + task.TypeRetry
		retryTask, err := task.Decode[*task.RetryTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal retry task data: %w", err)
		}

		if err := s.retrySet(ctx, retryTask); err != nil {
			return fmt.Errorf("failed to retry set: %w", err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

func (s *Service) acquireAndSave(ctx context.Context, setNumber string) error {
	inv, err := s.AcquireSet(ctx, setNumber)
	if err != nil {
		return err
	}

	if err := s.repository.SaveInventory(ctx, inv); err != nil {
		return err
	}

	if err := s.stateManager.MarkAcquired(ctx, setNumber); err != nil {
		log.Errorf("Failed to mark set %s acquired: %v", setNumber, err)
	}

	return nil
}

func (s *Service) retrySet(ctx context.Context, retryTask *task.RetryTask) error {
	retryTask.RetryCount++

	log.Infof("Retrying set %s (attempt %d)", retryTask.SetNumber, retryTask.RetryCount)

	if err := s.acquireAndSave(ctx, retryTask.SetNumber); err != nil {
		next := &task.RetryTask{
			SetNumber:  retryTask.SetNumber,
			RetryCount: retryTask.RetryCount,
			Error:      err.Error(),
		}
		if _, addErr := s.queue.AddTask(ctx, next); addErr != nil {
			log.Errorf("Failed to re-add retry task for set %s: %v", retryTask.SetNumber, addErr)
			return addErr
		}
		log.Warnf("Set %s failed again, will retry (attempt %d): %v",
			retryTask.SetNumber, retryTask.RetryCount, err)
		return nil
	}

	log.Infof("Recovered set %s after %d attempts", retryTask.SetNumber, retryTask.RetryCount)
	return nil
}
