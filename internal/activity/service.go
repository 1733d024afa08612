// Package activity records the activity log shown on the admin dashboard.
//
// Entries are written in the background so that a slow or failing log
// never affects the operation being recorded.
package activity

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	activityRepo "github.com/vicabt/library/internal/database/activity"
	"github.com/vicabt/library/internal/entities"
)

// Service provides high-level activity logging functionality.
type Service struct {
	repo *activityRepo.Repository
	wg   sync.WaitGroup
}

// NewService creates a new activity service.
func NewService(repo *activityRepo.Repository) *Service {
	return &Service{repo: repo}
}

// LogAsync records an activity entry in the background (non-blocking).
func (s *Service) LogAsync(entry *entities.Activity) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogActivity(context.Background(), entry); err != nil {
			log.Printf("Failed to log activity: %v", err)
		}
	}()
}

// Wait blocks until every pending background write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Record logs a single action on an entity.
func (s *Service) Record(actorID string, kind entities.ActivityKind, entityType, entityID, description string) {
	s.LogAsync(&entities.Activity{
		ActorID:     actorID,
		Kind:        kind,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: truncate(description, 500),
	})
}

// LogStateChange records an administrative change of a copy's state.
func (s *Service) LogStateChange(actorID, copyID string, from, to entities.CopyState) {
	entry := &entities.Activity{
		ActorID:     actorID,
		Kind:        entities.ActivityStateChange,
		EntityType:  "copy",
		EntityID:    copyID,
		Description: "Copy state changed from " + string(from) + " to " + string(to),
	}

	metadata := map[string]any{
		"from": from,
		"to":   to,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		entry.Metadata = string(mdBytes)
	}

	s.LogAsync(entry)
}

// LogReconcile records one discrepancy found by copy reconciliation.
func (s *Service) LogReconcile(copyID, problem string, openLoanIDs []string) {
	entry := &entities.Activity{
		Kind:        entities.ActivityReconcile,
		EntityType:  "copy",
		EntityID:    copyID,
		Description: truncate(problem, 500),
	}

	if mdBytes, e := json.Marshal(map[string]any{"open_loan_ids": openLoanIDs}); e == nil {
		entry.Metadata = string(mdBytes)
	}

	s.LogAsync(entry)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID, action, ipAddr string, success bool) {
	description := action
	if !success {
		description = action + " failed"
	}

	entry := &entities.Activity{
		ActorID:     userID,
		Kind:        entities.ActivityAuth,
		EntityType:  "user",
		EntityID:    userID,
		Description: description,
	}
	if mdBytes, e := json.Marshal(map[string]any{"ip": ipAddr, "success": success}); e == nil {
		entry.Metadata = string(mdBytes)
	}

	s.LogAsync(entry)
}

// GetActivities retrieves paginated activity entries.
func (s *Service) GetActivities(ctx context.Context, filter activityRepo.Filter, limit, offset int) ([]entities.Activity, int64, error) {
	return s.repo.GetActivities(ctx, filter, limit, offset)
}

// DeleteOldEntries removes entries older than the retention period.
func (s *Service) DeleteOldEntries(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

// truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	n := maxLen - 3
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
