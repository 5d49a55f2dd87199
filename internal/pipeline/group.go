// Package pipeline contains the core batch processing for the two consumer
// workers: grouping/coalescing, persistence and publishing.
package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

// GroupKey identifies one coalescing bucket: all events of one type for one
// user within the same producer-clock second.
type GroupKey struct {
	UserID string
	Second int64
	Type   notify.Type
}

// Rendered is a message body ready for persistence or dispatch, tagged with
// the source event's timestamp.
type Rendered struct {
	Message   string
	Timestamp int64
}

// PreferenceSource answers preference lookups for a batch of users.
// Missing users resolve to defaults, never to an error.
type PreferenceSource interface {
	GetBatch(ctx context.Context, userIDs []string) map[string]notify.Preferences
}

// GroupByUser transforms a raw batch into preference-filtered, rendered
// message groups. Events are processed in stable timestamp order, so entries
// within a group keep their ingest order among equal timestamps. Events whose
// type the user disabled, or whose payload has no template, are skipped.
func GroupByUser(
	ctx context.Context,
	events []notify.Event,
	prefs PreferenceSource,
	logger *slog.Logger,
) map[GroupKey][]Rendered {
	sorted := make([]notify.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	seen := make(map[string]struct{}, len(sorted))
	userIDs := make([]string, 0, len(sorted))
	for _, ev := range sorted {
		if _, ok := seen[ev.UserID]; ok {
			continue
		}
		seen[ev.UserID] = struct{}{}
		userIDs = append(userIDs, ev.UserID)
	}
	preferences := prefs.GetBatch(ctx, userIDs)

	grouped := make(map[GroupKey][]Rendered)
	for _, ev := range sorted {
		key := GroupKey{UserID: ev.UserID, Second: ev.Timestamp / 1000, Type: ev.Type}

		pref, ok := preferences[ev.UserID]
		if !ok {
			logger.Warn("Preferences missing for user, using defaults.", "user_id", ev.UserID)
			pref = notify.DefaultPreferences()
		}
		if !pref.Allows(ev.Type) {
			logger.Info("Notification type disabled for user, skipping.",
				"user_id", ev.UserID, "type", ev.Type.Label())
			continue
		}

		message, err := ev.Render()
		if err != nil {
			logger.Warn("Skipping unrenderable notification.", "user_id", ev.UserID, "err", err)
			continue
		}

		grouped[key] = append(grouped[key], Rendered{Message: message, Timestamp: ev.Timestamp})
	}

	return grouped
}
