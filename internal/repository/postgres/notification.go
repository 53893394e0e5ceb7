package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

type NotificationRepository struct {
	db database.Querier
}

func NewNotificationRepository(db database.Querier) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// InsertBatch stores the whole batch in one statement.
func (r *NotificationRepository) InsertBatch(ctx context.Context, batch []notification.Notification) error {
	if len(batch) == 0 {
		return nil
	}

	var (
		users    = make([]uuid.UUID, len(batch))
		types    = make([]string, len(batch))
		titles   = make([]string, len(batch))
		messages = make([]string, len(batch))
		urls     = make([]*string, len(batch))
	)
	for i, n := range batch {
		users[i] = n.UserID
		types[i] = string(n.Type)
		titles[i] = n.Title
		messages[i] = n.Message
		if n.ActionURL != "" {
			u := n.ActionURL
			urls[i] = &u
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, action_url)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::text[], $4::text[], $5::text[])`,
		users, types, titles, messages, urls,
	)
	if err != nil {
		return fmt.Errorf("inserting notifications: %w", err)
	}
	return nil
}
