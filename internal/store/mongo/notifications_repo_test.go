package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"gobarber/backend/internal/domain"
)

func TestNotificationRepo_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and timestamps", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := &NotificationRepo{coll: mt.Coll}

		got, err := repo.Insert(context.Background(), domain.Notification{
			RecipientID: "00000000-0000-0000-0000-00000000000a",
			Content:     "Novo agendamento de Bruno, dia 10 de mar, às 14:00h.",
		})
		if err != nil {
			mt.Fatalf("Insert error: %v", err)
		}
		if got.ID.IsZero() {
			mt.Fatalf("ID not assigned")
		}
		if got.CreatedAt.IsZero() || !got.UpdatedAt.Equal(got.CreatedAt) {
			mt.Fatalf("timestamps = %s / %s", got.CreatedAt, got.UpdatedAt)
		}
		if got.Read {
			mt.Fatalf("new notification must be unread")
		}
	})

	mt.Run("surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		repo := &NotificationRepo{coll: mt.Coll}

		if _, err := repo.Insert(context.Background(), domain.Notification{RecipientID: "x"}); err == nil {
			mt.Fatalf("expected error")
		}
	})
}
