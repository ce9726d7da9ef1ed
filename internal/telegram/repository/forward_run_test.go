package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"forward_bot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoForwardRunRepositoryCreateRun(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoForwardRunRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		run := &models.ForwardRun{
			RunID:       "2c3f0b54-9df7-4a3e-9d24-0f6f9a0f61f2",
			SourceChat:  "-1001234567890",
			TargetChat:  "@target",
			StartID:     120,
			EndID:       135,
			Succeeded:   14,
			Failed:      2,
			RequestedBy: 42,
			StartedAt:   time.Now().UTC(),
			FinishedAt:  time.Now().UTC(),
		}

		if err := repo.CreateRun(context.Background(), run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	})

	mt.Run("insert error", func(mt *mtest.T) {
		repo := &MongoForwardRunRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    123,
			Name:    "WriteError",
			Message: "mock write failure",
		}))

		err := repo.CreateRun(context.Background(), &models.ForwardRun{RunID: "x"})
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to create forward run") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoForwardRunRepositoryListRecentRuns(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns decoded runs", func(mt *mtest.T) {
		repo := &MongoForwardRunRepository{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		finished := time.Now().UTC().Truncate(time.Millisecond)
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "run_id", Value: "run-2"},
			{Key: "source_chat", Value: "-1001234567890"},
			{Key: "target_chat", Value: "@target"},
			{Key: "start_id", Value: int64(120)},
			{Key: "end_id", Value: int64(135)},
			{Key: "succeeded", Value: int64(14)},
			{Key: "failed", Value: int64(2)},
			{Key: "requested_by", Value: int64(42)},
			{Key: "finished_at", Value: finished},
		})
		kill := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, kill)

		runs, err := repo.ListRecentRuns(context.Background(), 10)
		if err != nil {
			t.Fatalf("ListRecentRuns failed: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].RunID != "run-2" || runs[0].Succeeded != 14 || runs[0].Failed != 2 {
			t.Fatalf("unexpected run: %+v", runs[0])
		}
	})

	mt.Run("query error", func(mt *mtest.T) {
		repo := &MongoForwardRunRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "mock find failure",
		}))

		_, err := repo.ListRecentRuns(context.Background(), 10)
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to query forward runs") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
