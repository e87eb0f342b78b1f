package archive

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/preptrack/interview-console/internal/types"
)

type fakeStore struct {
	puts    []s3.PutObjectInput
	deletes []s3.DeleteObjectInput
}

func (f *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, *in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestNew_UnconfiguredReturnsNil(t *testing.T) {
	if a := New(Config{Bucket: "only-bucket"}); a != nil {
		t.Error("archiver created without credentials")
	}
	if a := New(Config{}); a != nil {
		t.Error("archiver created from empty config")
	}
}

func TestStore_UploadsRecord(t *testing.T) {
	store := &fakeStore{}
	a := &Archiver{cfg: Config{Bucket: "interviews", Prefix: "sessions"}, client: store}

	rec := &Record{
		SessionID: "sess-1",
		Params:    types.InterviewParams{Role: "Backend Engineer", DurationMinutes: 30},
		Turns: []types.Turn{
			{Number: 1, Question: "Q1", Answer: "A1"},
		},
		Violations: []types.Violation{
			{Kind: types.ViolationTabSwitch, Timestamp: 1000},
		},
		EndedAt: time.Unix(1700000000, 0),
	}
	if err := a.Store(context.Background(), rec); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if len(store.puts) != 1 {
		t.Fatalf("puts = %d", len(store.puts))
	}
	put := store.puts[0]
	if *put.Bucket != "interviews" {
		t.Errorf("bucket = %q", *put.Bucket)
	}
	if !strings.HasPrefix(*put.Key, "sessions/sess-1-") || !strings.HasSuffix(*put.Key, ".json") {
		t.Errorf("key = %q", *put.Key)
	}

	body, err := io.ReadAll(put.Body)
	if err != nil {
		t.Fatal(err)
	}
	var got Record
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("uploaded body is not valid JSON: %v", err)
	}
	if got.SessionID != "sess-1" || len(got.Turns) != 1 || len(got.Violations) != 1 {
		t.Errorf("archived record = %+v", got)
	}
}

func TestTestConnection_ProbesAndCleansUp(t *testing.T) {
	store := &fakeStore{}
	a := &Archiver{cfg: Config{Bucket: "interviews"}, client: store}

	if err := a.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if len(store.puts) != 1 || len(store.deletes) != 1 {
		t.Errorf("puts = %d, deletes = %d, want 1 and 1", len(store.puts), len(store.deletes))
	}
	if *store.puts[0].Key != *store.deletes[0].Key {
		t.Errorf("probe deleted a different key: %q vs %q", *store.puts[0].Key, *store.deletes[0].Key)
	}
}
