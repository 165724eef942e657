package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestDynamoStore_PutIfAbsent_Get_Complete_Delete(t *testing.T) {
	mock := newSimpleMock()
	s := NewDynamoStore(mock, "idempotency-table")

	ctx := context.Background()
	key := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	created, err := s.PutIfAbsent(ctx, key, Record{Status: StatusInProgress}, 24*time.Hour)
	if err != nil {
		t.Fatalf("PutIfAbsent error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}

	// second create should return created=false (exists)
	created2, err := s.PutIfAbsent(ctx, key, Record{Status: StatusInProgress}, 24*time.Hour)
	if err != nil {
		t.Fatalf("second PutIfAbsent error: %v", err)
	}
	if created2 {
		t.Fatalf("expected created=false on duplicate create")
	}

	// Get the record
	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", rec.Status)
	}

	// Complete
	err = s.Complete(ctx, key, Record{
		StatusCode: 201,
		Body:       []byte(`{"ok":true}`),
		Headers:    map[string]string{"Content-Type": "application/json"},
		CachedAt:   time.Now().UTC(),
	}, 24*time.Hour)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	// Read raw item from mock to assert updated fields
	item := mock.table[key]
	if item == nil {
		t.Fatalf("mock item missing")
	}
	if st, ok := item["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusDone {
		t.Fatalf("status not updated to DONE, got %+v", item["status"])
	}
	if rb, ok := item["response_body"].(*types.AttributeValueMemberB); !ok || string(rb.Value) != `{"ok":true}` {
		t.Fatalf("response_body not set correctly: %+v", item["response_body"])
	}

	rec, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after complete error: %v", err)
	}
	if rec.StatusCode != 201 || string(rec.Body) != `{"ok":true}` {
		t.Fatalf("completed record mismatch: %+v", rec)
	}
	if rec.Headers["Content-Type"] != "application/json" {
		t.Fatalf("headers not preserved: %+v", rec.Headers)
	}

	// Delete releases the key
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	rec, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after delete error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil after delete, got %+v", rec)
	}
}

func TestDynamoStore_ExpiredItemReadsAsAbsent(t *testing.T) {
	mock := newSimpleMock()
	s := NewDynamoStore(mock, "idempotency-table")
	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	if _, err := s.PutIfAbsent(ctx, "expired-key-0000000000000000000000000000000000000000000000000000", Record{Status: StatusInProgress}, time.Minute); err != nil {
		t.Fatalf("PutIfAbsent error: %v", err)
	}

	// DynamoDB TTL reaping is lazy; the store must filter expired items itself
	now = now.Add(2 * time.Minute)
	rec, err := s.Get(ctx, "expired-key-0000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected expired item to read as absent, got %+v", rec)
	}
}

func TestRecordMarshal_Unmarshal(t *testing.T) {
	// ensure our types marshal/unmarshal cleanly through attributevalue
	rec := Record{
		Key:        "k1",
		Status:     StatusDone,
		StatusCode: 201,
		Body:       []byte(`{"charge_id":"c1"}`),
		Headers:    map[string]string{"Content-Type": "application/json"},
		CachedAt:   time.Now().Round(time.Second).UTC(),
		ExpiresAt:  time.Now().Add(24 * time.Hour).Unix(),
	}
	m, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Record
	if err := attributevalue.UnmarshalMap(m, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Key != rec.Key || out.StatusCode != rec.StatusCode || string(out.Body) != string(rec.Body) {
		t.Fatalf("unmarshal mismatch: %+v", out)
	}
}
