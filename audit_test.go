package goRecover

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAuditDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d.Emit(ctx, AuditEvent{EventType: auditEventRecoveryIssue, UserID: "u1", Success: true})
	}
	d.Close()

	for i := 0; i < 3; i++ {
		select {
		case event := <-sink.Events():
			if event.EventType != auditEventRecoveryIssue || event.UserID != "u1" {
				t.Fatalf("unexpected event %+v", event)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := &blockingSink{release: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 5; i++ {
		d.Emit(ctx, AuditEvent{EventType: auditEventRecoveryConsume})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}

	close(block)
	d.Close()
}

func TestAuditDispatcherEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	// Must not panic or block.
	d.Emit(context.Background(), AuditEvent{EventType: auditEventRecoveryIssue})
}

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("expected nil dispatcher when audit is disabled")
	}

	// Nil receiver must be inert.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero drops on nil dispatcher")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&syncWriter{w: &buf})

	sink.Emit(context.Background(), AuditEvent{
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EventType:  auditEventRecoveryReplay,
		UserID:     "u1",
		ProjectKey: "proj-1",
		Success:    false,
		Error:      string(auditErrCodeInvalid),
	})

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatal("expected one JSON line")
	}

	var event AuditEvent
	if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if event.EventType != auditEventRecoveryReplay || event.Error != "code_invalid" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrUserNotFound, auditErrUserNotFound},
		{ErrCodeInvalid, auditErrCodeInvalid},
		{ErrConfirmMismatch, auditErrConfirmMismatch},
		{ErrRecoveryRateLimited, auditErrRateLimited},
		{ErrEmailDeliveryFailed, auditErrDeliveryFailed},
		{fmt.Errorf("%w: connection refused", ErrRecoveryUnavailable), auditErrUnavailable},
		{errors.New("something else"), auditErrInternal},
	}

	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Errorf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(ctx context.Context, event AuditEvent) {
	<-s.release
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
