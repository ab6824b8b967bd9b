package handler

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/newsdeck/internal/middleware"
	"github.com/hitoshi/newsdeck/internal/realtime"
)

// --- テスト ---

func TestStream_InvalidTopic_Returns400(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()
	h := NewStreamHandler(hub)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?topic=everything", nil)
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestStream_BookmarksTopicWithoutUser_Returns401(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()
	h := NewStreamHandler(hub)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?topic=bookmarks", nil)
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStream_DeliversPublishedEvents(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()
	h := NewStreamHandler(hub)

	server := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer server.Close()

	resp, err := http.Get(server.URL + "?topic=articles")
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	// 購読登録を待ってから発行する
	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount(realtime.TopicArticles) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not registered in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(realtime.Event{Topic: realtime.TopicArticles, Kind: realtime.KindCreated, ID: "a1"})

	reader := bufio.NewReader(resp.Body)
	done := make(chan string, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") {
				done <- strings.TrimSpace(strings.TrimPrefix(line, "data: "))
				return
			}
		}
	}()

	select {
	case payload := <-done:
		event, err := realtime.DecodeEvent(payload)
		if err != nil {
			t.Fatalf("failed to decode event payload %q: %v", payload, err)
		}
		if event.ID != "a1" || event.Kind != realtime.KindCreated {
			t.Errorf("received event = %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestResolveTopic_BookmarksBindsToSessionUser(t *testing.T) {
	h := NewStreamHandler(realtime.NewHub())

	req := httptest.NewRequest(http.MethodGet, "/api/stream?topic=bookmarks", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))

	topic, apiErr := h.resolveTopic(req)
	if apiErr != nil {
		t.Fatalf("resolveTopic() error = %v", apiErr)
	}
	if topic != realtime.UserTopic("user-1") {
		t.Errorf("topic = %q, want %q", topic, realtime.UserTopic("user-1"))
	}
}
