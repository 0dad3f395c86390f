package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSink_PublishSetsNtfyHeadersAndBody(t *testing.T) {
	var gotPath, gotTitle, gotPriority, gotTags, gotClick, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		gotTags = r.Header.Get("Tags")
		gotClick = r.Header.Get("Click")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewSink(srv.URL)
	err := sink.Publish(context.Background(), Message{
		Topic:    "my-topic",
		Title:    "hello",
		Body:     "world",
		Priority: PriorityHigh,
		Tags:     "warning",
		Click:    "https://example.com",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotPath != "/my-topic" {
		t.Errorf("path = %q, want /my-topic", gotPath)
	}
	if gotTitle != "hello" || gotPriority != "high" || gotTags != "warning" || gotClick != "https://example.com" {
		t.Errorf("unexpected headers: title=%q priority=%q tags=%q click=%q", gotTitle, gotPriority, gotTags, gotClick)
	}
	if gotBody != "world" {
		t.Errorf("body = %q, want world", gotBody)
	}
}

func TestSink_PublishTruncatesOversizeBody(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotLen = len(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewSink(srv.URL)
	long := strings.Repeat("x", 5000)
	if err := sink.Publish(context.Background(), Message{Topic: "t", Body: long}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotLen != bodyTruncateAt {
		t.Errorf("body length = %d, want %d", gotLen, bodyTruncateAt)
	}
}

func TestSink_PublishReturnsErrorOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	sink := NewSink(srv.URL)
	err := sink.Publish(context.Background(), Message{Topic: "t", Body: "b"})
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestSink_PublishRejectsEmptyTopic(t *testing.T) {
	sink := NewSink("https://ntfy.sh")
	if err := sink.Publish(context.Background(), Message{Body: "b"}); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestSink_PublishResultChoosesTitleAndPriorityByOutcome(t *testing.T) {
	var gotTitle, gotPriority, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	sink := NewSink(srv.URL)

	if err := sink.PublishResult(context.Background(), "topic", "daily standup", "all done", nil); err != nil {
		t.Fatalf("PublishResult (success): %v", err)
	}
	if gotTitle != "RadBot: daily standup" || gotPriority != "default" || gotBody != "all done" {
		t.Errorf("unexpected success publish: title=%q priority=%q body=%q", gotTitle, gotPriority, gotBody)
	}

	if err := sink.PublishResult(context.Background(), "topic", "daily standup", "", errors.New("agent timed out")); err != nil {
		t.Fatalf("PublishResult (failure): %v", err)
	}
	if gotTitle != "RadBot: daily standup failed" || gotPriority != "high" || gotBody != "agent timed out" {
		t.Errorf("unexpected failure publish: title=%q priority=%q body=%q", gotTitle, gotPriority, gotBody)
	}
}
