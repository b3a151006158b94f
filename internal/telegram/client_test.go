package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient("TESTTOKEN", srv.URL), srv
}

func TestGetUpdatesOffset(t *testing.T) {
	var gotOffset, gotTimeout string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTESTTOKEN/getUpdates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotOffset = r.URL.Query().Get("offset")
		gotTimeout = r.URL.Query().Get("timeout")
		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"text":"hi","chat":{"id":42,"type":"group"},"from":{"id":9,"first_name":"Ann"}}},
			{"update_id":8}
		]}`)
	}))
	defer srv.Close()

	updates, err := client.GetUpdates(context.Background(), 7, 25)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if gotOffset != "7" || gotTimeout != "25" {
		t.Errorf("expected offset=7 timeout=25, got offset=%s timeout=%s", gotOffset, gotTimeout)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "hi" {
		t.Errorf("first update message not decoded: %+v", updates[0])
	}
	// Second update carries no message at all; it must still decode cleanly.
	if updates[1].Message != nil {
		t.Errorf("expected nil message on bare update, got %+v", updates[1].Message)
	}
}

func TestDecodeMinimalMessage(t *testing.T) {
	// Platform-omitted nested fields (from, chat, reply_to_message, forwards)
	// must decode without error.
	var msg Message
	if err := json.Unmarshal([]byte(`{"message_id":5,"date":1}`), &msg); err != nil {
		t.Fatalf("decode minimal message: %v", err)
	}
	if msg.SenderName() != "" {
		t.Errorf("expected empty sender name, got %q", msg.SenderName())
	}
	if msg.ChatID() != 0 {
		t.Errorf("expected zero chat id, got %d", msg.ChatID())
	}
}

func TestSenderNameFallback(t *testing.T) {
	msg := Message{From: &User{FirstName: "Ann"}}
	if got := msg.SenderName(); got != "Ann" {
		t.Errorf("expected first-name fallback, got %q", got)
	}
	msg.From.Username = "ann42"
	if got := msg.SenderName(); got != "ann42" {
		t.Errorf("expected username, got %q", got)
	}
}

func TestSendTextError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	err := client.SendText(context.Background(), 42, "hello")
	if err == nil {
		t.Fatal("expected error from not-ok response")
	}
}

func TestSendMediaMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.jpg")
	if err := os.WriteFile(path, []byte("jpegbytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotField, gotCaption, gotChat string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTESTTOKEN/sendPhoto" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotCaption = r.FormValue("caption")
		gotChat = r.FormValue("chat_id")
		if _, _, err := r.FormFile("photo"); err == nil {
			gotField = "photo"
		}
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	err := client.SendMedia(context.Background(), 42, MediaPhoto, "a cat", path)
	if err != nil {
		t.Fatalf("SendMedia: %v", err)
	}
	if gotField != "photo" || gotCaption != "a cat" || gotChat != "42" {
		t.Errorf("multipart form mismatch: field=%q caption=%q chat=%q", gotField, gotCaption, gotChat)
	}
}

func TestSendMediaUnknownKind(t *testing.T) {
	client := NewClient("TESTTOKEN", "http://127.0.0.1:0")
	if err := client.SendMedia(context.Background(), 1, MediaKind("sticker"), "", "x"); err == nil {
		t.Fatal("expected error for unknown media kind")
	}
}

func TestKickUntilDate(t *testing.T) {
	var gotUntil string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUntil = r.URL.Query().Get("until_date")
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}))
	defer srv.Close()

	if err := client.Kick(context.Background(), 42, 9, time.Hour); err != nil {
		t.Fatalf("Kick: %v", err)
	}
	if gotUntil == "" {
		t.Error("until_date not sent")
	}
}
