package ws

import (
	"encoding/json"
	"testing"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"typing","receiverId":"u2","isTyping":true}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Type != FrameTyping {
		t.Fatalf("type = %q", f.Type)
	}
	if f.Fields["receiverId"] != "u2" {
		t.Fatalf("fields = %v", f.Fields)
	}
}

func TestParseFrameMalformed(t *testing.T) {
	if _, err := ParseFrame([]byte(`{not json`)); err == nil {
		t.Fatalf("malformed frame accepted")
	}
	if _, err := ParseFrame([]byte(`{"receiverId":"u2"}`)); err == nil {
		t.Fatalf("frame without type accepted")
	}
	if _, err := ParseFrame([]byte(`"just a string"`)); err == nil {
		t.Fatalf("non-object frame accepted")
	}
}

func TestBuildEvents(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		typ  string
	}{
		{"auth_success", BuildAuthSuccess("u1"), EvtAuthSuccess},
		{"new_message", BuildNewMessage("u1", map[string]any{"content": "hi"}), EvtNewMessage},
		{"message_sent", BuildMessageSent("u2", nil), EvtMessageSent},
		{"user_typing", BuildUserTyping("u1", true), EvtUserTyping},
		{"messages_read", BuildMessagesRead("u1"), EvtMessagesRead},
		{"error", BuildErrorEvent("boom"), EvtError},
	}
	for _, tc := range cases {
		var m map[string]any
		if err := json.Unmarshal(tc.raw, &m); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if m["type"] != tc.typ {
			t.Fatalf("%s: type = %v", tc.name, m["type"])
		}
	}
}

func TestBuildNewNotification(t *testing.T) {
	n := &Notification{UserID: "u1", Type: "application", Title: "状态更新", Message: "你的投递进入面试", LinkURL: "/applications/7"}
	var m map[string]any
	if err := json.Unmarshal(BuildNewNotification(n), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != EvtNewNotification {
		t.Fatalf("type = %v", m["type"])
	}
	body, ok := m["notification"].(map[string]any)
	if !ok {
		t.Fatalf("notification payload missing: %v", m)
	}
	if body["userId"] != "u1" || body["linkUrl"] != "/applications/7" {
		t.Fatalf("payload = %v", body)
	}
}
