package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		data    string
		unique  string
		payload string
	}{
		{"\fmodel|42", "model", "42"},
		{"\fworker_menu", "worker_menu", ""},
		{"copy_ref|abc123", "copy_ref", "abc123"},
		{"", "", ""},
	}
	for _, tt := range tests {
		unique, payload := ParseCallbackData(&tele.Callback{Data: tt.data})
		if unique != tt.unique || payload != tt.payload {
			t.Errorf("ParseCallbackData(%q) = (%q, %q), want (%q, %q)",
				tt.data, unique, payload, tt.unique, tt.payload)
		}
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	if u, p := ParseCallbackData(nil); u != "" || p != "" {
		t.Fatalf("nil callback = (%q, %q)", u, p)
	}
}
