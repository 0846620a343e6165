package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML(`<b>Анна & Ко</b>`); got != "&lt;b&gt;Анна &amp; Ко&lt;/b&gt;" {
		t.Fatalf("escaped = %q", got)
	}
	if got := EscapeHTML("Анна"); got != "Анна" {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestDerefString(t *testing.T) {
	v := "набор"
	if got := DerefString(&v, "нет"); got != "набор" {
		t.Fatalf("got %q", got)
	}
	empty := ""
	if got := DerefString(&empty, "нет"); got != "нет" {
		t.Fatalf("empty deref = %q", got)
	}
	if got := DerefString(nil, "нет"); got != "нет" {
		t.Fatalf("nil deref = %q", got)
	}
}
