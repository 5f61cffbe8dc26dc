package views

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{60 * 24 * time.Hour, "2 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		if got := TimeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.ago, tt.want, got)
		}
	}
}

func TestDict(t *testing.T) {
	dict := FuncMap()["dict"].(func(...any) (map[string]any, error))
	m, err := dict("a", 1, "b", "two")
	if err != nil || m["a"] != 1 || m["b"] != "two" {
		t.Fatalf("unexpected dict %v %v", m, err)
	}
	if _, err := dict("odd"); err == nil {
		t.Fatal("expected error for odd arguments")
	}
	if _, err := dict(1, 2); err == nil {
		t.Fatal("expected error for non-string key")
	}
}

func TestLoadRendersErrorPage(t *testing.T) {
	r := Load("../../web/templates")
	w := httptest.NewRecorder()
	err := r.Instance("error.html", map[string]any{"Error": "board not found", "Status": 404}).Render(w)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(w.Body.String(), "board not found") {
		t.Fatalf("error message missing from page:\n%s", w.Body.String())
	}
}
