package queue

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteActivityLine(t *testing.T) {
	tests := []struct {
		name string
		ev   ActivityEvent
		want []string
	}{
		{
			name: "rated",
			ev:   ActivityEvent{Kind: MovieRated, UserID: 1, MovieID: 2, MovieTitle: "Heat", Rating: 5, OccurredAt: "2024-01-01T00:00:00Z"},
			want: []string{"movie.rated", "user_id=1", "movie_id=2", `title="Heat"`, "rating=5"},
		},
		{
			name: "children",
			ev:   ActivityEvent{Kind: MovieChildrenAdded, UserID: 3, MovieID: 4, MovieTitle: "Alien", ChildKind: "tag", Values: []string{"scifi", "horror"}},
			want: []string{"movie.children_added", "tag=[scifi,horror]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.ev)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var buf bytes.Buffer
			if err := WriteActivityLine(&buf, body); err != nil {
				t.Fatalf("WriteActivityLine: %v", err)
			}
			line := buf.String()
			if !strings.HasSuffix(line, "\n") || strings.Count(line, "\n") != 1 {
				t.Errorf("line = %q, want exactly one trailing newline", line)
			}
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("line %q missing %q", line, w)
				}
			}
		})
	}
}

func TestWriteActivityLineRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteActivityLine(&buf, []byte("{")); err == nil {
		t.Error("expected error for malformed json")
	}
	if err := WriteActivityLine(&buf, []byte(`{"user_id":1}`)); err == nil {
		t.Error("expected error for event without kind")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q for rejected events", buf.String())
	}
}
