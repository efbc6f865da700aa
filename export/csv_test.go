package export

import (
	"strings"
	"testing"
	"time"
)

func TestWriteCSV_QuotingAndNulls(t *testing.T) {
	var sb strings.Builder
	err := WriteCSV(&sb, []Section{{
		Name: "memories",
		Rows: []map[string]any{
			{"a": 1, "b": "x,y"},
			{"a": 2, "b": "z"},
			{"a": 3, "b": nil},
		},
	}})
	if err != nil {
		t.Fatalf("writing csv: %v", err)
	}

	want := "\n# memories\na,b\n1,\"x,y\"\n2,z\n3,\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
}

func TestWriteCSV_DoublesInternalQuotes(t *testing.T) {
	var sb strings.Builder
	err := WriteCSV(&sb, []Section{{
		Name: "memories",
		Rows: []map[string]any{{"title": `she said "hi", twice`}},
	}})
	if err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	if !strings.Contains(sb.String(), `"she said ""hi"", twice"`) {
		t.Fatalf("quotes not doubled: %q", sb.String())
	}
}

func TestWriteCSV_SkipsEmptySections(t *testing.T) {
	var sb strings.Builder
	err := WriteCSV(&sb, []Section{
		{Name: "family_members"},
		{Name: "memories", Rows: []map[string]any{{"id": "m1"}}},
	})
	if err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	want := "\n# memories\nid\nm1\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
}

func TestCSVField_Timestamps(t *testing.T) {
	ts := time.Date(2021, 6, 5, 4, 3, 2, 0, time.UTC)
	if got := csvField(ts); got != "2021-06-05T04:03:02Z" {
		t.Fatalf("got %q", got)
	}
	if got := csvField([]byte("raw")); got != "raw" {
		t.Fatalf("got %q", got)
	}
}
