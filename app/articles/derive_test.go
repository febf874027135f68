package articles

import (
	"strings"
	"testing"
)

func TestDeriveSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Multiple   spaces -- here ", "multiple-spaces-here"},
		{"Élection à Accra", "election-a-accra"},
		{"2024 Budget", "2024-budget"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := DeriveSlug(tt.title); got != tt.want {
			t.Errorf("DeriveSlug(%q): expected %q, got %q", tt.title, tt.want, got)
		}
	}
}

func TestDeriveMetaTitle(t *testing.T) {
	if got := DeriveMetaTitle("Breaking: Ghana wins!"); got != "Breaking Ghana wins" {
		t.Errorf("Expected punctuation to be stripped, got %q", got)
	}

	exact := strings.Repeat("a", 60)
	if got := DeriveMetaTitle(exact); got != exact {
		t.Errorf("Expected 60 character title unchanged, got %q", got)
	}

	long := strings.Repeat("word ", 20)
	got := DeriveMetaTitle(long)
	if len(got) != 60 {
		t.Errorf("Expected shortened title of 60 characters, got %d: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "wo...") {
		t.Errorf("Expected title cut at 57 characters plus ellipsis, got %q", got)
	}

	if got := DeriveMetaTitle(""); got != "" {
		t.Errorf("Expected empty meta title, got %q", got)
	}
}

func TestDeriveMetaDescription(t *testing.T) {
	if got := DeriveMetaDescription("Title", "  Short summary  "); got != "Short summary" {
		t.Errorf("Expected trimmed description, got %q", got)
	}

	long := strings.Repeat("x", 200)
	if got := DeriveMetaDescription("Title", long); len(got) != 155 {
		t.Errorf("Expected 155 characters, got %d", len(got))
	}

	if got := DeriveMetaDescription("Title", ""); got != "Title. Read the full story." {
		t.Errorf("Expected title based description, got %q", got)
	}

	accented := strings.Repeat("é", 200)
	if got := DeriveMetaDescription("", accented); len([]rune(got)) != 155 {
		t.Errorf("Expected truncation by characters, got %d runes", len([]rune(got)))
	}
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	var single StringList
	if err := single.UnmarshalJSON([]byte(`"News"`)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(single) != 1 || single[0] != "News" {
		t.Errorf("Expected [News], got %v", single)
	}

	var many StringList
	if err := many.UnmarshalJSON([]byte(`["News", " ", "Sports "]`)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(many) != 2 || many[1] != "Sports" {
		t.Errorf("Expected [News Sports], got %v", many)
	}

	var bad StringList
	if err := bad.UnmarshalJSON([]byte(`42`)); err == nil {
		t.Error("Expected error for a number")
	}
}
