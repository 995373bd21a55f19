package server

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	name, err := validateName("  Ada   Lovelace ")
	if err != nil {
		t.Fatalf("validate name: %v", err)
	}
	if name != "Ada Lovelace" {
		t.Fatalf("expected whitespace collapsed, got %q", name)
	}

	if _, err := validateName(""); !errors.Is(err, errValidation) {
		t.Fatalf("expected empty name to fail, got %v", err)
	}
	if _, err := validateName(strings.Repeat("a", maxNameLength+1)); !errors.Is(err, errValidation) {
		t.Fatalf("expected overlong name to fail, got %v", err)
	}
	if _, err := validateName("<script>"); !errors.Is(err, errValidation) {
		t.Fatalf("expected unsafe characters to fail, got %v", err)
	}
}

func TestValidateWordBlankIsDropped(t *testing.T) {
	word, err := validateWord("   ")
	if err != nil {
		t.Fatalf("blank word must not error: %v", err)
	}
	if word != "" {
		t.Fatalf("expected empty result for a blank word, got %q", word)
	}

	word, err = validateWord(" Rio de  Janeiro ")
	if err != nil {
		t.Fatalf("validate word: %v", err)
	}
	if word != "Rio de Janeiro" {
		t.Fatalf("expected whitespace collapsed, got %q", word)
	}
}

func TestValidateCategoryList(t *testing.T) {
	clean, err := validateCategoryList([]string{"City", "city ", "River"})
	if err != nil {
		t.Fatalf("validate categories: %v", err)
	}
	if len(clean) != 2 {
		t.Fatalf("expected case-insensitive dedupe to 2, got %v", clean)
	}

	if _, err := validateCategoryList(nil); !errors.Is(err, errValidation) {
		t.Fatalf("expected empty list to fail, got %v", err)
	}
	tooMany := make([]string, maxCategories+1)
	for i := range tooMany {
		tooMany[i] = "category" + string(rune('a'+i))
	}
	if _, err := validateCategoryList(tooMany); !errors.Is(err, errValidation) {
		t.Fatalf("expected overlong list to fail, got %v", err)
	}
}
