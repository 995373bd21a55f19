package server

import "strings"

const (
	maxNameLength     = 20
	maxWordLength     = 40
	maxCategoryLength = 32
	maxCategories     = 12
)

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateWord(word string) (string, error) {
	trimmed := normalizeText(word)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > maxWordLength {
		return "", validationErrorf("word must be %d characters or fewer", maxWordLength)
	}
	if !isSafeText(trimmed) {
		return "", validationErrorf("word contains unsupported characters")
	}
	return trimmed, nil
}

func validateCategory(category string) (string, error) {
	trimmed := normalizeText(category)
	if trimmed == "" {
		return "", validationErrorf("category is required")
	}
	if len(trimmed) > maxCategoryLength {
		return "", validationErrorf("category must be %d characters or fewer", maxCategoryLength)
	}
	if !isSafeText(trimmed) {
		return "", validationErrorf("category contains unsupported characters")
	}
	return trimmed, nil
}

func validateCategoryList(categories []string) ([]string, error) {
	if len(categories) == 0 {
		return nil, validationErrorf("at least one category is required")
	}
	if len(categories) > maxCategories {
		return nil, validationErrorf("at most %d categories are allowed", maxCategories)
	}
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, category := range categories {
		clean, err := validateCategory(category)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(clean)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
	}
	return out, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", validationErrorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", validationErrorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", validationErrorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.', ',', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}
