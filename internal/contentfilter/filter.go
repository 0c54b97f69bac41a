package contentfilter

import (
	"bufio"
	"embed"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

//go:embed inappropriate-words.txt
var wordsFS embed.FS

const wordsFile = "inappropriate-words.txt"

// Filter screens user-submitted text against a banned-term list. Detection is
// case-insensitive and includes an obfuscation-tolerant check that catches
// character-stretched variants of a term ("spaaam" for "spam"). Redaction
// only masks literal substring matches.
type Filter struct {
	words    []string
	variants map[string]*regexp.Regexp
	logger   *slog.Logger
}

// New loads the banned-term list from the embedded word file. A load failure
// is logged and yields a filter with no terms; it never fails the process.
func New(logger *slog.Logger) *Filter {
	f := &Filter{
		variants: make(map[string]*regexp.Regexp),
		logger:   logger,
	}

	if err := f.load(); err != nil {
		logger.Warn("failed to load banned term list, filtering disabled",
			slog.String("error", err.Error()),
		)
		return f
	}

	logger.Info("content filter initialized", slog.Int("terms", len(f.words)))
	return f
}

func (f *Filter) load() error {
	file, err := wordsFS.Open(wordsFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", wordsFile, err)
	}
	defer file.Close()

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		f.words = append(f.words, word)

		f.variants[word] = regexp.MustCompile(variantPattern(word))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", wordsFile, err)
	}

	sort.Strings(f.words)
	return nil
}

// variantPattern builds the obfuscation-tolerant regex for a term: each
// character becomes "<char>+", so "spam" yields "s+p+a+m+" and stretched
// forms like "spaaam" still match. Anchoring every position to the term's
// own character keeps unrelated text from tripping the check.
func variantPattern(word string) string {
	var b strings.Builder
	for _, r := range word {
		b.WriteString(regexp.QuoteMeta(string(r)))
		b.WriteByte('+')
	}
	return b.String()
}

// Size returns the number of loaded banned terms.
func (f *Filter) Size() int {
	return len(f.words)
}

// ContainsDisallowed reports whether the text contains any banned term,
// either literally (case-insensitive substring) or as an obfuscated variant.
func (f *Filter) ContainsDisallowed(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	lower := strings.ToLower(text)

	for _, word := range f.words {
		if strings.Contains(lower, word) {
			return true
		}
	}

	for _, word := range f.words {
		if f.variants[word].MatchString(lower) {
			return true
		}
	}

	return false
}

// Redact replaces every literal occurrence of each banned term with an
// equal-length run of asterisks. The obfuscation-tolerant check is not
// applied here; only exact (case-insensitive) substrings are masked.
func (f *Filter) Redact(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	result := text
	for _, word := range f.words {
		if !strings.Contains(strings.ToLower(result), word) {
			continue
		}
		mask := strings.Repeat("*", len(word))
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))
		result = pattern.ReplaceAllString(result, mask)
	}

	return result
}

// Matches returns every banned term that appears as a literal substring of
// the lowercased text, for audit and diagnostic use.
func (f *Filter) Matches(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}

	lower := strings.ToLower(text)
	for _, word := range f.words {
		if strings.Contains(lower, word) {
			found = append(found, word)
		}
	}

	return found
}
