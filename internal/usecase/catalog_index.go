package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/unicode/norm"
)

// Index is an immutable, case-insensitive lookup from every catalog name and
// alias to its entry. Keys keep insertion order so fuzzy ties resolve the same
// way on every run. Never mutate an Index after BuildIndex returns it; use With
// or Without to derive a new one.
type Index struct {
	entries []domain.CatalogEntry
	keys    []string
	byKey   map[string]int
}

// NormalizeKey folds a food name into its index key form: NFKC, lowercase,
// trimmed, internal whitespace collapsed to single spaces.
func NormalizeKey(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// BuildIndex indexes entries in order. A key claimed by two different entries
// is a load-time error rather than a silent overwrite.
func BuildIndex(entries []domain.CatalogEntry) (*Index, error) {
	idx := &Index{
		entries: make([]domain.CatalogEntry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)*2),
	}

	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q): %w", i, entry.Name, err)
		}

		entry.Aliases = append([]string(nil), entry.Aliases...)
		pos := len(idx.entries)
		idx.entries = append(idx.entries, entry)

		for _, name := range append([]string{entry.Name}, entry.Aliases...) {
			key := NormalizeKey(name)
			if key == "" {
				continue
			}
			if owner, exists := idx.byKey[key]; exists {
				if owner == pos {
					// alias repeating its own entry's name
					continue
				}
				return nil, fmt.Errorf("%w: %q is used by both %q and %q",
					domain.ErrDuplicateCatalogKey, key, idx.entries[owner].Name, entry.Name)
			}
			idx.byKey[key] = pos
			idx.keys = append(idx.keys, key)
		}
	}

	return idx, nil
}

func validateEntry(entry domain.CatalogEntry) error {
	if NormalizeKey(entry.Name) == "" {
		return &domain.ValidationError{Field: "name", Rule: "must not be empty"}
	}
	if math.IsNaN(entry.Calories) || entry.Calories <= 0 {
		return &domain.ValidationError{Field: "calories", Rule: "must be > 0"}
	}
	if math.IsNaN(entry.Protein) || entry.Protein < 0 {
		return &domain.ValidationError{Field: "protein", Rule: "must be >= 0"}
	}
	return nil
}

// With returns a new index holding every current entry plus entry.
func (idx *Index) With(entry domain.CatalogEntry) (*Index, error) {
	entries := make([]domain.CatalogEntry, 0, len(idx.entries)+1)
	entries = append(entries, idx.entries...)
	return BuildIndex(append(entries, entry))
}

// Without returns a new index with the entry owning key removed.
func (idx *Index) Without(key string) (*Index, bool) {
	pos, ok := idx.byKey[NormalizeKey(key)]
	if !ok {
		return idx, false
	}
	entries := make([]domain.CatalogEntry, 0, len(idx.entries)-1)
	entries = append(entries, idx.entries[:pos]...)
	entries = append(entries, idx.entries[pos+1:]...)

	// entries were already valid and collision-free
	next, err := BuildIndex(entries)
	if err != nil {
		return idx, false
	}
	return next, true
}

// Lookup finds the entry for a name or alias.
func (idx *Index) Lookup(name string) (domain.CatalogEntry, bool) {
	pos, ok := idx.byKey[NormalizeKey(name)]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return idx.entries[pos], true
}

// Len returns the number of catalog entries (not keys).
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns a copy of the catalog entries in load order.
func (idx *Index) Entries() []domain.CatalogEntry {
	return append([]domain.CatalogEntry(nil), idx.entries...)
}

// Keys returns a copy of every index key in insertion order.
func (idx *Index) Keys() []string {
	return append([]string(nil), idx.keys...)
}

// Names returns the canonical entry names in load order.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		names[i] = e.Name
	}
	return names
}

// Sample returns up to n canonical names from the front of the catalog.
func (idx *Index) Sample(n int) []string {
	names := idx.Names()
	if n >= 0 && n < len(names) {
		names = names[:n]
	}
	return names
}

// Suggest ranks catalog keys that contain phrase's characters in order and
// returns up to n distinct canonical names, best first.
func (idx *Index) Suggest(phrase string, n int) []string {
	pattern := NormalizeKey(phrase)
	if pattern == "" || n <= 0 {
		return nil
	}

	var out []string
	seen := make(map[int]bool)
	for _, match := range fuzzy.Find(pattern, idx.keys) {
		pos := idx.byKey[match.Str]
		if seen[pos] {
			continue
		}
		seen[pos] = true
		out = append(out, idx.entries[pos].Name)
		if len(out) == n {
			break
		}
	}
	return out
}

// entryAt returns the entry owning an already-normalized key.
func (idx *Index) entryAt(key string) (domain.CatalogEntry, bool) {
	pos, ok := idx.byKey[key]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return idx.entries[pos], true
}
