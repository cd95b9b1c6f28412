package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	maxQueryRunes = 50
	// reports saved within the same second get _2, _3 ... up to this suffix
	maxCollisions = 100
)

// Store writes report artifacts into a directory created on demand.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir is where reports are written.
func (s *Store) Dir() string { return s.dir }

// Save writes content under Filename(query, now) and returns its path.
func (s *Store) Save(query, content string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	name := Filename(query, s.now())
	base := strings.TrimSuffix(name, ".md")
	for n := 2; ; n++ {
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) && n <= maxCollisions {
			name = fmt.Sprintf("%s_%d.md", base, n)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return "", fmt.Errorf("write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
		return path, nil
	}
}

// List returns report file names, newest first.
func (s *Store) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "report_*.md"))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Base(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := stamp(out[i]), stamp(out[j])
		if si != sj {
			return si > sj
		}
		return out[i] > out[j]
	})
	return out, nil
}

var stampPattern = regexp.MustCompile(`(\d{8}_\d{6})(?:_\d+)?\.md$`)

// stamp extracts the YYYYMMDD_HHMMSS of a report file name, ignoring a
// collision suffix.
func stamp(name string) string {
	m := stampPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// Filename returns report_{query}_{YYYYMMDD_HHMMSS}.md where every
// non-alphanumeric rune of the query becomes "_" and the query is cut to
// fifty runes.
func Filename(query string, at time.Time) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if n == maxQueryRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return "report_" + b.String() + "_" + at.Format("20060102_150405") + ".md"
}
