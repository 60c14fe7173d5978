package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// entryName matches <id>.json for IDs produced by the chain.
var entryName = regexp.MustCompile(`^\d{8}T\d{6}\.\d{9}Z-\d+\.json$`)

// #region dir-log
// DirLog writes one JSON file per entry, named by entry ID.
type DirLog struct {
	dir   string
	chain *chain
}

// NewDirLog creates dir if needed.
func NewDirLog(dir string, now func() time.Time) (*DirLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	return &DirLog{dir: dir, chain: newChain(now, "")}, nil
}

// head returns the hash of the newest entry file.
func (l *DirLog) head() (string, error) {
	names, err := l.entryFiles()
	if err != nil || len(names) == 0 {
		return "", err
	}
	e, err := l.readEntry(names[len(names)-1])
	if err != nil {
		return "", fmt.Errorf("read chain head: %w", err)
	}
	return e.Hash, nil
}

// Close is a no-op.
func (l *DirLog) Close() error { return nil }

// #endregion dir-log

// #region dir-append
// Append creates <id>.json exclusively. An existing file with the same name
// re-seals the entry with the next sequence number.
func (l *DirLog) Append(e Entry) (Entry, error) {
	l.chain.mu.Lock()
	defer l.chain.mu.Unlock()

	for attempt := 0; ; attempt++ {
		head, err := l.head()
		if err != nil {
			return Entry{}, err
		}
		l.chain.head = head
		sealed, err := l.chain.seal(e)
		if err != nil {
			return Entry{}, err
		}
		err = l.writeEntry(sealed)
		if err == nil {
			l.chain.head = sealed.Hash
			return sealed, nil
		}
		if !errors.Is(err, fs.ErrExist) || attempt >= maxIDRetries {
			return Entry{}, err
		}
	}
}

func (l *DirLog) writeEntry(e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	path := filepath.Join(l.dir, e.ID+".json")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write audit entry: %w", err)
	}
	return f.Close()
}

// #endregion dir-append

// #region dir-list
// List returns up to limit entries, newest first.
func (l *DirLog) List(limit int) ([]Entry, error) {
	names, err := l.entryFiles()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for i := len(names) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) >= limit {
			break
		}
		e, err := l.readEntry(names[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// entryFiles lists entry file names in ID order. Other files are ignored.
func (l *DirLog) entryFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read audit directory: %w", err)
	}
	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || !entryName.MatchString(de.Name()) {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (l *DirLog) readEntry(name string) (Entry, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", name, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return e, nil
}

// #endregion dir-list
