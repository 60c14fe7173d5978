package journal

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// idLayout keeps IDs fixed-width so lexical order matches append order.
const idLayout = "20060102T150405.000000000Z"

// ErrChainBroken is returned by Verify when an entry's hash or link is wrong.
var ErrChainBroken = errors.New("audit chain broken")

// #region chain
// chain stamps entries with unique IDs and links them by BLAKE3 hash.
type chain struct {
	mu   sync.Mutex
	now  func() time.Time
	seq  uint64
	head string
}

func newChain(now func() time.Time, head string) *chain {
	if now == nil {
		now = time.Now
	}
	return &chain{now: now, head: head}
}

// seal fills ID, Timestamp, PrevHash, and Hash. The caller must hold c.mu.
func (c *chain) seal(e Entry) (Entry, error) {
	c.seq++
	ts := c.now().UTC()
	e.Timestamp = ts
	e.ID = fmt.Sprintf("%s-%06d", ts.Format(idLayout), c.seq)
	e.PrevHash = c.head
	h, err := entryHash(e)
	if err != nil {
		return Entry{}, err
	}
	e.Hash = h
	return e, nil
}

// entryHash is blake3(prev_hash || canonical JSON of the entry without Hash).
func entryHash(e Entry) (string, error) {
	e.Hash = ""
	body, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}
	h := blake3.New()
	h.Write([]byte(e.PrevHash))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// #endregion chain

// #region verify
// Verify walks entries oldest to newest and checks every link and hash.
// Entries may be passed in the newest-first order returned by List.
func Verify(entries []Entry) error {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	if len(ordered) > 1 && ordered[0].ID > ordered[len(ordered)-1].ID {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	prev := ""
	for i, e := range ordered {
		if i > 0 && e.PrevHash != prev {
			return fmt.Errorf("%w: entry %s links to %q, expected %q", ErrChainBroken, e.ID, e.PrevHash, prev)
		}
		want, err := entryHash(e)
		if err != nil {
			return err
		}
		if want != e.Hash {
			return fmt.Errorf("%w: entry %s hash mismatch", ErrChainBroken, e.ID)
		}
		prev = e.Hash
	}
	return nil
}

// #endregion verify
