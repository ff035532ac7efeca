// registry.go - Spent-nullifier registry for duplicate detection.
//
// The pipeline only derives the nullifier; deciding that a second
// submission with the same nullifier is a duplicate happens here. The
// Ledger is append-only and persisted as a single JSON file.

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"sync"
)

// ErrDuplicate is returned when a nullifier has already been spent.
var ErrDuplicate = errors.New("registry: nullifier already spent")

// Registry records spent nullifiers.
type Registry interface {
	// Spend marks a nullifier as used; ErrDuplicate if already present.
	Spend(ctx context.Context, nullifier *big.Int) error
	// Seen reports whether a nullifier has been spent.
	Seen(ctx context.Context, nullifier *big.Int) (bool, error)
}

// Ledger is an in-memory, append-only nullifier list with JSON file
// persistence. Safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	// NullifierList holds decimal-encoded spent nullifiers in order.
	NullifierList []string
	seen          map[string]struct{}
}

// NewLedger creates a new, empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		NullifierList: make([]string, 0),
		seen:          make(map[string]struct{}),
	}
}

// Spend appends a nullifier, rejecting duplicates.
func (l *Ledger) Spend(_ context.Context, nullifier *big.Int) error {
	key := nullifier.String()
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[key]; ok {
		return ErrDuplicate
	}
	l.seen[key] = struct{}{}
	l.NullifierList = append(l.NullifierList, key)
	return nil
}

// Seen reports whether the nullifier is already in the ledger.
func (l *Ledger) Seen(_ context.Context, nullifier *big.Int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[nullifier.String()]
	return ok, nil
}

// Size returns the number of spent nullifiers.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.NullifierList)
}

// SaveToFile saves the ledger to a JSON file, overwriting it.
func (l *Ledger) SaveToFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		NullifierList []string
	}{l.NullifierList})
}

// LoadLedgerFromFile loads a ledger from a JSON file.
func LoadLedgerFromFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var stored struct {
		NullifierList []string
	}
	if err := json.NewDecoder(f).Decode(&stored); err != nil {
		return nil, err
	}
	l := NewLedger()
	for _, key := range stored.NullifierList {
		if _, ok := l.seen[key]; ok {
			continue
		}
		l.seen[key] = struct{}{}
		l.NullifierList = append(l.NullifierList, key)
	}
	return l, nil
}
