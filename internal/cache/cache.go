// Package cache memoizes parsed ASTs for repeatedly-sourced files (the
// `.` builtin and profile loading re-parse the same file on every
// invocation). Entries are keyed by blake2b-256 of the source bytes and
// stored as CBOR-encoded ast.Program values under
// $HOME/.cache/oursh/ast/. A miss or decode error always falls back to a
// fresh parse — this package is purely an optimization, never load-
// bearing for correctness (SPEC_FULL.md §11.4).
package cache

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/oursh-shell/oursh/internal/ast"
)

// Store is a content-addressed on-disk cache of parsed programs.
type Store struct {
	dir string
}

// Open returns a Store rooted at $HOME/.cache/oursh/ast, creating the
// directory on first use. If the home directory cannot be resolved, Open
// returns a Store that always misses (dir == "").
func Open() *Store {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Store{}
	}
	dir := filepath.Join(home, ".cache", "oursh", "ast")
	_ = os.MkdirAll(dir, 0o755)
	return &Store{dir: dir}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".cbor")
}

// Key computes the cache key for src.
func Key(src []byte) string {
	sum := blake2b.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached Program for src's key, or (nil, false) on
// any miss (file absent, unreadable, or undecodable).
func (s *Store) Lookup(src []byte) (*ast.Program, bool) {
	if s.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.path(Key(src)))
	if err != nil {
		return nil, false
	}
	var prog ast.Program
	if err := cbor.Unmarshal(data, &prog); err != nil {
		return nil, false
	}
	return &prog, true
}

// Store saves prog under src's key. Write failures are ignored: the
// cache is best-effort.
func (s *Store) Store(src []byte, prog *ast.Program) {
	if s.dir == "" {
		return
	}
	data, err := cbor.Marshal(prog)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path(Key(src)), data, 0o644)
}
