package tokenize

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

const (
	planMagic   = "LXPLAN1\n"
	planSuffix  = ".plan"
	keyLen      = 64
	digestLen   = 32
	blobHeadLen = len(planMagic) + keyLen + digestLen
)

// ErrCacheMiss is returned by PlanCache.Load when no plan is stored for a
// key.
var ErrCacheMiss = errors.New("plan cache miss")

// CacheError reports a stored plan that cannot be used. Callers treat it
// as a miss and rebuild.
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("plan cache %s: %v", e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// CacheKey identifies the plan for a grammar and strategy.
func CacheKey(g *grammar.Grammar, strategy Strategy) string {
	h := blake3.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%s", planFormat, g.Version, g.Fingerprint, strategy)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanCache persists plans in a directory private to the current user.
// Blobs are written to a temporary file and renamed into place, so a
// reader never sees a partial blob.
type PlanCache struct {
	dir string
}

// OpenPlanCache creates dir with mode 0700 if needed. A directory that
// group or others can write to is refused.
func OpenPlanCache(dir string) (*PlanCache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("checking cache directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if info.Mode().Perm()&0022 != 0 {
		return nil, fmt.Errorf("cache directory %s is writable by group or others (mode %v)", dir, info.Mode().Perm())
	}
	return &PlanCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *PlanCache) Dir() string {
	return c.dir
}

func (c *PlanCache) path(key string) string {
	return filepath.Join(c.dir, key+planSuffix)
}

// Load returns the plan stored under key. It returns ErrCacheMiss when
// nothing is stored and a *CacheError when the blob is unusable.
func (c *PlanCache) Load(key string) (*Plan, error) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, &CacheError{Path: path, Err: err}
	}

	plan, err := decodeBlob(key, data)
	if err != nil {
		return nil, &CacheError{Path: path, Err: err}
	}
	return plan, nil
}

// Store writes plan under key. It returns false without error when another
// process holds the write lock for the same key.
func (c *PlanCache) Store(key string, plan *Plan) (bool, error) {
	blob, err := encodeBlob(key, plan)
	if err != nil {
		return false, err
	}

	lock := flock.New(filepath.Join(c.dir, key+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("locking plan cache: %w", err)
	}
	if !locked {
		return false, nil
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return false, fmt.Errorf("writing plan: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, fmt.Errorf("syncing plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("closing plan: %w", err)
	}
	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		return false, fmt.Errorf("renaming plan into place: %w", err)
	}
	return true, nil
}

// Clear removes every stored plan and lock file. It returns the number of
// plans removed.
func (c *PlanCache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, planSuffix) || strings.HasSuffix(name, ".lock")) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		if strings.HasSuffix(name, planSuffix) {
			removed++
		}
	}
	return removed, nil
}

func encodeBlob(key string, plan *Plan) ([]byte, error) {
	if len(key) != keyLen {
		return nil, fmt.Errorf("invalid cache key %q", key)
	}

	var payload bytes.Buffer
	zw, err := xz.NewWriter(&payload)
	if err != nil {
		return nil, fmt.Errorf("creating xz writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(plan); err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing plan: %w", err)
	}

	digest := blake3.Sum256(payload.Bytes())
	blob := make([]byte, 0, blobHeadLen+payload.Len())
	blob = append(blob, planMagic...)
	blob = append(blob, key...)
	blob = append(blob, digest[:]...)
	blob = append(blob, payload.Bytes()...)
	return blob, nil
}

func decodeBlob(key string, blob []byte) (*Plan, error) {
	if len(blob) < blobHeadLen {
		return nil, fmt.Errorf("truncated blob (%d bytes)", len(blob))
	}
	if string(blob[:len(planMagic)]) != planMagic {
		return nil, fmt.Errorf("bad magic")
	}
	rest := blob[len(planMagic):]
	if string(rest[:keyLen]) != key {
		return nil, fmt.Errorf("key mismatch")
	}
	rest = rest[keyLen:]
	want, payload := rest[:digestLen], rest[digestLen:]
	got := blake3.Sum256(payload)
	if !bytes.Equal(got[:], want) {
		return nil, fmt.Errorf("digest mismatch")
	}

	zr, err := xz.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("opening xz stream: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing plan: %w", err)
	}
	var plan Plan
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &plan, nil
}
