package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corey/xtags/internal/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

// =============================================================================
// bbolt TagStore: per-file tags, name index, crash recovery, lock timeout
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeTestTags creates the tags of one bibliography-style file.
func makeTestTags(file string) []ports.StoredTag {
	return []ports.StoredTag{
		{Name: "knuth 84", EncodedName: "c.knuth%2084", Kind: "citation", Letter: "c", Role: "ref", File: file, Line: 3, Pattern: "/^see \\cite{knuth 84}$/", Summary: "c.knuth%2084 @3"},
		{Name: "intro", EncodedName: "intro", Kind: "section", Letter: "s", Role: "def", File: file, Line: 1, Pattern: "/^\\section{intro}$/", Summary: "\\section{intro}"},
		{Name: "knuth 84", EncodedName: "c.knuth%2084", Kind: "citation", Letter: "c", Role: "ref", File: file, Line: 9, Pattern: "/^again \\cite{knuth 84}$/", Summary: "c.knuth%2084 @9"},
	}
}

func TestStore_SaveLoadFile_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)

	orig := makeTestTags("doc/a.tex")
	require.NoError(t, store.SaveFile("doc/a.tex", orig))

	got, err := store.LoadFile("doc/a.tex")
	require.NoError(t, err)
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_LoadFile_Missing(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.LoadFile("nope.tex")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveFile_Empty(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFile("empty.tex", nil))

	got, err := store.LoadFile("empty.tex")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	files, err := store.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.tex"}, files)
}

func TestStore_SaveFile_Replaces(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFile("a.tex", makeTestTags("a.tex")))

	repl := []ports.StoredTag{{Name: "outro", EncodedName: "outro", Kind: "section", Role: "def", File: "a.tex", Line: 2}}
	require.NoError(t, store.SaveFile("a.tex", repl))

	got, err := store.LoadFile("a.tex")
	require.NoError(t, err)
	assert.Equal(t, repl, got)

	// Names only the old version had are gone from the index.
	hits, err := store.Lookup("knuth 84")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Lookup("outro")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestStore_Lookup_ByNameAndEncodedName(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFile("b.tex", makeTestTags("b.tex")))
	require.NoError(t, store.SaveFile("a.tex", makeTestTags("a.tex")))

	byName, err := store.Lookup("knuth 84")
	require.NoError(t, err)
	byEncoded, err := store.Lookup("c.knuth%2084")
	require.NoError(t, err)
	assert.Equal(t, byName, byEncoded)

	var got []string
	for _, tag := range byName {
		got = append(got, fmt.Sprintf("%s:%d", tag.File, tag.Line))
	}
	assert.Equal(t, []string{"a.tex:3", "a.tex:9", "b.tex:3", "b.tex:9"}, got)
}

func TestStore_Lookup_Unknown(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFile("a.tex", makeTestTags("a.tex")))
	hits, err := store.Lookup("nobody")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_DeleteFile(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFile("a.tex", makeTestTags("a.tex")))
	require.NoError(t, store.SaveFile("b.tex", makeTestTags("b.tex")))

	require.NoError(t, store.DeleteFile("a.tex"))

	got, err := store.LoadFile("a.tex")
	require.NoError(t, err)
	assert.Nil(t, got)

	hits, err := store.Lookup("intro")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.tex", hits[0].File)

	// Idempotent
	require.NoError(t, store.DeleteFile("a.tex"))
	require.NoError(t, store.DeleteFile("never-stored.tex"))
}

func TestStore_OversizedName(t *testing.T) {
	store, _ := newTestStore(t)
	name := strings.Repeat("é", 6000)
	encoded := strings.Repeat("%C3%A9", 6000)
	require.Greater(t, len(encoded), bolt.MaxKeySize)

	tags := []ports.StoredTag{{Name: name, EncodedName: encoded, Kind: "citation", File: "long.tex", Line: 2}}
	require.NoError(t, store.SaveFile("long.tex", tags))

	for _, key := range []string{name, encoded} {
		hits, err := store.Lookup(key)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(tags, hits))
	}

	require.NoError(t, store.DeleteFile("long.tex"))
	hits, err := store.Lookup(encoded)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_Files_KeyOrder(t *testing.T) {
	store, _ := newTestStore(t)
	for _, f := range []string{"z.tex", "a.tex", "m/n.tex"} {
		require.NoError(t, store.SaveFile(f, makeTestTags(f)))
	}
	files, err := store.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tex", "m/n.tex", "z.tex"}, files)
}

func TestStore_CrashRecovery(t *testing.T) {
	// Write data, close, reopen: data from the last committed transaction
	// is intact. bbolt's transactional writes guarantee this.
	dir := t.TempDir()
	path := filepath.Join(dir, "crash.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveFile("a.tex", makeTestTags("a.tex")))
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.LoadFile("a.tex")
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	hits, err := store2.Lookup("c.knuth%2084")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestStore_ConcurrentReads(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFile("a.tex", makeTestTags("a.tex")))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := store.Lookup("knuth 84")
			if err != nil {
				errs <- err
				return
			}
			if len(hits) != 2 {
				errs <- fmt.Errorf("got %d hits", len(hits))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestPostings_Roundtrip(t *testing.T) {
	paths := []string{"", "a.tex", "dir/with space/b.tex"}
	data, err := encodePostings(paths)
	require.NoError(t, err)
	got, err := decodePostings(data)
	require.NoError(t, err)
	assert.Equal(t, paths, got)
}

func TestPostings_Corrupt(t *testing.T) {
	data, err := encodePostings([]string{"abc", "def"})
	require.NoError(t, err)

	_, err = decodePostings(data[:2])
	assert.Error(t, err)
	_, err = decodePostings(data[:len(data)-1])
	assert.Error(t, err)

	// A corrupt count larger than the data could hold fails before allocating.
	huge := []byte{0xff, 0xff, 0xff, 0xff, 0, 0}
	_, err = decodePostings(huge)
	assert.ErrorContains(t, err, "exceeds")
}

// =============================================================================
// Lock contention tests: verify the 1s timeout prevents hangs
// =============================================================================

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// When another process/goroutine holds the bbolt exclusive lock, a
	// second open should timeout in ~1 second, not hang forever.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2, "store should be nil on timeout")
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Contains(t, err.Error(), "timeout", "error should mention timeout")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "should wait ~1s for the configured timeout")
}

func TestStore_OpenAfterClose_Succeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "released.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.SaveFile("a.tex", makeTestTags("a.tex")))
	store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.NoError(t, err, "open after close should succeed")
	require.NotNil(t, store2)
	assert.Less(t, elapsed, 500*time.Millisecond, "should open instantly after lock released")
	defer store2.Close()

	files, err := store2.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tex"}, files)
}
