package store

import (
	"bytes"
	"testing"
)

func TestMemStoreGetSetDelete(t *testing.T) {
	kv := MemStore()

	k, v := []byte("french"), []byte("fry")

	if kv.Has(k) {
		t.Fatal("key must not exist in an empty store")
	}
	if got := kv.Get(k); got != nil {
		t.Fatalf("want nil, got %q", got)
	}

	kv.Set(k, v)
	if !kv.Has(k) {
		t.Fatal("key must exist after set")
	}
	if got := kv.Get(k); !bytes.Equal(got, v) {
		t.Fatalf("want %q, got %q", v, got)
	}

	kv.Delete(k)
	if kv.Has(k) {
		t.Fatal("key must not exist after delete")
	}
}

func TestCacheWrapWriteAndDiscard(t *testing.T) {
	kv := MemStore()
	kv.Set([]byte("a"), []byte("1"))

	// Discarded writes must not be visible in the parent.
	cache := kv.CacheWrap()
	cache.Set([]byte("b"), []byte("2"))
	cache.Delete([]byte("a"))
	if kv.Has([]byte("b")) {
		t.Fatal("uncommitted write visible in the parent")
	}
	cache.Discard()
	if !kv.Has([]byte("a")) {
		t.Fatal("discarded delete applied to the parent")
	}

	// Written changes must be visible in the parent.
	cache = kv.CacheWrap()
	cache.Set([]byte("b"), []byte("2"))
	cache.Delete([]byte("a"))
	cache.Write()
	if kv.Has([]byte("a")) {
		t.Fatal("committed delete not applied to the parent")
	}
	if got := kv.Get([]byte("b")); !bytes.Equal(got, []byte("2")) {
		t.Fatalf("committed write not applied to the parent: %q", got)
	}
}

func TestIteratorRange(t *testing.T) {
	kv := MemStore()
	keys := [][]byte{[]byte("a1"), []byte("a2"), []byte("b1"), []byte("c1")}
	for i, k := range keys {
		kv.Set(k, []byte{byte(i)})
	}

	it := kv.Iterator([]byte("a1"), []byte("b1"))
	defer it.Close()

	var got [][]byte
	for ; it.Valid(); it.Next() {
		got = append(got, append([]byte(nil), it.Key()...))
	}
	if len(got) != 2 {
		t.Fatalf("want 2 keys in range, got %d", len(got))
	}
	if !bytes.Equal(got[0], []byte("a1")) || !bytes.Equal(got[1], []byte("a2")) {
		t.Fatalf("unexpected keys: %q", got)
	}
}

func TestIteratorSeesCacheOverlay(t *testing.T) {
	kv := MemStore()
	kv.Set([]byte("a"), []byte("old"))
	kv.Set([]byte("b"), []byte("keep"))

	cache := kv.CacheWrap()
	cache.Set([]byte("a"), []byte("new"))
	cache.Delete([]byte("b"))
	cache.Set([]byte("c"), []byte("add"))

	it := cache.Iterator(nil, nil)
	defer it.Close()

	want := map[string]string{"a": "new", "c": "add"}
	var count int
	for ; it.Valid(); it.Next() {
		count++
		if want[string(it.Key())] != string(it.Value()) {
			t.Fatalf("unexpected pair %q=%q", it.Key(), it.Value())
		}
	}
	if count != 2 {
		t.Fatalf("want 2 entries, got %d", count)
	}
}
