package llvmir

import (
	"testing"
)

func buildSampleModule() *Module {
	m := NewModule("unit")
	m.Target = "x86_64-linux-gnu"
	b := NewBuilder(m)
	f := m.AddFunc("id", m.FuncType([]TypeID{m.IntType(1)}, m.IntType(1)), true)
	entry := b.AppendBlock(f, "entry")
	b.SetInsertPoint(f, entry)
	p, _ := f.Param(0)
	b.Ret(p)
	return m
}

func TestHashKeyIsOrderSensitive(t *testing.T) {
	if HashKey("a", "b") == HashKey("b", "a") {
		t.Fatalf("digest should depend on part order")
	}
	if HashKey("ab") == HashKey("a", "b") {
		t.Fatalf("part boundaries should be part of the digest")
	}
	if HashKey("a", "b") != HashKey("a", "b") {
		t.Fatalf("digest should be deterministic")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	m := buildSampleModule()
	key := HashKey("unit", "rev1")
	if err := cache.Put(key, NewSnapshot(m)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	snap, ok, err := cache.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if snap.Name != "unit" || snap.Target != "x86_64-linux-gnu" {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if len(snap.Funcs) != 1 || snap.Funcs[0] != "id" {
		t.Fatalf("snapshot funcs = %v", snap.Funcs)
	}
	if snap.Text != Print(m) {
		t.Fatalf("snapshot text should match the printed module")
	}
}

func TestDiskCacheMissAndSchema(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	if _, ok, err := cache.Get(HashKey("absent")); ok || err != nil {
		t.Fatalf("unknown digest should miss cleanly, ok=%v err=%v", ok, err)
	}

	key := HashKey("stale")
	snap := NewSnapshot(buildSampleModule())
	snap.Schema = snapshotSchemaVersion + 1
	if err := cache.Put(key, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := cache.Get(key); ok || err != nil {
		t.Fatalf("schema mismatch should be a miss, ok=%v err=%v", ok, err)
	}
}
