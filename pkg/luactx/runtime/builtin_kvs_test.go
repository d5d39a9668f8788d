package runtime

import (
	"testing"

	"github.com/tanuki-sh/luahost/pkg/kv"
)

func TestKVSRoundTrip(t *testing.T) {
	store := kv.NewMemory()
	t.Cleanup(func() { store.Close() })
	c := newTestContext(t, WithStore(store))

	script := `
		host.kvs_set("user/1", {name = "amy", score = 7})
		local v = host.kvs_get("user/1")
		name = v.name
		score = v.score
	`
	if err := c.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := globalString(t, c, "name"); got != "amy" {
		t.Errorf("name = %q, want amy", got)
	}
	if got := globalString(t, c, "score"); got != "7" {
		t.Errorf("score = %q, want 7", got)
	}
}

func TestKVSDelete(t *testing.T) {
	store := kv.NewMemory()
	t.Cleanup(func() { store.Close() })
	c := newTestContext(t, WithStore(store))

	script := `
		host.kvs_set("k", "v")
		host.kvs_del("k")
		gone = host.kvs_get("k") == nil
	`
	if err := c.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := globalString(t, c, "gone"); got != "true" {
		t.Error("deleted key is still readable")
	}
}

func TestKVSKeys(t *testing.T) {
	store := kv.NewMemory()
	t.Cleanup(func() { store.Close() })
	c := newTestContext(t, WithStore(store))

	script := `
		host.kvs_set("a/1", 1)
		host.kvs_set("a/2", 2)
		host.kvs_set("b/1", 3)
		local keys = host.kvs_keys("a/")
		count = #keys
		first = keys[1]
	`
	if err := c.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := globalString(t, c, "count"); got != "2" {
		t.Errorf("count = %s, want 2", got)
	}
	if got := globalString(t, c, "first"); got != "a/1" {
		t.Errorf("first = %q, want a/1", got)
	}
}

func TestKVSWithoutStore(t *testing.T) {
	c := newTestContext(t)

	script := `
		host.kvs_set("k", "v")
		missing = host.kvs_get("k") == nil
	`
	if err := c.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := globalString(t, c, "missing"); got != "true" {
		t.Error("kvs_get without a store should return nil")
	}
}
