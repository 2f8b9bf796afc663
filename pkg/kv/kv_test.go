package kv

import (
	"context"
	"errors"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger error: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"badger": b,
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := Key{"auth", "default"}

			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing = %v; want ErrNotFound", err)
			}

			if err := s.Set(ctx, key, []byte("v1")); err != nil {
				t.Fatalf("Set error: %v", err)
			}
			v, err := s.Get(ctx, key)
			if err != nil || string(v) != "v1" {
				t.Fatalf("Get = %q, %v; want v1", v, err)
			}

			if err := s.Set(ctx, key, []byte("v2")); err != nil {
				t.Fatalf("overwrite error: %v", err)
			}
			v, _ = s.Get(ctx, key)
			if string(v) != "v2" {
				t.Errorf("Get after overwrite = %q; want v2", v)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete error: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete = %v; want ErrNotFound", err)
			}

			// Deleting a missing key is not an error.
			if err := s.Delete(ctx, Key{"no", "such"}); err != nil {
				t.Errorf("Delete missing = %v; want nil", err)
			}
		})
	}
}

func TestStore_ListPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set(ctx, Key{"auth", "a"}, []byte("1"))
			s.Set(ctx, Key{"auth", "b"}, []byte("2"))
			s.Set(ctx, Key{"authx", "c"}, []byte("3"))

			var got []string
			for e, err := range s.List(ctx, Key{"auth"}) {
				if err != nil {
					t.Fatalf("List error: %v", err)
				}
				got = append(got, e.Key.String()+"="+string(e.Value))
			}

			want := []string{"auth:a=1", "auth:b=2"}
			if len(got) != len(want) {
				t.Fatalf("List = %v; want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("List[%d] = %q; want %q", i, got[i], want[i])
				}
			}
		})
	}
}

func TestKey_String(t *testing.T) {
	k := Key{"auth", "default", "token"}
	if k.String() != "auth:default:token" {
		t.Errorf("Key.String() = %q", k.String())
	}
	back := decodeKey("auth:default:token")
	if len(back) != 3 || back[2] != "token" {
		t.Errorf("decodeKey = %v", back)
	}
}
