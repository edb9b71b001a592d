package game

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-redis/redis/v7"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func testInfo() *Info {
	return &Info{
		GameID:          "g1",
		Channel:         "C1",
		ParentMessageTS: "1600000000.000100",
		AutoBreak:       true,
		Users: map[string]Player{
			"alice": {UserID: "p1", SlackID: "U1"},
		},
	}
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
			}

			info := testInfo()
			if err := store.Put(ctx, info); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			info.Users["bob"] = Player{UserID: "p2", SlackID: "U2"}

			got, err := store.Get(ctx, "g1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !reflect.DeepEqual(got, testInfo()) {
				t.Errorf("Get() = %v, want %v", spew.Sdump(got), spew.Sdump(testInfo()))
			}

			got.Users["carol"] = Player{UserID: "p3", SlackID: "U3"}
			again, _ := store.Get(ctx, "g1")
			if _, ok := again.Player("carol"); ok {
				t.Error("mutating a fetched Info changed the store")
			}

			if err := store.Delete(ctx, "g1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStores_AddPlayer(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.AddPlayer(ctx, "g1", "bob", Player{UserID: "p2"}); !errors.Is(err, ErrNotFound) {
				t.Fatalf("AddPlayer() on unknown game error = %v, want ErrNotFound", err)
			}
			stale := testInfo()
			if err := store.Put(ctx, stale); err != nil {
				t.Fatal(err)
			}

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					name := fmt.Sprintf("player%d", i)
					if err := store.AddPlayer(ctx, "g1", name, Player{UserID: "p-" + name, SlackID: "U" + name}); err != nil {
						t.Errorf("AddPlayer(%s) error = %v", name, err)
					}
				}(i)
			}
			wg.Wait()

			// a stale Put must not drop players added since
			stale.ParentMessageTS = "1600000000.000200"
			if err := store.Put(ctx, stale); err != nil {
				t.Fatal(err)
			}
			got, err := store.Get(ctx, "g1")
			if err != nil {
				t.Fatal(err)
			}
			if len(got.Users) != 11 {
				t.Errorf("stored %d players, want 11: %v", len(got.Users), spew.Sdump(got.Users))
			}
			if p, ok := got.Player("player7"); !ok || p != (Player{UserID: "p-player7", SlackID: "Uplayer7"}) {
				t.Errorf("Player(player7) = %v, %v", p, ok)
			}
			if got.ParentMessageTS != "1600000000.000200" {
				t.Errorf("ParentMessageTS = %q", got.ParentMessageTS)
			}
		})
	}
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, testInfo()); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"game:g1", "game:g1:users"} {
		if ttl := mr.TTL(key); ttl != time.Hour {
			t.Errorf("TTL(%s) = %v, want %v", key, ttl, time.Hour)
		}
	}
	mr.FastForward(2 * time.Hour)
	if _, err := store.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_Corrupt(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Set("game:bad", "{not json")
	if _, err := store.Get(context.Background(), "bad"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on corrupt entry error = %v", err)
	}
}

func TestRedisStore_DeleteRemovesPlayers(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, testInfo()); err != nil {
		t.Fatal(err)
	}
	if err := store.AddPlayer(ctx, "g1", "bob", Player{UserID: "p2", SlackID: "U2"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("game:g1") || mr.Exists("game:g1:users") {
		t.Errorf("keys left after Delete(): %v", mr.Keys())
	}
}
