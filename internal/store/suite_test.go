package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
)

// runStoreSuite exercises the Store contract against a backend.
// newStore must return an empty store; it is called once per subtest.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("insert assigns id", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		ctx := context.Background()

		// Act
		item, err := s.Insert(ctx, "buy milk")

		// Assert
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if item.ID == "" {
			t.Error("Insert() should generate an ID")
		}
		if _, err := uuid.Parse(item.ID); err != nil {
			t.Errorf("Insert() ID %q is not a UUID", item.ID)
		}
		if item.Text != "buy milk" {
			t.Errorf("Text = %q, want %q", item.Text, "buy milk")
		}
	})

	t.Run("insert keeps text untrimmed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		item, err := s.Insert(ctx, "  padded  ")
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}

		items, err := s.Find(ctx, Filter{}, Window{})
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(items) != 1 || items[0].Text != "  padded  " || items[0].ID != item.ID {
			t.Errorf("Find() = %+v, want the untrimmed item", items)
		}
	})

	t.Run("find preserves insertion order", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		ctx := context.Background()
		want := seedStore(t, s, 5)

		// Act
		items, err := s.Find(ctx, Filter{}, Window{})

		// Assert
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(items) != len(want) {
			t.Fatalf("Find() returned %d items, want %d", len(items), len(want))
		}
		for i := range want {
			if items[i].ID != want[i] {
				t.Errorf("items[%d].ID = %s, want %s", i, items[i].ID, want[i])
			}
		}
	})

	t.Run("find window", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids := seedStore(t, s, 25)

		tests := []struct {
			name      string
			window    Window
			wantFirst string
			wantCount int
		}{
			{"first page", Window{Skip: 0, Limit: 10}, ids[0], 10},
			{"second page", Window{Skip: 10, Limit: 10}, ids[10], 10},
			{"last partial page", Window{Skip: 20, Limit: 10}, ids[20], 5},
			{"beyond the end", Window{Skip: 30, Limit: 10}, "", 0},
			{"no limit", Window{Skip: 0, Limit: 0}, ids[0], 25},
			{"skip without limit", Window{Skip: 22, Limit: 0}, ids[22], 3},
			{"max skip with limit", Window{Skip: math.MaxInt, Limit: 10}, "", 0},
			{"max skip without limit", Window{Skip: math.MaxInt, Limit: 0}, "", 0},
			{"negative skip counts as zero", Window{Skip: -5, Limit: 3}, ids[0], 3},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, err := s.Find(ctx, Filter{}, tt.window)
				if err != nil {
					t.Fatalf("Find() error = %v", err)
				}
				if len(items) != tt.wantCount {
					t.Fatalf("Find() returned %d items, want %d", len(items), tt.wantCount)
				}
				if tt.wantCount > 0 && items[0].ID != tt.wantFirst {
					t.Errorf("first ID = %s, want %s", items[0].ID, tt.wantFirst)
				}
			})
		}
	})

	t.Run("filter is case-insensitive substring", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		ctx := context.Background()
		for _, text := range []string{"Buy Milk", "buy bread", "walk the dog", "MILKSHAKE", "call mom", "ÉCOLE DU SOIR"} {
			if _, err := s.Insert(ctx, text); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}

		tests := []struct {
			needle string
			want   int64
		}{
			{"milk", 2},
			{"BUY", 2},
			{"o", 3},
			{"école", 1},
			{"École du", 1},
			{"zzz", 0},
			{"", 6},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("q=%q", tt.needle), func(t *testing.T) {
				// Act
				n, err := s.Count(ctx, Filter{Text: tt.needle})
				if err != nil {
					t.Fatalf("Count() error = %v", err)
				}
				items, err := s.Find(ctx, Filter{Text: tt.needle}, Window{})
				if err != nil {
					t.Fatalf("Find() error = %v", err)
				}

				// Assert
				if n != tt.want {
					t.Errorf("Count() = %d, want %d", n, tt.want)
				}
				if int64(len(items)) != tt.want {
					t.Errorf("Find() returned %d items, want %d", len(items), tt.want)
				}
			})
		}
	})

	t.Run("filtered window", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := 0; i < 12; i++ {
			text := fmt.Sprintf("other %d", i)
			if i%2 == 0 {
				text = fmt.Sprintf("match %d", i)
			}
			if _, err := s.Insert(ctx, text); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}

		items, err := s.Find(ctx, Filter{Text: "match"}, Window{Skip: 4, Limit: 4})
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("Find() returned %d items, want 2", len(items))
		}
		if items[0].Text != "match 8" || items[1].Text != "match 10" {
			t.Errorf("Find() = %+v, want match 8 and match 10", items)
		}
	})

	t.Run("update existing", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		ctx := context.Background()
		created, err := s.Insert(ctx, "original")
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}

		// Act
		updated, err := s.UpdateByID(ctx, created.ID, "changed")

		// Assert
		if err != nil {
			t.Fatalf("UpdateByID() error = %v", err)
		}
		if updated == nil {
			t.Fatal("UpdateByID() returned nil item")
		}
		if updated.ID != created.ID {
			t.Errorf("ID = %s, want %s", updated.ID, created.ID)
		}
		if updated.Text != "changed" {
			t.Errorf("Text = %q, want %q", updated.Text, "changed")
		}

		items, _ := s.Find(ctx, Filter{}, Window{})
		if len(items) != 1 || items[0].Text != "changed" {
			t.Errorf("Find() after update = %+v", items)
		}
	})

	t.Run("update keeps position", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids := seedStore(t, s, 3)

		if _, err := s.UpdateByID(ctx, ids[0], "first again"); err != nil {
			t.Fatalf("UpdateByID() error = %v", err)
		}

		items, _ := s.Find(ctx, Filter{}, Window{})
		if items[0].ID != ids[0] {
			t.Errorf("first ID = %s, want %s", items[0].ID, ids[0])
		}
	})

	t.Run("update missing returns nil", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		updated, err := s.UpdateByID(ctx, uuid.NewString(), "text")

		if err != nil {
			t.Fatalf("UpdateByID() error = %v", err)
		}
		if updated != nil {
			t.Errorf("UpdateByID() = %+v, want nil", updated)
		}
		if n, _ := s.Count(ctx, Filter{}); n != 0 {
			t.Errorf("Count() = %d, update must not create items", n)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.UpdateByID(ctx, "not-an-id", "x"); !errors.Is(err, ErrInvalidID) {
			t.Errorf("UpdateByID() error = %v, want %v", err, ErrInvalidID)
		}
		if err := s.DeleteByID(ctx, "not-an-id"); !errors.Is(err, ErrInvalidID) {
			t.Errorf("DeleteByID() error = %v, want %v", err, ErrInvalidID)
		}
	})

	t.Run("delete existing", func(t *testing.T) {
		// Arrange
		s := newStore(t)
		ctx := context.Background()
		ids := seedStore(t, s, 3)

		// Act
		err := s.DeleteByID(ctx, ids[1])

		// Assert
		if err != nil {
			t.Fatalf("DeleteByID() error = %v", err)
		}
		items, _ := s.Find(ctx, Filter{}, Window{})
		if len(items) != 2 {
			t.Fatalf("Find() returned %d items, want 2", len(items))
		}
		if items[0].ID != ids[0] || items[1].ID != ids[2] {
			t.Errorf("remaining order = [%s %s], want [%s %s]", items[0].ID, items[1].ID, ids[0], ids[2])
		}
	})

	t.Run("delete missing is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedStore(t, s, 2)

		if err := s.DeleteByID(ctx, uuid.NewString()); err != nil {
			t.Errorf("DeleteByID() error = %v, want nil", err)
		}
		if n, _ := s.Count(ctx, Filter{}); n != 2 {
			t.Errorf("Count() = %d, want 2", n)
		}
	})

	t.Run("delete twice", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids := seedStore(t, s, 1)

		if err := s.DeleteByID(ctx, ids[0]); err != nil {
			t.Fatalf("first DeleteByID() error = %v", err)
		}
		if err := s.DeleteByID(ctx, ids[0]); err != nil {
			t.Errorf("second DeleteByID() error = %v, want nil", err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

// seedStore inserts n items and returns their IDs in insertion order.
func seedStore(t *testing.T, s Store, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		item, err := s.Insert(context.Background(), fmt.Sprintf("item %d", i))
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		ids = append(ids, item.ID)
	}
	return ids
}
