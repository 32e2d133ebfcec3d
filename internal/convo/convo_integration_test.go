package convo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/getdukka/chatseller-api-sub001/internal/convo"
	"github.com/getdukka/chatseller-api-sub001/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	tdb := testutil.SetupPostgres(t)
	store := convo.NewStore(tdb.Pool, testutil.Logger())

	shopID := uuid.New()
	if _, err := tdb.Pool.Exec(ctx, `
		INSERT INTO shops (id, name, currency) VALUES ($1, 'Jolie Coiffure', 'FCFA')`, shopID); err != nil {
		t.Fatalf("seeding shop: %v", err)
	}

	c, err := store.Create(ctx, shopID, "visitor-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == uuid.Nil || c.ShopID != shopID {
		t.Fatalf("Create() = %+v", c)
	}

	got, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.VisitorID != "visitor-1" {
		t.Errorf("VisitorID = %q", got.VisitorID)
	}

	err = store.AppendTurns(ctx, c.ID, []convo.Turn{
		{Role: convo.RoleUser, Content: "bonjour"},
		{Role: convo.RoleAssistant, Content: "Bienvenue !"},
		{Role: convo.RoleUser, Content: "avez-vous des masques ?"},
	})
	if err != nil {
		t.Fatalf("AppendTurns() error = %v", err)
	}

	turns, err := store.Turns(ctx, c.ID, 50)
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("Turns() count = %d, want 3", len(turns))
	}
	if turns[0].Content != "bonjour" || turns[2].Content != "avez-vous des masques ?" {
		t.Errorf("turns out of order: %+v", turns)
	}

	limited, err := store.Turns(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("Turns(limit=2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Turns(limit=2) count = %d", len(limited))
	}

	// invalid roles roll the whole batch back
	err = store.AppendTurns(ctx, c.ID, []convo.Turn{
		{Role: convo.RoleUser, Content: "ok"},
		{Role: "system", Content: "nope"},
	})
	if err == nil || !strings.Contains(err.Error(), "invalid role") {
		t.Fatalf("AppendTurns() error = %v, want invalid role", err)
	}
	turns, _ = store.Turns(ctx, c.ID, 50)
	if len(turns) != 3 {
		t.Errorf("partial batch persisted: %d turns", len(turns))
	}

	if _, err := store.Get(ctx, uuid.New()); err == nil {
		t.Error("Get() of unknown conversation: error = nil, want ErrNotFound")
	}
}
