package knowledge_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/getdukka/chatseller-api-sub001/internal/knowledge"
	"github.com/getdukka/chatseller-api-sub001/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	tdb := testutil.SetupPostgres(t)

	shopID := uuid.New()
	if _, err := tdb.Pool.Exec(ctx, `
		INSERT INTO shops (id, name, currency) VALUES ($1, 'Jolie Coiffure', 'FCFA')`, shopID); err != nil {
		t.Fatalf("seeding shop: %v", err)
	}

	store := knowledge.NewStore(tdb.Pool, testutil.Logger())

	first := knowledge.Document{
		ShopID:    shopID,
		Title:     "Livraison",
		Content:   "Livraison à Dakar sous 48h.",
		SourceURL: "https://shop.example/livraison",
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second := knowledge.Document{
		ShopID:    shopID,
		Title:     "Retours",
		Content:   "Retours sous 7 jours.",
		SourceURL: "https://shop.example/retours",
	}
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	docs, err := store.ListActive(ctx, shopID)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListActive() count = %d, want 2", len(docs))
	}
	if docs[0].Title != "Livraison" {
		t.Errorf("docs not ordered by creation: %+v", docs)
	}

	// same source URL refreshes content instead of duplicating
	first.Title = "Livraison et délais"
	first.Content = "Livraison à Dakar sous 24h."
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() refresh error = %v", err)
	}
	docs, _ = store.ListActive(ctx, shopID)
	if len(docs) != 2 {
		t.Fatalf("ListActive() after refresh count = %d, want 2", len(docs))
	}
	if docs[0].Title != "Livraison et délais" || docs[0].Content != "Livraison à Dakar sous 24h." {
		t.Errorf("refresh did not update the document: %+v", docs[0])
	}

	other, err := store.ListActive(ctx, uuid.New())
	if err != nil {
		t.Fatalf("ListActive() for empty shop error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("documents leaked across shops: %+v", other)
	}
}
