package users

import (
	"context"
	"testing"

	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/google/uuid"
)

func TestRepositoryFindByIDs(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	ada, err := repo.Create(ctx, CreateUserDTO{Email: " Ada@Example.com ", FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("create ada: %v", err)
	}
	if ada.Email != "ada@example.com" || !ada.IsActive {
		t.Fatalf("unexpected user %+v", ada)
	}
	inactive := false
	bob, err := repo.Create(ctx, CreateUserDTO{Email: "bob@example.com", FirstName: "Bob", LastName: "Byrne", IsActive: &inactive})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	rows, err := repo.FindByIDs(ctx, []uuid.UUID{ada.ID, bob.ID, uuid.New()})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 users, got %d", len(rows))
	}

	none, err := repo.FindByIDs(ctx, nil)
	if err != nil || none != nil {
		t.Fatalf("expected nil result for empty ids, got %v %v", none, err)
	}
}
