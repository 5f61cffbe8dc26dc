package services

import (
	"context"
	"testing"

	"boardly/internal/models"
	"boardly/internal/testutil"
)

func TestBoardLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := identity(testutil.CreateUser(t, f.db, models.RoleAdmin))
	user := identity(testutil.CreateUser(t, f.db, models.RoleUser))

	_, err := f.boards.Create(ctx, user, BoardInput{Name: "News", Slug: "news"})
	assertKind(t, err, KindDenied)
	_, err = f.boards.Create(ctx, nil, BoardInput{Name: "News", Slug: "news"})
	assertKind(t, err, KindAuthRequired)

	board, err := f.boards.Create(ctx, admin, BoardInput{Name: "News", Slug: "news", Order: 2})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.boards.Create(ctx, admin, BoardInput{Name: "Other", Slug: "news"})
	assertKind(t, err, KindConflict)
	assertField(t, err, "slug")

	_, err = f.boards.Create(ctx, admin, BoardInput{Name: "Bad", Slug: "Not A Slug"})
	assertField(t, err, "slug")
	_, err = f.boards.Create(ctx, admin, BoardInput{Slug: "noname"})
	assertField(t, err, "name")

	updated, err := f.boards.Update(ctx, admin, board.ID, BoardInput{Name: "Headlines", Slug: "changed", Order: 0})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Slug != "news" || updated.Name != "Headlines" || updated.Order != 0 {
		t.Fatalf("update must keep the slug: %+v", updated)
	}

	got, err := f.boards.GetBySlug(ctx, "news")
	if err != nil || got.ID != board.ID {
		t.Fatalf("lookup by slug: %v %+v", err, got)
	}
	_, err = f.boards.GetBySlug(ctx, "changed")
	assertKind(t, err, KindNotFound)
}

func TestBoardListOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := identity(testutil.CreateUser(t, f.db, models.RoleAdmin))

	f.boards.Create(ctx, admin, BoardInput{Name: "C", Slug: "c", Order: 2})
	f.boards.Create(ctx, admin, BoardInput{Name: "A", Slug: "a", Order: 1})
	f.boards.Create(ctx, admin, BoardInput{Name: "B", Slug: "b", Order: 1})

	boards, err := f.boards.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var slugs string
	for _, b := range boards {
		slugs += b.Slug
	}
	if slugs != "abc" {
		t.Fatalf("expected order then id, got %q", slugs)
	}
}

func TestDeleteBoardCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adminUser := testutil.CreateUser(t, f.db, models.RoleAdmin)
	board := testutil.CreateBoard(t, f.db)
	keep := testutil.CreateBoard(t, f.db)
	post := testutil.CreatePost(t, f.db, adminUser, board)
	testutil.CreatePost(t, f.db, adminUser, keep)
	testutil.CreateComment(t, f.db, adminUser, post)

	counts, err := f.boards.AdminList(ctx, identity(adminUser))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range counts {
		if c.PostCount != 1 {
			t.Fatalf("board %s: expected 1 post, got %d", c.Slug, c.PostCount)
		}
	}

	if err := f.boards.Delete(ctx, identity(adminUser), board.ID); err != nil {
		t.Fatal(err)
	}
	if n := testutil.CountRows(t, f.db, &models.Post{}, "board_id = ?", board.ID); n != 0 {
		t.Fatalf("posts survived board deletion: %d", n)
	}
	if n := testutil.CountRows(t, f.db, &models.Comment{}, "post_id = ?", post.ID); n != 0 {
		t.Fatalf("comments survived board deletion: %d", n)
	}
	if n := testutil.CountRows(t, f.db, &models.Post{}, "board_id = ?", keep.ID); n != 1 {
		t.Fatal("other boards must keep their posts")
	}
	assertKind(t, f.boards.Delete(ctx, identity(adminUser), board.ID), KindNotFound)
}
