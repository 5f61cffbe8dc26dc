package services

import (
	"testing"

	"boardly/internal/models"
	"boardly/internal/testutil"

	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	votes    *VoteService
	posts    *PostService
	comments *CommentService
	boards   *BoardService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.OpenDB(t)
	votes := NewVoteService(conn)
	posts := NewPostService(conn, votes)
	comments := NewCommentService(conn, votes)
	return &fixture{
		db:       conn,
		votes:    votes,
		posts:    posts,
		comments: comments,
		boards:   NewBoardService(conn),
		users:    NewUserService(conn, posts, comments),
	}
}

func identity(u *models.User) *Identity {
	return &Identity{ID: u.ID, Role: u.Role}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Field != field {
		t.Fatalf("expected field %q, got %q", field, e.Field)
	}
}
