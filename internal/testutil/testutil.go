// Package testutil opens throwaway databases and creates fixture rows for
// package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"boardly/internal/db"
	"boardly/internal/models"
	"boardly/internal/utils"

	"gorm.io/gorm"
)

// Password is the plain-text password of every fixture user.
const Password = "secret123"

var (
	dbSeq      atomic.Int64
	fixtureSeq atomic.Int64

	// bcrypt is slow; hash the shared fixture password once.
	passwordHash string
)

func init() {
	h, err := utils.HashPassword(Password)
	if err != nil {
		panic(err)
	}
	passwordHash = h
}

// OpenDB returns a migrated in-memory sqlite database private to t.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:boardly_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	conn, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func next() int64 { return fixtureSeq.Add(1) }

func CreateUser(t testing.TB, conn *gorm.DB, role models.Role) *models.User {
	t.Helper()
	n := next()
	u := &models.User{
		Email:    fmt.Sprintf("user%d@example.com", n),
		Username: fmt.Sprintf("user%d", n),
		Password: passwordHash,
		Role:     role,
	}
	if err := conn.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateBoard(t testing.TB, conn *gorm.DB) *models.Board {
	t.Helper()
	n := next()
	b := &models.Board{
		Name:  fmt.Sprintf("Board %d", n),
		Slug:  fmt.Sprintf("board-%d", n),
		Order: int(n),
	}
	if err := conn.Create(b).Error; err != nil {
		t.Fatalf("create board: %v", err)
	}
	return b
}

func CreatePost(t testing.TB, conn *gorm.DB, author *models.User, board *models.Board) *models.Post {
	t.Helper()
	n := next()
	p := &models.Post{
		UserID:  author.ID,
		BoardID: board.ID,
		Title:   fmt.Sprintf("Post %d", n),
		Content: fmt.Sprintf("Body of post %d", n),
	}
	if err := conn.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func CreateComment(t testing.TB, conn *gorm.DB, author *models.User, post *models.Post) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:  post.ID,
		UserID:  author.ID,
		Content: fmt.Sprintf("Comment %d", next()),
	}
	if err := conn.Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

// CountRows counts rows of model matching the condition.
func CountRows(t testing.TB, conn *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
