package services

import (
	"html/template"
	"time"

	"boardly/internal/models"
)

// The views below are what the API returns. They never carry email or
// password hashes of other users.

type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func authorOf(u models.User) Author {
	return Author{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

type BoardRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func boardRefOf(b models.Board) BoardRef {
	return BoardRef{ID: b.ID, Name: b.Name, Slug: b.Slug}
}

type PostSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt"`
	Author       Author    `json:"author"`
	Board        BoardRef  `json:"board"`
	Views        int       `json:"views"`
	CommentCount int64     `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Aggregate
}

type PostDetail struct {
	PostSummary
	Content     string        `json:"content"`
	ContentHTML template.HTML `json:"contentHtml"`
	Comments    []CommentView `json:"comments"`
}

type CommentView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"postId"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Edited    bool      `json:"edited"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Aggregate
}

type PostPage struct {
	Posts      []PostSummary `json:"posts"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int64         `json:"total"`
}

// UserView is the account as its owner or an admin sees it.
type UserView struct {
	ID        uint        `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	Bio       string      `json:"bio"`
	Avatar    string      `json:"avatar"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewUserView(u models.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type PostRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type RecentComment struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Post      PostRef   `json:"post"`
}
