package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"boardly/internal/models"
	"boardly/internal/utils"

	"gorm.io/gorm"
)

const (
	PageSize       = 20
	excerptLength  = 200
	maxTitleLength = 200
)

type PostService struct {
	db    *gorm.DB
	votes *VoteService
}

func NewPostService(db *gorm.DB, votes *VoteService) *PostService {
	return &PostService{db: db, votes: votes}
}

type ListQuery struct {
	BoardSlug string
	Search    string
	Page      int
}

type CreatePostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	BoardSlug string `json:"boardSlug"`
}

type UpdatePostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List returns one page of posts, newest first, optionally restricted to a
// board and filtered by a case-insensitive title search.
func (s *PostService) List(ctx context.Context, q ListQuery, viewer *Identity) (*PostPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}

	var boardID uint
	if q.BoardSlug != "" {
		board, err := findBoardBySlug(s.db.WithContext(ctx), q.BoardSlug)
		if err != nil {
			return nil, err
		}
		boardID = board.ID
	}
	search := strings.TrimSpace(q.Search)
	filter := func(tx *gorm.DB) *gorm.DB {
		if boardID != 0 {
			tx = tx.Where("board_id = ?", boardID)
		}
		if search != "" {
			tx = tx.Where("LOWER(title) LIKE LOWER(?)", "%"+search+"%")
		}
		return tx
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, internal("count posts", err)
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).Scopes(filter).
		Preload("User").Preload("Board").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * PageSize).
		Limit(PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, internal("list posts", err)
	}

	summaries, err := s.summarize(ctx, posts, viewer)
	if err != nil {
		return nil, err
	}
	return &PostPage{
		Posts:      summaries,
		Page:       page,
		TotalPages: int(math.Ceil(float64(total) / PageSize)),
		Total:      total,
	}, nil
}

// ByUser returns the latest posts of one author.
func (s *PostService) ByUser(ctx context.Context, userID uint, limit int, viewer *Identity) ([]PostSummary, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("Board").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, internal("list user posts", err)
	}
	return s.summarize(ctx, posts, viewer)
}

// AdminList returns every post, newest first.
func (s *PostService) AdminList(ctx context.Context, actor *Identity) ([]PostSummary, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("Board").
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, internal("list all posts", err)
	}
	return s.summarize(ctx, posts, actor)
}

// summarize attaches comment counts and vote aggregates with one grouped
// query each.
func (s *PostService) summarize(ctx context.Context, posts []models.Post, viewer *Identity) ([]PostSummary, error) {
	out := make([]PostSummary, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var counts []struct {
		PostID uint
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&counts).Error
	if err != nil {
		return nil, internal("count comments", err)
	}
	commentCounts := make(map[uint]int64, len(counts))
	for _, c := range counts {
		commentCounts[c.PostID] = c.N
	}

	aggs, err := s.votes.AggregateMany(ctx, models.TargetPost, ids, viewerID(viewer))
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		out = append(out, PostSummary{
			ID:           p.ID,
			Title:        p.Title,
			Excerpt:      utils.Excerpt(p.Content, excerptLength),
			Author:       authorOf(p.User),
			Board:        boardRefOf(p.Board),
			Views:        p.Views,
			CommentCount: commentCounts[p.ID],
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
			Aggregate:    aggs[p.ID],
		})
	}
	return out, nil
}

// Detail returns a post with its rendered body and its comments in posting
// order, each with its own aggregate.
func (s *PostService) Detail(ctx context.Context, id uint, viewer *Identity) (*PostDetail, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("Board").First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("post not found")
	}
	if err != nil {
		return nil, internal("load post", err)
	}

	summaries, err := s.summarize(ctx, []models.Post{post}, viewer)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, internal("load comments", err)
	}
	views, err := s.commentViews(ctx, comments, viewer)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		PostSummary: summaries[0],
		Content:     post.Content,
		ContentHTML: utils.RenderMarkdown(post.Content),
		Comments:    views,
	}, nil
}

func (s *PostService) commentViews(ctx context.Context, comments []models.Comment, viewer *Identity) ([]CommentView, error) {
	out := make([]CommentView, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	aggs, err := s.votes.AggregateMany(ctx, models.TargetComment, ids, viewerID(viewer))
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		out = append(out, commentViewOf(c, aggs[c.ID]))
	}
	return out, nil
}

// IncrementViews bumps the counter unconditionally. Repeat reads by the same
// client count each time.
func (s *PostService) IncrementViews(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return internal("increment views", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("post not found")
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, actor *Identity, in CreatePostInput) (*PostSummary, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.BoardSlug = strings.TrimSpace(in.BoardSlug)
	if err := validatePost(in.Title, in.Content); err != nil {
		return nil, err
	}
	if in.BoardSlug == "" {
		return nil, validationError("boardSlug", "boardSlug is required")
	}

	board, err := findBoardBySlug(s.db.WithContext(ctx), in.BoardSlug)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		UserID:  actor.ID,
		BoardID: board.ID,
		Title:   in.Title,
		Content: in.Content,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, internal("create post", err)
	}
	return s.summary(ctx, post.ID, actor)
}

// Update changes title and content. Author and board never change.
func (s *PostService) Update(ctx context.Context, actor *Identity, id uint, in UpdatePostInput) (*PostSummary, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validatePost(in.Title, in.Content); err != nil {
		return nil, err
	}

	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanEdit(actor, post.UserID); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(post).Updates(map[string]any{
		"title":   in.Title,
		"content": in.Content,
	}).Error
	if err != nil {
		return nil, internal("update post", err)
	}
	return s.summary(ctx, id, actor)
}

// Delete removes a post; comments and votes go with it.
func (s *PostService) Delete(ctx context.Context, actor *Identity, id uint) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := CanDelete(actor, post.UserID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return internal("delete post", err)
	}
	return nil
}

func (s *PostService) load(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("post not found")
	}
	if err != nil {
		return nil, internal("load post", err)
	}
	return &post, nil
}

func (s *PostService) summary(ctx context.Context, id uint, viewer *Identity) (*PostSummary, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").Preload("Board").First(&post, id).Error; err != nil {
		return nil, internal("reload post", err)
	}
	out, err := s.summarize(ctx, []models.Post{post}, viewer)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func validatePost(title, content string) error {
	if title == "" {
		return validationError("title", "title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return validationError("title", "title is too long")
	}
	if strings.TrimSpace(content) == "" {
		return validationError("content", "content is required")
	}
	return nil
}

func viewerID(viewer *Identity) uint {
	if viewer == nil {
		return 0
	}
	return viewer.ID
}
