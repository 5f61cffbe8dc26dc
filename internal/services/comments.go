package services

import (
	"context"
	"errors"
	"strings"

	"boardly/internal/models"

	"gorm.io/gorm"
)

const maxCommentLength = 5000

type CommentService struct {
	db    *gorm.DB
	votes *VoteService
}

func NewCommentService(db *gorm.DB, votes *VoteService) *CommentService {
	return &CommentService{db: db, votes: votes}
}

type CreateCommentInput struct {
	PostID  uint   `json:"postId"`
	Content string `json:"content"`
}

func commentViewOf(c models.Comment, agg Aggregate) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		Author:    authorOf(c.User),
		Edited:    c.Edited(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Aggregate: agg,
	}
}

func (s *CommentService) Create(ctx context.Context, actor *Identity, in CreateCommentInput) (*CommentView, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if in.PostID == 0 {
		return nil, validationError("postId", "postId is required")
	}
	if err := validateComment(in.Content); err != nil {
		return nil, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", in.PostID).Count(&n).Error; err != nil {
		return nil, internal("check post", err)
	}
	if n == 0 {
		return nil, notFound("post not found")
	}

	comment := models.Comment{PostID: in.PostID, UserID: actor.ID, Content: in.Content}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, internal("create comment", err)
	}
	return s.view(ctx, comment.ID, actor)
}

// Update is allowed for the author only.
func (s *CommentService) Update(ctx context.Context, actor *Identity, id uint, content string) (*CommentView, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if err := validateComment(content); err != nil {
		return nil, err
	}
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanEdit(actor, comment.UserID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(comment).Update("content", content).Error; err != nil {
		return nil, internal("update comment", err)
	}
	return s.view(ctx, id, actor)
}

func (s *CommentService) Delete(ctx context.Context, actor *Identity, id uint) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := CanDelete(actor, comment.UserID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, id).Error; err != nil {
		return internal("delete comment", err)
	}
	return nil
}

// Recent returns the latest comments of one author with the post they
// belong to.
func (s *CommentService) Recent(ctx context.Context, userID uint, limit int) ([]RecentComment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("Post").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, internal("list user comments", err)
	}
	out := make([]RecentComment, len(comments))
	for i, c := range comments {
		out[i] = RecentComment{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Post:      PostRef{ID: c.Post.ID, Title: c.Post.Title},
		}
	}
	return out, nil
}

func (s *CommentService) load(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("comment not found")
	}
	if err != nil {
		return nil, internal("load comment", err)
	}
	return &comment, nil
}

func (s *CommentService) view(ctx context.Context, id uint, viewer *Identity) (*CommentView, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, internal("reload comment", err)
	}
	agg, err := s.votes.Aggregate(ctx, models.TargetComment, id, viewerID(viewer))
	if err != nil {
		return nil, err
	}
	v := commentViewOf(comment, *agg)
	return &v, nil
}

func validateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return validationError("content", "content is required")
	}
	if len([]rune(content)) > maxCommentLength {
		return validationError("content", "content is too long")
	}
	return nil
}
