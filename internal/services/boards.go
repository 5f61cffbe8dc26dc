package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"boardly/internal/models"

	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type BoardService struct {
	db *gorm.DB
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

type BoardInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type BoardWithCount struct {
	models.Board
	PostCount int64 `json:"postCount"`
}

// List returns every board by display order, ties broken by id.
func (s *BoardService) List(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&boards).Error; err != nil {
		return nil, internal("list boards", err)
	}
	return boards, nil
}

func (s *BoardService) GetBySlug(ctx context.Context, slug string) (*models.Board, error) {
	return findBoardBySlug(s.db.WithContext(ctx), slug)
}

func findBoardBySlug(tx *gorm.DB, slug string) (*models.Board, error) {
	var board models.Board
	err := tx.Where("slug = ?", slug).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("board not found")
	}
	if err != nil {
		return nil, internal("load board", err)
	}
	return &board, nil
}

func (s *BoardService) AdminList(ctx context.Context, actor *Identity) ([]BoardWithCount, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	boards, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var counts []struct {
		BoardID uint
		N       int64
	}
	err = s.db.WithContext(ctx).Model(&models.Post{}).
		Select("board_id, COUNT(*) AS n").
		Group("board_id").
		Scan(&counts).Error
	if err != nil {
		return nil, internal("count board posts", err)
	}
	byBoard := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byBoard[c.BoardID] = c.N
	}

	out := make([]BoardWithCount, len(boards))
	for i, b := range boards {
		out[i] = BoardWithCount{Board: b, PostCount: byBoard[b.ID]}
	}
	return out, nil
}

func (s *BoardService) Create(ctx context.Context, actor *Identity, in BoardInput) (*models.Board, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Name == "" {
		return nil, validationError("name", "name is required")
	}
	if in.Slug == "" {
		return nil, validationError("slug", "slug is required")
	}
	if !slugPattern.MatchString(in.Slug) {
		return nil, validationError("slug", "slug may contain lowercase letters, digits and hyphens")
	}

	board := models.Board{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
		Order:       in.Order,
	}
	err := s.db.WithContext(ctx).Create(&board).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflictError("slug", "slug is already in use")
	}
	if err != nil {
		return nil, internal("create board", err)
	}
	return &board, nil
}

// Update changes name, description and order. The slug is fixed at creation
// and any slug in the input is ignored.
func (s *BoardService) Update(ctx context.Context, actor *Identity, id uint, in BoardInput) (*models.Board, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationError("name", "name is required")
	}

	board, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(board).Updates(map[string]any{
		"name":        in.Name,
		"description": strings.TrimSpace(in.Description),
		"sort_order":  in.Order,
	}).Error
	if err != nil {
		return nil, internal("update board", err)
	}
	return s.load(ctx, id)
}

// Delete removes a board together with its posts.
func (s *BoardService) Delete(ctx context.Context, actor *Identity, id uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Board{}, id).Error; err != nil {
		return internal("delete board", err)
	}
	return nil
}

func (s *BoardService) load(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	err := s.db.WithContext(ctx).First(&board, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("board not found")
	}
	if err != nil {
		return nil, internal("load board", err)
	}
	return &board, nil
}
