package handlers

import (
	"net/http"

	"boardly/internal/middleware"
	"boardly/internal/services"
	"boardly/internal/utils"

	"github.com/gin-gonic/gin"
)

type StoryHandler struct {
	posts  *services.PostService
	boards *services.BoardService
}

func NewStoryHandler(posts *services.PostService, boards *services.BoardService) *StoryHandler {
	return &StoryHandler{posts: posts, boards: boards}
}

func listQuery(c *gin.Context) services.ListQuery {
	return services.ListQuery{
		BoardSlug: c.Query("board"),
		Search:    c.Query("q"),
		Page:      utils.PageParam(c.Query("page")),
	}
}

// List serves GET /api/posts?board=&page=&q=
func (h *StoryHandler) List(c *gin.Context) {
	page, err := h.posts.List(c.Request.Context(), listQuery(c), middleware.CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StoryHandler) Create(c *gin.Context) {
	var in services.CreatePostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "post created", "post": post})
}

// Detail counts a view and returns the post with its comments.
func (h *StoryHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.posts.IncrementViews(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	post, err := h.posts.Detail(ctx, id, middleware.CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *StoryHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.UpdatePostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := h.posts.Update(c.Request.Context(), middleware.CurrentIdentity(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post updated", "post": post})
}

func (h *StoryHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// Home renders the front page: latest posts and the board list.
func (h *StoryHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	boards, err := h.boards.List(ctx)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	page, err := h.posts.List(ctx, services.ListQuery{Page: utils.PageParam(c.Query("page"))}, middleware.CurrentIdentity(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "home.html", gin.H{
		"Boards": boards,
		"Page":   page,
	})
}

// Show renders a post page and counts the view.
func (h *StoryHandler) Show(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "post not found")
		return
	}
	ctx := c.Request.Context()
	if err := h.posts.IncrementViews(ctx, id); err != nil {
		renderServiceError(c, err)
		return
	}
	post, err := h.posts.Detail(ctx, id, middleware.CurrentIdentity(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "post.html", gin.H{
		"Post":  post,
		"Title": post.Title,
	})
}
