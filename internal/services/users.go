package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"boardly/internal/models"
	"boardly/internal/utils"

	"gorm.io/gorm"
)

const (
	maxUsernameLength = 50
	maxBioLength      = 500
	profileListLimit  = 10
)

type UserService struct {
	db       *gorm.DB
	posts    *PostService
	comments *CommentService
}

func NewUserService(db *gorm.DB, posts *PostService, comments *CommentService) *UserService {
	return &UserService{db: db, posts: posts, comments: comments}
}

type SignupInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

type Profile struct {
	User     UserView        `json:"user"`
	Posts    []PostSummary   `json:"posts"`
	Comments []RecentComment `json:"comments"`
}

type UserWithCounts struct {
	UserView
	PostCount    int64 `json:"postCount"`
	CommentCount int64 `json:"commentCount"`
}

type Stats struct {
	Users    int64 `json:"users"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
	Boards   int64 `json:"boards"`
}

// Signup creates a regular account. Email is stored lower-cased.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*UserView, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" {
		return nil, validationError("email", "email is required")
	}
	if username == "" {
		return nil, validationError("username", "username is required")
	}
	if in.Password == "" {
		return nil, validationError("password", "password is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("email", "email is not valid")
	}
	if len([]rune(username)) > maxUsernameLength {
		return nil, validationError("username", "username is too long")
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, validationError("password", "password is too short")
	}

	if err := s.checkUnique(ctx, "email", email, 0); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, "username", username, 0); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	user := models.User{
		Email:    email,
		Username: username,
		Password: hash,
		Role:     models.RoleUser,
		Avatar:   utils.GetRandomEmoji(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateField(ctx, email, username)
		}
		return nil, internal("create user", err)
	}
	v := NewUserView(user)
	return &v, nil
}

// duplicateField names the key that lost a concurrent signup race.
func (s *UserService) duplicateField(ctx context.Context, email, username string) error {
	if err := s.checkUnique(ctx, "email", email, 0); err != nil {
		return err
	}
	if err := s.checkUnique(ctx, "username", username, 0); err != nil {
		return err
	}
	return conflictError("", "account already exists")
}

// checkUnique fails with a conflict when another user than exceptID already
// holds value in column.
func (s *UserService) checkUnique(ctx context.Context, column, value string, exceptID uint) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&n).Error
	if err != nil {
		return internal("check "+column, err)
	}
	if n > 0 {
		return conflictError(column, column+" is already in use")
	}
	return nil
}

// Authenticate checks credentials. Unknown email and wrong password fail the
// same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationError("email", "email is required")
	}
	if password == "" {
		return nil, validationError("password", "password is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{Kind: KindAuthRequired, Message: "invalid email or password"}
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, &Error{Kind: KindAuthRequired, Message: "invalid email or password"}
	}
	return &user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	return &user, nil
}

// Profile returns the caller's account with the ten latest posts and comments.
func (s *UserService) Profile(ctx context.Context, actor *Identity) (*Profile, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ByUser(ctx, user.ID, profileListLimit, actor)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.Recent(ctx, user.ID, profileListLimit)
	if err != nil {
		return nil, err
	}
	return &Profile{User: NewUserView(*user), Posts: posts, Comments: comments}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *Identity, in ProfileInput) (*UserView, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, validationError("username", "username is required")
	}
	if len([]rune(username)) > maxUsernameLength {
		return nil, validationError("username", "username is too long")
	}
	if len([]rune(in.Bio)) > maxBioLength {
		return nil, validationError("bio", "bio is too long")
	}
	user, err := s.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, "username", username, user.ID); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"username": username,
		"bio":      strings.TrimSpace(in.Bio),
		"avatar":   strings.TrimSpace(in.Avatar),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflictError("username", "username is already in use")
	}
	if err != nil {
		return nil, internal("update profile", err)
	}
	if user, err = s.Get(ctx, actor.ID); err != nil {
		return nil, err
	}
	v := NewUserView(*user)
	return &v, nil
}

// AdminList returns every user, newest first, with post and comment counts.
func (s *UserService) AdminList(ctx context.Context, actor *Identity) ([]UserWithCounts, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, internal("list users", err)
	}

	postCounts, err := s.countByUser(ctx, &models.Post{})
	if err != nil {
		return nil, err
	}
	commentCounts, err := s.countByUser(ctx, &models.Comment{})
	if err != nil {
		return nil, err
	}

	out := make([]UserWithCounts, len(users))
	for i, u := range users {
		out[i] = UserWithCounts{
			UserView:     NewUserView(u),
			PostCount:    postCounts[u.ID],
			CommentCount: commentCounts[u.ID],
		}
	}
	return out, nil
}

func (s *UserService) countByUser(ctx context.Context, model any) (map[uint]int64, error) {
	var rows []struct {
		UserID uint
		N      int64
	}
	err := s.db.WithContext(ctx).Model(model).
		Select("user_id, COUNT(*) AS n").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, internal("count by user", err)
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.N
	}
	return out, nil
}

func (s *UserService) SetRole(ctx context.Context, actor *Identity, id uint, role models.Role) (*UserView, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, validationError("role", "role must be user or admin")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, internal("set role", err)
	}
	user.Role = role
	v := NewUserView(*user)
	return &v, nil
}

// Delete removes an account and everything it owns. An admin cannot delete
// their own account.
func (s *UserService) Delete(ctx context.Context, actor *Identity, id uint) error {
	if err := CanDeleteUser(actor, id); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return internal("delete user", err)
	}
	return nil
}

// Stats counts the rows of the dashboard tables.
func (s *UserService) Stats(ctx context.Context, actor *Identity) (*Stats, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	var st Stats
	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.User{}, &st.Users},
		{&models.Post{}, &st.Posts},
		{&models.Comment{}, &st.Comments},
		{&models.Board{}, &st.Boards},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dst).Error; err != nil {
			return nil, internal("stats", err)
		}
	}
	return &st, nil
}
