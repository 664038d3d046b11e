package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/logger"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/post"
	"terminal-terrace/sse-blog/internal/social"
	"terminal-terrace/sse-blog/internal/upload"
	authsdk "terminal-terrace/sse-blog/packages/auth-sdk"
	"terminal-terrace/sse-blog/packages/email"
	"terminal-terrace/sse-blog/packages/response"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound      = response.NotFoundError("用户")
	ErrUsernameTaken     = response.DuplicateNameError("用户名已存在")
	ErrEmailTaken        = response.DuplicateNameError("邮箱已被注册")
	ErrInvalidUsername   = response.InvalidParameterError("用户名必须以字母开头，只能包含字母、数字、下划线和点，长度1-64")
	ErrInvalidEmail      = response.InvalidParameterError("邮箱格式不正确")
	ErrInvalidPassword   = response.InvalidParameterError("密码长度必须在6-100个字符之间")
	ErrBadCredentials    = response.NewBusinessError(response.WithErrorCode(response.Unauthorized), response.WithErrorMessage("用户名或密码错误"))
	ErrWrongPassword     = response.NewBusinessError(response.WithErrorCode(response.Unauthorized), response.WithErrorMessage("原密码不正确"))
	ErrInvalidResetToken = response.NewBusinessError(response.WithErrorCode(response.Unauthorized), response.WithErrorMessage("重置链接无效或已过期"))
	ErrAccountDisabled   = response.ForbiddenError("账号已被禁用")
)

// UserService 用户服务接口
type UserService interface {
	Register(ctx context.Context, in *RegisterInput) (*userModel.User, error)
	Authenticate(ctx context.Context, login, password string) (*userModel.User, error)
	Login(ctx context.Context, login, password string) (*LoginResult, error)

	GetByID(ctx context.Context, id uint) (*userModel.User, error)
	GetByUsername(ctx context.Context, username string) (*userModel.User, error)
	Me(ctx context.Context, id uint) (*Me, error)
	Profile(ctx context.Context, viewerID uint, username string) (*Profile, error)

	UpdateProfile(ctx context.Context, userID uint, in *ProfileInput) (*userModel.User, error)
	UpdateAvatar(ctx context.Context, userID uint, r io.Reader, ext string) (*userModel.User, error)
	UpdateSettings(ctx context.Context, userID uint, in *SettingsInput) (*userModel.User, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	Dashboard(ctx context.Context, userID uint) (*Dashboard, error)
}

type userService struct {
	store  *database.Store
	images upload.ImageStore
	mailer email.Mailer
	opts   Options
}

// NewUserService 创建服务实例
// images 为 nil 时不支持头像上传；mailer 为 nil 时不发送重置邮件
func NewUserService(store *database.Store, images upload.ImageStore, mailer email.Mailer, opts Options) UserService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ResetTTL == 0 {
		opts.ResetTTL = time.Hour
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &userService{store: store, images: images, mailer: mailer, opts: opts}
}

// ========== 注册与登录 ==========

// Register 注册新用户
// 用户名与邮箱按原样比较（区分大小写），事务内检查，唯一索引兜底并发注册
func (s *userService) Register(ctx context.Context, in *RegisterInput) (*userModel.User, error) {
	username := strings.TrimSpace(in.Username)
	emailAddr := strings.TrimSpace(in.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !emailRegex.MatchString(emailAddr) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *userModel.User
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewUserRepository(tx)
		if err := checkUnique(repo, username, emailAddr, 0); err != nil {
			return err
		}

		now := time.Now()
		created = &userModel.User{
			Username:       username,
			Email:          emailAddr,
			PasswordHash:   hash,
			IsActive:       true,
			NotifyFollowed: true,
			NotifyComment:  true,
			NotifyReply:    true,
			ShowFollowing:  true,
			CreatedAt:      now,
			LastSeen:       now,
		}
		return repo.Create(created)
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, response.DuplicateNameError("用户名或邮箱已存在")
		}
		return nil, err
	}

	logger.Log.WithField("user_id", created.ID).Info("新用户注册")
	return created, nil
}

// Authenticate 按用户名或邮箱校验密码，成功后刷新 last_seen
func (s *userService) Authenticate(ctx context.Context, login, password string) (*userModel.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrBadCredentials
	}

	db := s.store.DB(ctx)
	repo := NewUserRepository(db)
	u, err := repo.FindByLogin(login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, database.Classify(pkgerrors.Wrap(err, "查询用户失败"))
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	u.LastSeen = time.Now()
	if err := repo.Update(u.ID, map[string]interface{}{"last_seen": u.LastSeen}); err != nil {
		logger.Log.WithError(err).WithField("user_id", u.ID).Warn("更新 last_seen 失败")
	}
	return u, nil
}

// Login 校验密码并签发访问令牌
func (s *userService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	u, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}
	token, err := authsdk.GenerateToken(authsdk.UserContext{
		UserID:   u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}, s.opts.JWTSecret, s.opts.TokenTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "生成令牌失败")
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.opts.TokenTTL),
		User:      toMe(u),
	}, nil
}

// ========== 查询 ==========

func (s *userService) GetByID(ctx context.Context, id uint) (*userModel.User, error) {
	return loadUser(s.store.DB(ctx), id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*userModel.User, error) {
	u, err := NewUserRepository(s.store.DB(ctx)).GetByUsername(username)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

func (s *userService) Me(ctx context.Context, id uint) (*Me, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMe(u), nil
}

// Profile 公开资料，附带关注计数与查看者的关注状态
func (s *userService) Profile(ctx context.Context, viewerID uint, username string) (*Profile, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	edges := social.NewSocialRepository(s.store.DB(ctx))
	profile := &Profile{
		ID:         u.ID,
		Username:   u.Username,
		Bio:        u.Bio,
		AvatarPath: u.AvatarPath,
		CreatedAt:  u.CreatedAt,
		LastSeen:   u.LastSeen,
	}
	if u.ShowEmail || viewerID == u.ID {
		profile.Email = u.Email
	}
	if profile.Followers, err = edges.CountFollowers(u.ID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计粉丝失败"))
	}
	if profile.Following, err = edges.CountFollowing(u.ID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计关注失败"))
	}
	if viewerID != 0 && viewerID != u.ID {
		if profile.IsFollowing, err = edges.IsFollowing(viewerID, u.ID); err != nil {
			return nil, database.Classify(pkgerrors.Wrap(err, "查询关注关系失败"))
		}
	}
	return profile, nil
}

// ========== 资料与设置 ==========

// UpdateProfile 修改用户名、邮箱或简介
func (s *userService) UpdateProfile(ctx context.Context, userID uint, in *ProfileInput) (*userModel.User, error) {
	updates := map[string]interface{}{}
	var username, emailAddr string
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		updates["username"] = username
	}
	if in.Email != nil {
		emailAddr = strings.TrimSpace(*in.Email)
		if !emailRegex.MatchString(emailAddr) {
			return nil, ErrInvalidEmail
		}
		updates["email"] = emailAddr
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}

	var updated *userModel.User
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewUserRepository(tx)
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		if err := checkUnique(repo, username, emailAddr, userID); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := repo.Update(userID, updates); err != nil {
				return err
			}
		}
		var err error
		updated, err = loadUser(tx, userID)
		return err
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, response.DuplicateNameError("用户名或邮箱已存在")
		}
		return nil, err
	}
	return updated, nil
}

// UpdateAvatar 更换头像：先写文件再更新记录，事务失败时删除新文件，成功后删除旧文件
func (s *userService) UpdateAvatar(ctx context.Context, userID uint, r io.Reader, ext string) (*userModel.User, error) {
	if s.images == nil {
		return nil, response.InvalidParameterError("未配置图片存储")
	}
	name, err := s.images.Save(r, ext)
	if err != nil {
		return nil, err
	}

	var (
		updated   *userModel.User
		oldAvatar string
	)
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		u, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		oldAvatar = u.AvatarPath
		if err := NewUserRepository(tx).Update(u.ID, map[string]interface{}{"avatar_path": name}); err != nil {
			return err
		}
		u.AvatarPath = name
		updated = u
		return nil
	})
	if err != nil {
		removeImage(s.images, name)
		return nil, err
	}

	removeImage(s.images, oldAvatar)
	return updated, nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID uint, in *SettingsInput) (*userModel.User, error) {
	updates := map[string]interface{}{}
	set := func(column string, v *bool) {
		if v != nil {
			updates[column] = *v
		}
	}
	set("notify_followed", in.NotifyFollowed)
	set("notify_comment", in.NotifyComment)
	set("notify_reply", in.NotifyReply)
	set("show_email", in.ShowEmail)
	set("show_following", in.ShowFollowing)

	var updated *userModel.User
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := NewUserRepository(tx).Update(userID, updates); err != nil {
				return err
			}
		}
		var err error
		updated, err = loadUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ========== 密码 ==========

func (s *userService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		u, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
			return ErrWrongPassword
		}
		return NewUserRepository(tx).Update(u.ID, map[string]interface{}{"password_hash": hash})
	})
}

// RequestPasswordReset 发送重置密码邮件
// 邮箱未注册时静默返回，避免暴露注册信息；邮件发送失败只记录日志
func (s *userService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if !emailRegex.MatchString(emailAddr) {
		return ErrInvalidEmail
	}

	u, err := NewUserRepository(s.store.DB(ctx)).GetByEmail(emailAddr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return database.Classify(pkgerrors.Wrap(err, "查询用户失败"))
	}

	token, err := authsdk.GenerateResetToken(u.ID, s.opts.JWTSecret, s.opts.ResetTTL)
	if err != nil {
		return pkgerrors.Wrap(err, "生成重置令牌失败")
	}

	if s.mailer == nil {
		return nil
	}
	data := email.ResetPasswordData{
		Username:      u.Username,
		ResetURL:      fmt.Sprintf("%s/reset-password?token=%s", s.opts.BaseURL, token),
		ExpireMinutes: int(s.opts.ResetTTL / time.Minute),
	}
	if err := email.SendResetPassword(s.mailer, u.Email, data); err != nil {
		logger.Log.WithError(err).WithField("user_id", u.ID).Warn("发送重置密码邮件失败")
	}
	return nil
}

// ResetPassword 使用重置令牌设置新密码
func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := authsdk.ParseResetToken(token, s.opts.JWTSecret)
	if err != nil {
		return ErrInvalidResetToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		return NewUserRepository(tx).Update(userID, map[string]interface{}{"password_hash": hash})
	})
}

// ========== 面板 ==========

// Dashboard 个人面板：文章、阅读、评论、关注与收藏统计，以及最近的文章
func (s *userService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	db := s.store.DB(ctx)
	if _, err := loadUser(db, userID); err != nil {
		return nil, err
	}

	repo := NewUserRepository(db)
	edges := social.NewSocialRepository(db)
	d := &Dashboard{}

	var err error
	if d.PostCount, d.PublishedCount, d.TotalViews, err = repo.PostStats(userID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计文章失败"))
	}
	if d.CommentCount, err = repo.CountComments(userID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计评论失败"))
	}
	if d.FollowerCount, err = edges.CountFollowers(userID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计粉丝失败"))
	}
	if d.FollowingCount, err = edges.CountFollowing(userID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计关注失败"))
	}
	if d.FavoriteCount, err = edges.CountFavoritesByUser(userID); err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计收藏失败"))
	}

	d.RecentPosts, _, err = post.NewPostRepository(db).List(post.ListFilter{
		AuthorID: userID,
		Order:    post.OrderRecent,
		Limit:    recentPostLimit,
	})
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询最近文章失败"))
	}
	return d, nil
}

// ========== 辅助方法 ==========

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", pkgerrors.Wrap(err, "密码加密失败")
	}
	return string(hash), nil
}

func validateUsername(username string) error {
	if username == "" || len(username) > 64 || !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 100 {
		return ErrInvalidPassword
	}
	return nil
}

// checkUnique 空字符串表示不检查该字段
func checkUnique(repo *UserRepository, username, emailAddr string, excludeID uint) error {
	if username != "" {
		taken, err := repo.UsernameExists(username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	if emailAddr != "" {
		taken, err := repo.EmailExists(emailAddr, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}

func toMe(u *userModel.User) *Me {
	return &Me{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		AvatarPath:     u.AvatarPath,
		IsAdmin:        u.IsAdmin,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		LastSeen:       u.LastSeen,
		NotifyFollowed: u.NotifyFollowed,
		NotifyComment:  u.NotifyComment,
		NotifyReply:    u.NotifyReply,
		ShowEmail:      u.ShowEmail,
		ShowFollowing:  u.ShowFollowing,
	}
}

func removeImage(images upload.ImageStore, name string) {
	if images == nil || name == "" {
		return
	}
	if err := images.Remove(name); err != nil {
		logger.Log.WithError(err).WithField("file", name).Warn("删除图片失败")
	}
}

func loadUser(db *gorm.DB, id uint) (*userModel.User, error) {
	var u userModel.User
	if err := db.First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
