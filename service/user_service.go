package service

import (
	"context"
	"strings"
	"time"

	"story4u-backend/auth"
	"story4u-backend/cache"
	"story4u-backend/errs"
	"story4u-backend/models"
	"story4u-backend/repository"
	"story4u-backend/sanitize"

	"go.uber.org/zap"
)

const (
	bootstrapLock   = "lock:bootstrap-superadmin"
	lockExpiry      = 10 * time.Second
	invalidLoginMsg = "Invalid email or password"
)

// ErrSuperAdminExists 已存在超级管理员时不能再通过引导接口创建
var ErrSuperAdminExists = errs.New(errs.Forbidden, "A superadmin already exists")

// RegisterInput 创建账号的输入，格式已在请求绑定时校验
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserService 账号、登录与角色管理
type UserService struct {
	users  *repository.UserRepository
	tokens *auth.TokenService
	locker cache.Locker
	log    *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(users *repository.UserRepository, tokens *auth.TokenService, locker cache.Locker, log *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, locker: locker, log: log}
}

// Bootstrap 仅当系统中没有超级管理员时创建第一个超级管理员
func (s *UserService) Bootstrap(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Role = string(models.RoleSuperAdmin)
	user, err := s.newUser(in)
	if err != nil {
		return nil, "", err
	}

	err = s.locker.WithLock(ctx, bootstrapLock, lockExpiry, func() error {
		count, err := s.users.CountByRole(ctx, models.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSuperAdminExists
		}
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Info("已创建初始超级管理员", zap.Uint("user_id", user.ID))
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register 由超级管理员创建账号，角色默认为user
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if in.Role == "" {
		in.Role = string(models.RoleUser)
	}
	user, err := s.newUser(in)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errs.Is(err, errs.Conflict) {
			return nil, "", errs.New(errs.Conflict, "Email is already registered", errs.WithOp("user.register"), errs.WithErr(err))
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) newUser(in RegisterInput) (*models.User, error) {
	v := &fieldValidator{}
	name := in.Name
	v.text("name", &name)

	role, err := models.ParseRole(in.Role)
	if err != nil {
		v.require(false, "role must be one of user, admin, superadmin.")
	}
	if err := v.err("user.validate"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Name:         sanitize.SanitizeText(name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         role,
	}, nil
}

// Login 校验凭证并签发令牌。邮箱不存在时仍执行一次密码比较。
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errs.Is(err, errs.NotFound) {
			return nil, "", err
		}
		auth.CheckPassword("", password)
		return nil, "", errs.New(errs.Unauthenticated, invalidLoginMsg, errs.WithOp("user.login"))
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", errs.New(errs.Unauthenticated, invalidLoginMsg, errs.WithOp("user.login"))
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Get 根据ID获取用户
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// List 列出所有用户
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateRole 修改其他用户的角色，不能修改自己的角色
func (s *UserService) UpdateRole(ctx context.Context, caller *models.User, targetID uint, roleName string) (*models.User, error) {
	if caller != nil && caller.ID == targetID {
		return nil, ErrSelfRoleChange
	}
	role, err := models.ParseRole(roleName)
	if err != nil {
		return nil, errs.New(errs.InvalidRequest, "role must be one of user, admin, superadmin", errs.WithOp("user.updateRole"))
	}
	if caller == nil || caller.Role != models.RoleSuperAdmin {
		return nil, errs.New(errs.Forbidden, "Only a superadmin can change roles", errs.WithOp("user.updateRole"))
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	s.log.Info("用户角色已修改",
		zap.Uint("target_id", targetID),
		zap.String("role", role.String()),
		zap.Uint("by", caller.ID))
	return s.users.FindByID(ctx, targetID)
}

// ErrSelfRoleChange 用户不能修改自己的角色
var ErrSelfRoleChange = errs.New(errs.InvalidRequest, "You cannot change your own role")
