package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"mokki/backend/config"
	"mokki/backend/internal/dto"
	"mokki/backend/pkg/jwt"
)

func setupTestAuthService(t *testing.T) (AuthService, *testRepos) {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 168 * time.Hour,
		},
	}

	tr := newTestRepos()
	svc := NewAuthService(cfg, tr.repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())
	return svc, tr
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := setupTestAuthService(t)
	ctx := context.Background()

	reg := &dto.RegisterRequest{Name: "Aino", Email: "aino@example.com", Password: "password123"}
	resp, err := svc.Register(ctx, reg)
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("注册应直接签发 Token")
	}
	if resp.User == nil || resp.User.Email != "aino@example.com" {
		t.Errorf("用户信息错误: %+v", resp.User)
	}

	// 邮箱重复
	if _, err := svc.Register(ctx, reg); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("重复注册，期望 ErrEmailTaken，实际: %v", err)
	}

	// 正确密码登录
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "aino@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 错误密码
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "aino@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("错误密码，期望 ErrInvalidCredentials，实际: %v", err)
	}

	// 不存在的邮箱与错误密码不可区分
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未注册邮箱，期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _ := setupTestAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Aino", Email: "aino@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("刷新应签发新 Access Token")
	}

	// access token 不能当 refresh token 用
	if _, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.AccessToken}); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("用 access token 刷新，期望 ErrRefreshInvalid，实际: %v", err)
	}

	if _, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "garbage"}); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("非法 token，期望 ErrRefreshInvalid，实际: %v", err)
	}
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, tr := setupTestAuthService(t)
	ctx := context.Background()

	tr.addUser("u1", "Aino")

	user, err := svc.GetCurrentUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCurrentUser 应成功: %v", err)
	}
	if user.Name != "Aino" {
		t.Errorf("用户信息错误: %+v", user)
	}

	if _, err := svc.GetCurrentUser(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
