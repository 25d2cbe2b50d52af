package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"lingua_backend/internal/config"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/kvstore"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Session 登录成功后返回给客户端
type Session struct {
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

// AuthProvider 负责账号创建、登录和令牌校验
type AuthProvider interface {
	SignUp(ctx context.Context, email, password, name string) (*model.User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// ValidateToken 无效或过期的令牌返回 util.ErrUnauthorized
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// NewAuthProvider 按 auth.provider 构造
func NewAuthProvider(cfg *config.Config, users *repository.AuthUserRepository) AuthProvider {
	if cfg.Auth.Provider == util.AuthProviderSupabase {
		return NewSupabaseAuthProvider(cfg.Auth)
	}
	return NewLocalAuthProvider(users, cfg.JWT)
}

func validateSignUp(email, password, name string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return util.NewValidationError("email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return util.NewValidationError("invalid email address: %s", email)
	}
	if len(password) < minPasswordLength {
		return util.NewValidationError("Password should be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(name) == "" {
		return util.NewValidationError("name is required")
	}
	return nil
}

// LocalAuthProvider 凭据保存在键值存储中，签发 HS256 令牌
type LocalAuthProvider struct {
	Users *repository.AuthUserRepository
	JWT   config.JWTConfig
	now   func() time.Time
}

func NewLocalAuthProvider(users *repository.AuthUserRepository, cfg config.JWTConfig) *LocalAuthProvider {
	return &LocalAuthProvider{Users: users, JWT: cfg, now: time.Now}
}

func (p *LocalAuthProvider) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	if err := validateSignUp(email, password, name); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &model.AuthUser{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: string(hashedPassword),
		CreatedAt:    p.now(),
	}
	if err := p.Users.Create(ctx, u); err != nil {
		if errors.Is(err, kvstore.ErrExists) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return u.Public(), nil
}

func (p *LocalAuthProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := p.Users.FindByEmail(ctx, email)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, u.Email, u.Name, p.JWT.Secret, p.JWT.Issuer, p.JWT.ExpireTime, p.now())
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, User: u.Public()}, nil
}

func (p *LocalAuthProvider) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := util.ParseJWT(token, p.JWT.Secret)
	if err != nil {
		return nil, util.ErrUnauthorized
	}
	return &model.User{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// SupabaseAuthProvider 调用 GoTrue REST 接口
type SupabaseAuthProvider struct {
	config config.AuthConfig
	http   *http.Client
}

func NewSupabaseAuthProvider(cfg config.AuthConfig) *SupabaseAuthProvider {
	return &SupabaseAuthProvider{config: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type supabaseUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func (u *supabaseUser) toUser() *model.User {
	return &model.User{ID: u.ID, Email: u.Email, Name: u.UserMetadata.Name, CreatedAt: u.CreatedAt}
}

// supabaseError GoTrue 不同版本的错误字段不一致
type supabaseError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *supabaseError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do 发送请求。2xx 时把响应体解码到 out，否则返回状态码和错误信息
func (p *SupabaseAuthProvider) do(ctx context.Context, method, path, apiKey, bearer string, body, out interface{}) (int, string, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, "", err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(p.config.SupabaseURL, "/")+path, reader)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, "", &util.UpstreamError{Service: "Supabase Auth", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", &util.UpstreamError{Service: "Supabase Auth", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e supabaseError
		msg := string(raw)
		if json.Unmarshal(raw, &e) == nil && e.text() != "" {
			msg = e.text()
		}
		return resp.StatusCode, msg, nil
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, "", &util.UpstreamError{Service: "Supabase Auth", Err: err}
		}
	}
	return resp.StatusCode, "", nil
}

func (p *SupabaseAuthProvider) upstream(status int, msg string) error {
	return &util.UpstreamError{Service: "Supabase Auth", Status: status, Body: msg}
}

func (p *SupabaseAuthProvider) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"user_metadata": map[string]string{"name": name},
		// 未配置邮件服务，直接确认邮箱
		"email_confirm": true,
	}

	var u supabaseUser
	status, msg, err := p.do(ctx, http.MethodPost, "/auth/v1/admin/users", p.config.SupabaseServiceKey, p.config.SupabaseServiceKey, body, &u)
	if err != nil {
		return nil, err
	}
	switch {
	case status >= 500:
		return nil, p.upstream(status, msg)
	case status >= 400:
		return nil, util.NewValidationError("%s", msg)
	}
	return u.toUser(), nil
}

func (p *SupabaseAuthProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	apiKey := p.config.SupabaseAnonKey
	if apiKey == "" {
		apiKey = p.config.SupabaseServiceKey
	}

	var out struct {
		AccessToken string       `json:"access_token"`
		User        supabaseUser `json:"user"`
	}
	status, msg, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", apiKey, "",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	switch {
	case status >= 500:
		return nil, p.upstream(status, msg)
	case status >= 400:
		return nil, util.ErrInvalidCredentials
	}
	return &Session{AccessToken: out.AccessToken, User: out.User.toUser()}, nil
}

func (p *SupabaseAuthProvider) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	var u supabaseUser
	status, msg, err := p.do(ctx, http.MethodGet, "/auth/v1/user", p.config.SupabaseServiceKey, token, nil, &u)
	if err != nil {
		return nil, err
	}
	switch {
	case status >= 500:
		return nil, p.upstream(status, fmt.Sprintf("token validation failed: %s", msg))
	case status >= 400:
		return nil, util.ErrUnauthorized
	}
	if u.ID == "" {
		return nil, util.ErrUnauthorized
	}
	return u.toUser(), nil
}
