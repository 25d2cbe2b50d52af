// Package client 是 API 的 Go 客户端，供终端应用使用
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lingua_backend/internal/model"
	"lingua_backend/internal/service"
)

// APIError 非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 90 * time.Second},
	}
}

// GeneratedLesson /generate-lesson 的响应
type GeneratedLesson struct {
	LessonID string          `json:"lessonId"`
	Lesson   json.RawMessage `json:"lesson"`
}

// Quiz 解析课程中的测验题
func (g *GeneratedLesson) Quiz() ([]model.QuizQuestion, error) {
	l := model.Lesson{Content: g.Lesson}
	return l.Quiz()
}

// Title 课程标题，没有时为空
func (g *GeneratedLesson) Title() string {
	var head struct {
		Title string `json:"title"`
	}
	json.Unmarshal(g.Lesson, &head)
	return head.Title
}

type ProfileView struct {
	Profile  *model.Profile  `json:"profile"`
	Progress *model.Progress `json:"progress"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/signup", map[string]string{"email": email, "password": password, "name": name}, &out)
	return out.User, err
}

// Login 成功后保存访问令牌
func (c *Client) Login(ctx context.Context, email, password string) (*service.Session, error) {
	var out service.Session
	if err := c.do(ctx, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.Token = out.AccessToken
	return &out, nil
}

func (c *Client) Logout() {
	c.Token = ""
}

func (c *Client) Onboard(ctx context.Context, level string) error {
	return c.do(ctx, http.MethodPost, "/onboard", map[string]string{"level": level}, nil)
}

func (c *Client) Profile(ctx context.Context) (*ProfileView, error) {
	var out ProfileView
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Progress(ctx context.Context) (*service.ProgressOverview, error) {
	var out service.ProgressOverview
	if err := c.do(ctx, http.MethodGet, "/progress", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateLesson(ctx context.Context) (*GeneratedLesson, error) {
	var out GeneratedLesson
	if err := c.do(ctx, http.MethodPost, "/generate-lesson", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitQuiz answers 中仍有未作答题目（UnansweredAnswer）时不发送请求
func (c *Client) SubmitQuiz(ctx context.Context, lessonID string, answers []int) (*service.SubmitResult, error) {
	if !AllAnswered(answers) {
		return nil, ErrIncompleteQuiz
	}

	var out service.SubmitResult
	if err := c.do(ctx, http.MethodPost, "/submit-quiz", map[string]interface{}{"lessonId": lessonID, "answers": answers}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
