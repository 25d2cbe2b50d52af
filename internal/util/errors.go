package util

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("Unauthorized")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailRegistered    = errors.New("A user with this email address has already been registered")
	ErrProfileNotFound    = errors.New("Profile not found")
	ErrLessonNotFound     = errors.New("Lesson not found")
	ErrInvalidAnswers     = errors.New("answers must contain one selected option index per quiz question")
	ErrEmptyQuiz          = errors.New("lesson quiz has no questions")
	ErrMalformedLesson    = errors.New("lesson quiz is malformed")
	ErrAIKeyMissing       = errors.New("AI API key not configured")
)

// ValidationError 请求参数不合法，映射为 400
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError 外部服务（大模型、认证服务）返回非 2xx 或结构异常
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Service, e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Service, e.Err)
	}
	return e.Service + " error"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseError 模型返回的文本不是合法 JSON
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse generated lesson: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
