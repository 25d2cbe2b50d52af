package repository

import (
	"fmt"
	"strings"
	"time"
)

const (
	profilePrefix    = "profile:"
	progressPrefix   = "progress:"
	lessonPrefix     = "lesson:"
	quizResultPrefix = "quiz_result:"
	authUserPrefix   = "auth_user:"
)

func ProfileKey(userID string) string {
	return profilePrefix + userID
}

func ProgressKey(userID string) string {
	return progressPrefix + userID
}

// LessonKey 也是对外暴露的 lessonId
func LessonKey(userID string, at time.Time) string {
	return fmt.Sprintf("%s%s:%d", lessonPrefix, userID, at.UnixMilli())
}

func LessonPrefix(userID string) string {
	return lessonPrefix + userID + ":"
}

func QuizResultKey(userID string, at time.Time) string {
	return fmt.Sprintf("%s%s:%d", quizResultPrefix, userID, at.UnixMilli())
}

func QuizResultPrefix(userID string) string {
	return quizResultPrefix + userID + ":"
}

func AuthUserKey(email string) string {
	return authUserPrefix + strings.ToLower(strings.TrimSpace(email))
}
