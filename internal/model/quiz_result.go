package model

import "time"

type QuestionResult struct {
	Question      string `json:"question"`
	UserAnswer    int    `json:"userAnswer"`
	CorrectAnswer int    `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// QuizResult 每次提交一份，键为 quiz_result:<userId>:<unixMillis>
type QuizResult struct {
	UserID    string           `json:"userId"`
	LessonID  string           `json:"lessonId"`
	Score     float64          `json:"score"`
	Answers   []int            `json:"answers"`
	Results   []QuestionResult `json:"results"`
	Timestamp time.Time        `json:"timestamp"`
}
