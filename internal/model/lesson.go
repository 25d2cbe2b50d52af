package model

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNoQuiz = errors.New("lesson content has no quiz")

// QuizQuestion 模型生成的单选题，Correct 为正确选项下标
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// Lesson 生成后不可变，键为 lesson:<userId>:<unixMillis>
type Lesson struct {
	UserID    string          `json:"userId"`
	Stage     int             `json:"stage"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

type lessonEnvelope struct {
	Content json.RawMessage `json:"content"`
	Quiz    json.RawMessage `json:"quiz"`
}

// Quiz 解析课程内容中的 quiz 数组
func (l *Lesson) Quiz() ([]QuizQuestion, error) {
	var env lessonEnvelope
	if err := json.Unmarshal(l.Content, &env); err != nil {
		return nil, err
	}
	if len(env.Quiz) == 0 || string(env.Quiz) == "null" {
		return nil, ErrNoQuiz
	}
	var quiz []QuizQuestion
	if err := json.Unmarshal(env.Quiz, &quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Words 返回 content 数组中各项的 word 字段。
// content 不是数组、某项不是对象或没有字符串 word 时跳过，不报错。
func (l *Lesson) Words() []string {
	var env lessonEnvelope
	if err := json.Unmarshal(l.Content, &env); err != nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(env.Content, &items); err != nil {
		return nil
	}

	var words []string
	for _, raw := range items {
		var item map[string]json.RawMessage
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		var word string
		if err := json.Unmarshal(item["word"], &word); err != nil || word == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}
