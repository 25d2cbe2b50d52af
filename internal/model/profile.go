package model

import "time"

// Profile 每个用户一份的学习元数据，键为 profile:<userId>
type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	// 入门时自评水平，注册后为 null
	Level            *string   `json:"level"`
	CurrentStage     int       `json:"currentStage"`
	LessonsCompleted int       `json:"lessonsCompleted"`
	OverallAccuracy  float64   `json:"overallAccuracy"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewProfile(userID, name, email string, now time.Time) *Profile {
	return &Profile{
		UserID:       userID,
		Name:         name,
		Email:        email,
		CurrentStage: 1,
		CreatedAt:    now,
	}
}
