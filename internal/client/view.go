package client

import (
	"errors"
	"lingua_backend/internal/service"
)

var ErrIncompleteQuiz = errors.New("answer every question before submitting")

// AllAnswered 每题都已选择选项
func AllAnswered(answers []int) bool {
	if len(answers) == 0 {
		return false
	}
	for _, a := range answers {
		if a == service.UnansweredAnswer {
			return false
		}
	}
	return true
}

// NewAnswerSheet 返回全部未作答的答题卡
func NewAnswerSheet(n int) []int {
	answers := make([]int, n)
	for i := range answers {
		answers[i] = service.UnansweredAnswer
	}
	return answers
}

type View int

const (
	ViewAuth View = iota
	ViewOnboarding
	ViewDashboard
	ViewLesson
	ViewProgress
	ViewExit
)

func (v View) String() string {
	switch v {
	case ViewAuth:
		return "auth"
	case ViewOnboarding:
		return "onboarding"
	case ViewDashboard:
		return "dashboard"
	case ViewLesson:
		return "lesson"
	case ViewProgress:
		return "progress"
	case ViewExit:
		return "exit"
	}
	return "unknown"
}

type EventKind int

const (
	// AuthSucceeded 登录或注册完成，Onboarded 表示账号已有自评水平
	AuthSucceeded EventKind = iota
	Onboarded
	StartLesson
	LessonDone
	ViewProgressRequested
	Back
	Logout
	Quit
)

type Event struct {
	Kind      EventKind
	Onboarded bool
}

// Machine 界面状态机，只有完成类事件才会切换界面
type Machine struct {
	current View
}

func NewMachine() *Machine {
	return &Machine{current: ViewAuth}
}

func (m *Machine) Current() View {
	return m.current
}

// Dispatch 返回切换后的界面。当前界面不接受的事件被忽略
func (m *Machine) Dispatch(e Event) View {
	if e.Kind == Quit {
		m.current = ViewExit
		return m.current
	}

	switch m.current {
	case ViewAuth:
		if e.Kind == AuthSucceeded {
			if e.Onboarded {
				m.current = ViewDashboard
			} else {
				m.current = ViewOnboarding
			}
		}
	case ViewOnboarding:
		switch e.Kind {
		case Onboarded:
			m.current = ViewDashboard
		case Logout:
			m.current = ViewAuth
		}
	case ViewDashboard:
		switch e.Kind {
		case StartLesson:
			m.current = ViewLesson
		case ViewProgressRequested:
			m.current = ViewProgress
		case Logout:
			m.current = ViewAuth
		}
	case ViewLesson:
		if e.Kind == LessonDone || e.Kind == Back {
			m.current = ViewDashboard
		}
	case ViewProgress:
		if e.Kind == Back {
			m.current = ViewDashboard
		}
	}
	return m.current
}
