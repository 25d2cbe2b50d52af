package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lingua_backend/internal/client"
	"lingua_backend/internal/service"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A8C94"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#16858E")).Padding(0, 1)
)

// stageLabels 与 classic 课程目录对应
var stageLabels = map[int]string{
	1: "Basic Vocabulary",
	2: "Simple Phrases",
	3: "Basic Sentences",
	4: "Dialogues",
	5: "Topic Lessons",
}

func stageLabel(stage int) string {
	if l, ok := stageLabels[stage]; ok {
		return l
	}
	return "Review"
}

type session struct {
	api     *client.Client
	machine *client.Machine
	lesson  *client.GeneratedLesson
}

func runPlay(cmd *cobra.Command, args []string) error {
	s := &session{api: client.New(serverURL), machine: client.NewMachine()}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.api.Health(ctx); err != nil {
		return fmt.Errorf("server %s is not reachable: %w", serverURL, err)
	}

	for {
		var (
			ev  client.Event
			err error
		)
		switch s.machine.Current() {
		case client.ViewAuth:
			ev, err = s.auth(ctx)
		case client.ViewOnboarding:
			ev, err = s.onboard(ctx)
		case client.ViewDashboard:
			ev, err = s.dashboard(ctx)
		case client.ViewLesson:
			ev, err = s.takeLesson(ctx)
		case client.ViewProgress:
			ev, err = s.progress(ctx)
		case client.ViewExit:
			fmt.Println(mutedStyle.Render("¡Hasta luego!"))
			return nil
		}

		if errors.Is(err, huh.ErrUserAborted) {
			ev = client.Event{Kind: client.Quit}
		} else if err != nil {
			// 请求失败时停留在当前界面
			fmt.Println(errorStyle.Render(err.Error()))
			continue
		}
		s.machine.Dispatch(ev)
	}
}

func (s *session) auth(ctx context.Context) (client.Event, error) {
	var mode, email, password, name string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(titleStyle.Render("Welcome to Lingua")).
				Options(
					huh.NewOption("Log in", "login"),
					huh.NewOption("Create an account", "signup"),
					huh.NewOption("Quit", "quit"),
				).
				Value(&mode),
		),
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
		).WithHideFunc(func() bool { return mode == "quit" }),
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&name),
		).WithHideFunc(func() bool { return mode != "signup" }),
	)
	if err := form.Run(); err != nil {
		return client.Event{}, err
	}

	if mode == "quit" {
		return client.Event{Kind: client.Quit}, nil
	}
	if mode == "signup" {
		if _, err := s.api.SignUp(ctx, email, password, name); err != nil {
			return client.Event{}, err
		}
	}
	if _, err := s.api.Login(ctx, email, password); err != nil {
		return client.Event{}, err
	}

	view, err := s.api.Profile(ctx)
	if err != nil {
		return client.Event{}, err
	}
	onboarded := view.Profile != nil && view.Profile.Level != nil && view.Progress != nil
	return client.Event{Kind: client.AuthSucceeded, Onboarded: onboarded}, nil
}

func (s *session) onboard(ctx context.Context) (client.Event, error) {
	var level string
	err := huh.NewSelect[string]().
		Title("How much Spanish do you know?").
		Options(
			huh.NewOption("None at all", service.LevelNone),
			huh.NewOption("A few words", service.LevelBeginner),
			huh.NewOption("Some basics", service.LevelLowBeginner),
		).
		Value(&level).
		Run()
	if err != nil {
		return client.Event{}, err
	}

	if err := s.api.Onboard(ctx, level); err != nil {
		return client.Event{}, err
	}
	return client.Event{Kind: client.Onboarded}, nil
}

func (s *session) dashboard(ctx context.Context) (client.Event, error) {
	view, err := s.api.Profile(ctx)
	if err != nil {
		return client.Event{}, err
	}

	if p := view.Profile; p != nil {
		fmt.Println(boxStyle.Render(fmt.Sprintf("%s\nStage %d · %s\nLessons completed: %d · Accuracy: %.0f%%",
			titleStyle.Render("¡Hola, "+p.Name+"!"), p.CurrentStage, stageLabel(p.CurrentStage), p.LessonsCompleted, p.OverallAccuracy)))
	}

	var choice string
	err = huh.NewSelect[string]().
		Title("What next?").
		Options(
			huh.NewOption("Start the next lesson", "lesson"),
			huh.NewOption("View progress", "progress"),
			huh.NewOption("Log out", "logout"),
			huh.NewOption("Quit", "quit"),
		).
		Value(&choice).
		Run()
	if err != nil {
		return client.Event{}, err
	}

	switch choice {
	case "lesson":
		fmt.Println(mutedStyle.Render("Generating your lesson..."))
		lesson, err := s.api.GenerateLesson(ctx)
		if err != nil {
			return client.Event{}, err
		}
		s.lesson = lesson
		return client.Event{Kind: client.StartLesson}, nil
	case "progress":
		return client.Event{Kind: client.ViewProgressRequested}, nil
	case "logout":
		s.api.Logout()
		return client.Event{Kind: client.Logout}, nil
	}
	return client.Event{Kind: client.Quit}, nil
}

func (s *session) takeLesson(ctx context.Context) (client.Event, error) {
	lesson := s.lesson
	if lesson == nil {
		return client.Event{Kind: client.Back}, nil
	}

	quiz, err := lesson.Quiz()
	if err != nil || len(quiz) == 0 {
		fmt.Println(errorStyle.Render("This lesson has no quiz."))
		return client.Event{Kind: client.Back}, nil
	}

	fmt.Println(boxStyle.Render(titleStyle.Render(lesson.Title()) + "\n" + mutedStyle.Render(string(lesson.Lesson))))

	answers := client.NewAnswerSheet(len(quiz))
	groups := make([]*huh.Group, 0, len(quiz))
	for i, q := range quiz {
		opts := make([]huh.Option[int], len(q.Options))
		for j, o := range q.Options {
			opts[j] = huh.NewOption(o, j)
		}
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("%d. %s", i+1, q.Question)).
				Options(opts...).
				Value(&answers[i]),
		))
	}
	if err := huh.NewForm(groups...).Run(); err != nil {
		return client.Event{}, err
	}

	result, err := s.api.SubmitQuiz(ctx, lesson.LessonID, answers)
	if err != nil {
		return client.Event{}, err
	}

	var b strings.Builder
	for i, r := range result.Results {
		mark := successStyle.Render("✓")
		if !r.IsCorrect {
			mark = errorStyle.Render("✗")
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, r.Question)
	}
	if result.Passed {
		fmt.Fprintf(&b, "%s", successStyle.Render(fmt.Sprintf("Score %.0f%% · passed!", result.Score)))
		if result.NewStage != nil {
			fmt.Fprintf(&b, " Now at stage %d (%s).", *result.NewStage, stageLabel(*result.NewStage))
		}
	} else {
		fmt.Fprintf(&b, "%s", errorStyle.Render(fmt.Sprintf("Score %.0f%% · %.0f%% needed to advance.", result.Score, service.PassThreshold)))
	}
	fmt.Println(boxStyle.Render(b.String()))

	s.lesson = nil
	return client.Event{Kind: client.LessonDone}, nil
}

func (s *session) progress(ctx context.Context) (client.Event, error) {
	overview, err := s.api.Progress(ctx)
	if err != nil {
		return client.Event{}, err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Your progress") + "\n")
	if pr := overview.Progress; pr != nil {
		fmt.Fprintf(&b, "Words learned (%d): %s\n", len(pr.WordsLearned), strings.Join(pr.WordsLearned, ", "))
		fmt.Fprintf(&b, "Mistakes to review: %d\n", len(pr.Mistakes))
	}
	for _, q := range overview.RecentQuizzes {
		fmt.Fprintf(&b, "%s  %.0f%%\n", mutedStyle.Render(q.Timestamp.Format("2006-01-02 15:04")), q.Score)
	}
	fmt.Println(boxStyle.Render(b.String()))

	back := true
	if err := huh.NewConfirm().Title("Back to dashboard?").Affirmative("Back").Negative("Quit").Value(&back).Run(); err != nil {
		return client.Event{}, err
	}
	if !back {
		return client.Event{Kind: client.Quit}, nil
	}
	return client.Event{Kind: client.Back}, nil
}
