package service

import (
	"errors"
	"lingua_backend/internal/model"
	"lingua_backend/internal/util"
	"time"
)

// PassThreshold 通过测验的最低分数
const PassThreshold = 75.0

// UnansweredAnswer 客户端未作答时的占位值
const UnansweredAnswer = -1

// Grade 一次测验的评分结果
type Grade struct {
	Results []model.QuestionResult
	Correct int
	Total   int
	Score   float64
	Passed  bool
}

// Mistakes 答错的题目数
func (g *Grade) Mistakes() int {
	return g.Total - g.Correct
}

// GradeQuiz 逐题比对答案。答案个数必须与题目数一致且不能包含未作答项，
// 超出选项范围的下标按答错处理。
func GradeQuiz(quiz []model.QuizQuestion, answers []int) (*Grade, error) {
	if len(quiz) == 0 {
		return nil, util.ErrEmptyQuiz
	}
	if len(answers) != len(quiz) {
		return nil, util.ErrInvalidAnswers
	}
	for _, a := range answers {
		if a < 0 {
			return nil, util.ErrInvalidAnswers
		}
	}

	g := &Grade{
		Results: make([]model.QuestionResult, len(quiz)),
		Total:   len(quiz),
	}
	for i, q := range quiz {
		ok := answers[i] == q.Correct
		if ok {
			g.Correct++
		}
		g.Results[i] = model.QuestionResult{
			Question:      q.Question,
			UserAnswer:    answers[i],
			CorrectAnswer: q.Correct,
			IsCorrect:     ok,
		}
	}

	g.Score = 100 * float64(g.Correct) / float64(g.Total)
	g.Passed = g.Score >= PassThreshold
	return g, nil
}

// ApplyToProfile 累加完成数，按增量均值更新正确率，通过时阶段加一（不超过 maxStage）
func ApplyToProfile(p *model.Profile, score float64, passed bool, maxStage int) {
	prior := float64(p.LessonsCompleted)
	p.LessonsCompleted++
	p.OverallAccuracy = (p.OverallAccuracy*prior + score) / float64(p.LessonsCompleted)

	if passed && p.CurrentStage < maxStage {
		p.CurrentStage++
	}
}

// ApplyToProgress 记录完成的课程、新词汇（去重）以及每道错题
func ApplyToProgress(pr *model.Progress, lessonID string, words []string, g *Grade, now time.Time) {
	pr.CompletedLessons = append(pr.CompletedLessons, lessonID)

	for _, w := range words {
		if !pr.HasWord(w) {
			pr.WordsLearned = append(pr.WordsLearned, w)
		}
	}

	for _, r := range g.Results {
		if !r.IsCorrect {
			pr.Mistakes = append(pr.Mistakes, model.Mistake{Question: r.Question, Timestamp: now})
		}
	}
}

// AdvanceOnSubmission 评分并返回更新后的 profile、progress 副本，入参不会被修改
func AdvanceOnSubmission(
	profile *model.Profile,
	progress *model.Progress,
	lesson *model.Lesson,
	lessonID string,
	answers []int,
	now time.Time,
	maxStage int,
) (*model.Profile, *model.Progress, *Grade, error) {
	quiz, err := lesson.Quiz()
	if err != nil {
		return nil, nil, nil, quizError(err)
	}

	g, err := GradeQuiz(quiz, answers)
	if err != nil {
		return nil, nil, nil, err
	}

	p := *profile
	ApplyToProfile(&p, g.Score, g.Passed, maxStage)

	pr := model.Progress{
		WordsLearned:     append([]string{}, progress.WordsLearned...),
		Mistakes:         append([]model.Mistake{}, progress.Mistakes...),
		CompletedLessons: append([]string{}, progress.CompletedLessons...),
	}
	ApplyToProgress(&pr, lessonID, lesson.Words(), g, now)

	return &p, &pr, g, nil
}

func quizError(err error) error {
	if errors.Is(err, model.ErrNoQuiz) {
		return util.ErrEmptyQuiz
	}
	return util.ErrMalformedLesson
}
