package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lingua_backend/internal/config"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type repos struct {
	store    kvstore.Store
	profile  *repository.ProfileRepository
	progress *repository.ProgressRepository
	lesson   *repository.LessonRepository
	quiz     *repository.QuizResultRepository
	authUser *repository.AuthUserRepository
}

func newRepos() *repos {
	s := kvstore.NewMemoryStore()
	return &repos{
		store:    s,
		profile:  repository.NewProfileRepository(s),
		progress: repository.NewProgressRepository(s),
		lesson:   repository.NewLessonRepository(s),
		quiz:     repository.NewQuizResultRepository(s),
		authUser: repository.NewAuthUserRepository(s),
	}
}

func (r *repos) onboarded(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.profile.Create(ctx, model.NewProfile(userID, "Ana", "ana@example.com", time.Now())))
	require.NoError(t, r.progress.Reset(ctx, userID))
}

const greetingLesson = `{
  "title": "Basic Greetings",
  "stage": 1,
  "content": [
    {"word": "hola", "translation": "hello"},
    {"word": "adiós", "translation": "goodbye"}
  ],
  "quiz": [
    {"question": "What does hola mean?", "options": ["Hello","Bye","Yes","No"], "correct": 0},
    {"question": "What does adiós mean?", "options": ["Hello","Bye","Yes","No"], "correct": 1},
    {"question": "What does sí mean?", "options": ["Hello","Bye","Yes","No"], "correct": 2},
    {"question": "What does no mean?", "options": ["Hello","Bye","Yes","No"], "correct": 3}
  ]
}`

func TestLessonService_Generate(t *testing.T) {
	r := newRepos()
	r.onboarded(t, "u1")
	gen := &fakeGenerator{text: "```json\n" + greetingLesson + "\n```"}
	svc := NewLessonService(r.profile, r.progress, r.lesson, gen, NewCurriculum(CatalogClassic), nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	id, content, err := svc.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "lesson:u1:1700000000000", id)
	assert.JSONEq(t, greetingLesson, string(content))

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Basic Greetings")

	saved, err := r.lesson.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Stage)
	assert.Equal(t, "u1", saved.UserID)
}

func TestLessonService_GenerateErrors(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		r := newRepos()
		svc := NewLessonService(r.profile, r.progress, r.lesson, &fakeGenerator{}, NewCurriculum(CatalogClassic), nil)
		_, _, err := svc.Generate(context.Background(), "ghost")
		assert.ErrorIs(t, err, util.ErrProfileNotFound)
	})

	t.Run("profile without progress", func(t *testing.T) {
		r := newRepos()
		require.NoError(t, r.profile.Create(context.Background(), model.NewProfile("u1", "Ana", "a@b.c", time.Now())))
		svc := NewLessonService(r.profile, r.progress, r.lesson, &fakeGenerator{}, NewCurriculum(CatalogClassic), nil)
		_, _, err := svc.Generate(context.Background(), "u1")
		assert.ErrorIs(t, err, util.ErrProfileNotFound)
	})

	t.Run("upstream failure", func(t *testing.T) {
		r := newRepos()
		r.onboarded(t, "u1")
		upstream := &util.UpstreamError{Service: "Gemini API", Status: 500, Body: "boom"}
		svc := NewLessonService(r.profile, r.progress, r.lesson, &fakeGenerator{err: upstream}, NewCurriculum(CatalogClassic), nil)
		_, _, err := svc.Generate(context.Background(), "u1")
		var got *util.UpstreamError
		assert.True(t, errors.As(err, &got))
	})

	t.Run("not json", func(t *testing.T) {
		r := newRepos()
		r.onboarded(t, "u1")
		svc := NewLessonService(r.profile, r.progress, r.lesson, &fakeGenerator{text: "Here is your lesson!"}, NewCurriculum(CatalogClassic), nil)
		_, _, err := svc.Generate(context.Background(), "u1")
		var parseErr *util.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "Here is your lesson!", parseErr.Raw)

		lessons, err := r.lesson.ListByUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Empty(t, lessons)
	})
}

func TestLessonService_ArchivesToLocalStorage(t *testing.T) {
	r := newRepos()
	r.onboarded(t, "u1")
	dir := t.TempDir()
	archive, err := NewArchiveService(context.Background(), &config.StorageConfig{Type: util.StorageLocal, LocalPath: dir})
	require.NoError(t, err)

	svc := NewLessonService(r.profile, r.progress, r.lesson, &fakeGenerator{text: greetingLesson}, NewCurriculum(CatalogClassic), archive)
	svc.now = func() time.Time { return time.UnixMilli(42) }

	id, _, err := svc.Generate(context.Background(), "u1")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "lessons", "u1", "42.json"))
	require.NoError(t, err)
	var doc struct {
		LessonID string          `json:"lessonId"`
		Stage    int             `json:"stage"`
		Content  json.RawMessage `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, id, doc.LessonID)
	assert.Equal(t, 1, doc.Stage)
	assert.JSONEq(t, greetingLesson, string(doc.Content))
}

func TestArchiveService_Disabled(t *testing.T) {
	archive, err := NewArchiveService(context.Background(), &config.StorageConfig{Type: util.StorageNone})
	require.NoError(t, err)
	assert.False(t, archive.Enabled())

	url, err := archive.ArchiveLesson(context.Background(), "lesson:u1:1", &model.Lesson{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, url)
}

func saveLesson(t *testing.T, r *repos, userID string, at int64) string {
	t.Helper()
	id, err := r.lesson.Create(context.Background(), &model.Lesson{
		UserID:    userID,
		Stage:     1,
		Content:   json.RawMessage(greetingLesson),
		CreatedAt: time.UnixMilli(at),
	})
	require.NoError(t, err)
	return id
}

func TestQuizService_Submit(t *testing.T) {
	r := newRepos()
	r.onboarded(t, "u1")
	lessonID := saveLesson(t, r, "u1", 1)
	svc := NewQuizService(r.profile, r.progress, r.lesson, r.quiz, 5)

	res, err := svc.Submit(context.Background(), "u1", lessonID, []int{0, 1, 9, 3})
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Score)
	assert.True(t, res.Passed)
	require.NotNil(t, res.NewStage)
	assert.Equal(t, 2, *res.NewStage)
	assert.Len(t, res.Results, 4)

	profile, progress, err := NewUserService(nil, r.profile, r.progress, r.quiz).GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.LessonsCompleted)
	assert.Equal(t, 75.0, profile.OverallAccuracy)
	assert.Equal(t, []string{"hola", "adiós"}, progress.WordsLearned)
	assert.Equal(t, []string{lessonID}, progress.CompletedLessons)
	require.Len(t, progress.Mistakes, 1)
	assert.Equal(t, "What does sí mean?", progress.Mistakes[0].Question)

	recent, err := r.quiz.ListRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, []int{0, 1, 9, 3}, recent[0].Answers)
}

func TestQuizService_SubmitErrors(t *testing.T) {
	r := newRepos()
	r.onboarded(t, "u1")
	lessonID := saveLesson(t, r, "u1", 1)
	svc := NewQuizService(r.profile, r.progress, r.lesson, r.quiz, 5)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "lesson:u1:999", []int{0, 0, 0, 0})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	_, err = svc.Submit(ctx, "u1", "profile:u1", []int{0, 0, 0, 0})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	_, err = svc.Submit(ctx, "intruder", lessonID, []int{0, 0, 0, 0})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	_, err = svc.Submit(ctx, "u1", lessonID, []int{0, 1, UnansweredAnswer, 3})
	assert.ErrorIs(t, err, util.ErrInvalidAnswers)

	_, err = svc.Submit(ctx, "u1", lessonID, []int{0, 1})
	assert.ErrorIs(t, err, util.ErrInvalidAnswers)

	recent, err := r.quiz.ListRecent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestQuizService_GradesWithoutProfile(t *testing.T) {
	r := newRepos()
	lessonID := saveLesson(t, r, "u1", 1)
	svc := NewQuizService(r.profile, r.progress, r.lesson, r.quiz, 5)

	res, err := svc.Submit(context.Background(), "u1", lessonID, []int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Score)
	assert.Nil(t, res.NewStage)

	// 只有 profile 没有 progress 时不更新，返回当前阶段
	require.NoError(t, r.profile.Create(context.Background(), model.NewProfile("u1", "Ana", "a@b.c", time.Now())))
	res, err = svc.Submit(context.Background(), "u1", lessonID, []int{0, 1, 2, 3})
	require.NoError(t, err)
	require.NotNil(t, res.NewStage)
	assert.Equal(t, 1, *res.NewStage)

	profile, err := r.profile.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.LessonsCompleted)
}

func TestQuizService_ConcurrentSubmissionsKeepEveryUpdate(t *testing.T) {
	r := newRepos()
	r.onboarded(t, "u1")
	svc := NewQuizService(r.profile, r.progress, r.lesson, r.quiz, 5)

	const n = 20
	ids := make([]string, n)
	for i := range ids {
		ids[i] = saveLesson(t, r, "u1", int64(100+i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers := []int{0, 1, 2, 3}
			if i%2 == 1 {
				answers = []int{0, 1, 0, 0}
			}
			_, err := svc.Submit(context.Background(), "u1", ids[i], answers)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	profile, err := r.profile.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	progress, err := r.progress.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, n, profile.LessonsCompleted)
	assert.InDelta(t, 75.0, profile.OverallAccuracy, 1e-9)
	assert.Equal(t, 5, profile.CurrentStage)
	assert.Len(t, progress.CompletedLessons, n)
	assert.Len(t, progress.Mistakes, n)
	assert.Equal(t, []string{"hola", "adiós"}, progress.WordsLearned)
}

func TestUserService_SignUpOnboardProgress(t *testing.T) {
	r := newRepos()
	auth := NewLocalAuthProvider(r.authUser, config.JWTConfig{Secret: "secret", Issuer: "lingua", ExpireTime: time.Hour})
	svc := NewUserService(auth, r.profile, r.progress, r.quiz)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "ana@example.com", "hunter22", "Ana")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	profile, progress, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.Level)
	assert.Equal(t, 1, profile.CurrentStage)
	assert.Nil(t, progress)

	assert.Error(t, svc.Onboard(ctx, user.ID, "expert"))
	require.NoError(t, svc.Onboard(ctx, user.ID, LevelBeginner))

	overview, err := svc.GetProgress(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, overview.Profile.Level)
	assert.Equal(t, LevelBeginner, *overview.Profile.Level)
	assert.Empty(t, overview.Progress.WordsLearned)
	assert.NotNil(t, overview.RecentQuizzes)

	// 重新入门会清空进度
	_, err = r.progress.Update(ctx, user.ID, func(p *model.Progress) error {
		p.WordsLearned = append(p.WordsLearned, "hola")
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, svc.Onboard(ctx, user.ID, LevelNone))
	_, progress, err = svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, progress.WordsLearned)

	// 没有 profile 也能入门
	require.NoError(t, svc.Onboard(ctx, "no-profile", LevelLowBeginner))
	_, progress, err = svc.GetProfile(ctx, "no-profile")
	require.NoError(t, err)
	assert.NotNil(t, progress)
}

func TestLocalAuthProvider(t *testing.T) {
	r := newRepos()
	auth := NewLocalAuthProvider(r.authUser, config.JWTConfig{Secret: "secret", Issuer: "lingua", ExpireTime: time.Hour})
	ctx := context.Background()

	tests := []struct {
		name, email, password, userName string
	}{
		{"missing email", "", "hunter22", "Ana"},
		{"bad email", "not-an-email", "hunter22", "Ana"},
		{"short password", "ana@example.com", "123", "Ana"},
		{"missing name", "ana@example.com", "hunter22", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.SignUp(ctx, tt.email, tt.password, tt.userName)
			var v *util.ValidationError
			assert.True(t, errors.As(err, &v))
		})
	}

	user, err := auth.SignUp(ctx, "Ana@Example.com", "hunter22", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = auth.SignUp(ctx, "ana@example.com", "other-pass", "Ana 2")
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = auth.SignIn(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = auth.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	session, err := auth.SignIn(ctx, "ana@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	got, err := auth.ValidateToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Ana", got.Name)

	_, err = auth.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}
