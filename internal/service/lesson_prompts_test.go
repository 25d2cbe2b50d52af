package service

import (
	"strings"
	"testing"
	"time"

	"lingua_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCurriculum_ClassicStages(t *testing.T) {
	c := NewCurriculum(CatalogClassic)

	want := map[int]LessonKind{
		1: KindVocabulary,
		2: KindPhrases,
		3: KindSentences,
		4: KindDialogue,
		5: KindTopic,
		6: KindReview,
		0: KindReview,
	}
	for stage, kind := range want {
		assert.Equal(t, kind, c.Template(stage).Kind, "stage %d", stage)
	}
}

func TestCurriculum_ExtendedStages(t *testing.T) {
	c := NewCurriculum(CatalogExtended)

	assert.Equal(t, "Basic Colors", c.Template(3).Title)
	assert.Equal(t, KindVocabulary, c.Template(10).Kind)
	assert.Equal(t, KindPhrases, c.Template(15).Kind)
	assert.Equal(t, KindSentences, c.Template(16).Kind)
	assert.Equal(t, KindDialogue, c.Template(21).Kind)
	assert.Equal(t, KindReview, c.Template(22).Kind)
	assert.Equal(t, KindTopic, c.Template(26).Kind)
	assert.Equal(t, KindReview, c.Template(31).Kind)
}

func TestCurriculum_Prompt(t *testing.T) {
	c := NewCurriculum(CatalogClassic)
	prompt := c.Prompt(1, nil, nil)

	assert.True(t, strings.HasPrefix(prompt, "You are a Spanish language teacher creating adaptive lessons for complete beginners. Generate a SUPER BASIC"))
	assert.Contains(t, prompt, "- A 3-question multiple choice quiz in ENGLISH")
	assert.Contains(t, prompt, `"title": "Basic Greetings"`)
	assert.Contains(t, prompt, `"stage": 1,`)
	assert.Contains(t, prompt, `{"word": "spanish word"`)
	assert.True(t, strings.HasSuffix(prompt, "Do not use markdown code blocks."))

	dialogue := c.Prompt(4, nil, nil)
	assert.Contains(t, dialogue, "3-question comprehension quiz")
	assert.Contains(t, dialogue, `"dialogue": [`)
	assert.Contains(t, dialogue, `"stage": 4,`)

	topic := c.Prompt(5, nil, nil)
	assert.Contains(t, topic, `"topic": "food"`)
	assert.Contains(t, topic, "4-question comprehensive quiz")
}

func TestCurriculum_ReviewIsPersonalised(t *testing.T) {
	c := NewCurriculum(CatalogClassic)

	var words []string
	for i := 0; i < 12; i++ {
		words = append(words, "w"+string(rune('a'+i)))
	}
	var mistakes []model.Mistake
	for i := 0; i < 7; i++ {
		mistakes = append(mistakes, model.Mistake{Question: "q" + string(rune('1'+i)), Timestamp: time.Now()})
	}

	prompt := c.Prompt(9, words, mistakes)
	assert.Contains(t, prompt, `"stage": 9,`)
	assert.Contains(t, prompt, "5-question comprehensive quiz")
	assert.Contains(t, prompt, "wc, wd, we, wf, wg, wh, wi, wj, wk, wl")
	assert.NotContains(t, prompt, "wa,")
	assert.Contains(t, prompt, `"q3"; "q4"; "q5"; "q6"; "q7"`)
	assert.NotContains(t, prompt, `"q2"`)

	plain := c.Prompt(9, nil, nil)
	assert.NotContains(t, plain, "already learned")
	assert.NotContains(t, plain, "answered incorrectly")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in))
	}
}
