package service

import (
	"fmt"
	"lingua_backend/internal/model"
	"regexp"
	"strings"
)

// LessonKind 决定课程 content 的 JSON 结构，客户端按此渲染
type LessonKind string

const (
	KindVocabulary LessonKind = "vocabulary"
	KindPhrases    LessonKind = "phrases"
	KindSentences  LessonKind = "sentences"
	KindDialogue   LessonKind = "dialogue"
	KindTopic      LessonKind = "topic"
	KindReview     LessonKind = "review"
)

const (
	CatalogClassic  = "classic"
	CatalogExtended = "extended"
)

const (
	lessonPersona = "You are a Spanish language teacher creating adaptive lessons for complete beginners. "
	lessonSuffix  = "\n\nCRITICAL: All quiz questions and answer options MUST be in ENGLISH only. The student doesn't know Spanish yet." +
		"\n\nIMPORTANT: Respond with ONLY valid JSON, no other text. Do not use markdown code blocks."

	reviewWordLimit    = 10
	reviewMistakeLimit = 5
)

// StageTemplate 单个阶段的课程提示词
type StageTemplate struct {
	Kind    LessonKind
	Subject string
	Title   string
	Include []string
	// 示例 JSON 中条目的占位说明，例如 "color"、"spanish phrase"
	ItemHint string
	Topic    string
	QuizSize int
}

var reviewTemplate = StageTemplate{
	Kind:    KindReview,
	Subject: "Spanish review lesson combining vocabulary from previous stages",
	Title:   "Spanish Review",
	Include: []string{
		"Review of 8-10 previously learned words/phrases",
		"Simple practice exercises",
	},
	ItemHint: "review word",
	QuizSize: 5,
}

var vocabularyTemplates = []StageTemplate{
	{KindVocabulary, "SUPER BASIC Spanish vocabulary lesson for absolute beginners", "Basic Greetings", []string{
		"4-5 extremely simple greeting words (hola, adiós, gracias, por favor, sí, no)",
		"Brief pronunciation guide",
		"Simple example sentence for each word",
	}, "spanish word", "", 3},
	{KindVocabulary, "basic Spanish numbers lesson", "Numbers 1-10", []string{
		"Numbers 1-10 in Spanish",
		"Brief pronunciation guide",
		"Simple examples with numbers",
	}, "number", "", 3},
	{KindVocabulary, "Spanish colors lesson", "Basic Colors", []string{
		"6 basic colors (red, blue, green, yellow, black, white)",
		"Brief pronunciation guide",
		"Simple examples with colors",
	}, "color", "", 3},
	{KindVocabulary, "Spanish family members lesson", "Family Members", []string{
		"6 basic family terms (mother, father, brother, sister, family, friend)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "family term", "", 3},
	{KindVocabulary, "Spanish food and drinks lesson", "Food & Drinks", []string{
		"6 common food/drink items (water, bread, milk, apple, coffee, rice)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "food/drink", "", 3},
	{KindVocabulary, "Spanish animals lesson", "Animals", []string{
		"6 common animals (dog, cat, bird, fish, horse, cow)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "animal", "", 3},
	{KindVocabulary, "Spanish household items lesson", "Household Items", []string{
		"6 common household items (house, door, window, table, chair, bed)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "item", "", 3},
	{KindVocabulary, "Spanish clothing lesson", "Clothing", []string{
		"6 clothing items (shirt, pants, shoes, hat, dress, jacket)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "clothing", "", 3},
	{KindVocabulary, "Spanish weather and seasons lesson", "Weather & Seasons", []string{
		"6 weather/seasons terms (sun, rain, hot, cold, summer, winter)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "weather term", "", 3},
	{KindVocabulary, "Spanish time and calendar lesson", "Time & Calendar", []string{
		"Days of the week",
		"Basic time words (today, tomorrow, morning, night)",
		"Brief pronunciation guide",
		"Simple examples",
	}, "time/calendar", "", 3},
}

var phraseTemplates = []StageTemplate{
	{KindPhrases, "basic Spanish phrases lesson", "Greeting Phrases", []string{
		"4-5 simple greeting phrases (Good morning, How are you?, Thank you, You're welcome, Goodbye)",
		"Brief pronunciation guide",
		"Context for when to use each phrase",
	}, "spanish phrase", "", 3},
	{KindPhrases, "Spanish polite expressions lesson", "Polite Expressions", []string{
		"4-5 polite phrases (Please, Thank you, Excuse me, I'm sorry, No problem)",
		"Brief pronunciation guide",
		"Context for when to use each phrase",
	}, "spanish phrase", "", 3},
	{KindPhrases, "Spanish basic questions lesson", "Basic Questions", []string{
		"4-5 simple questions (What is your name?, How old are you?, Where are you from?, Do you speak English?)",
		"Brief pronunciation guide",
		"Context for when to use each phrase",
	}, "spanish question", "", 3},
	{KindPhrases, "Spanish common expressions lesson", "Common Expressions", []string{
		"4-5 common expressions (I don't understand, Can you repeat that?, I don't know, That's good, I like it)",
		"Brief pronunciation guide",
		"Context for when to use each phrase",
	}, "spanish expression", "", 3},
	{KindPhrases, "Spanish travel phrases lesson", "Travel Phrases", []string{
		"4-5 travel-related phrases (Where is...?, How much does it cost?, I need help, The bill please, Goodbye)",
		"Brief pronunciation guide",
		"Context for when to use each phrase",
	}, "spanish phrase", "", 3},
}

var sentenceTemplates = []StageTemplate{
	{KindSentences, "Spanish basic sentence patterns lesson", "Basic 'I am' Sentences", []string{
		`4-5 very simple sentence patterns using "I am..." (I am tired, I am happy, I am here)`,
		"Simple grammar explanation",
		"Translation and breakdown",
	}, "sentence pattern", "", 3},
	{KindSentences, "Spanish possession sentences lesson", "Possession Sentences", []string{
		"4-5 simple sentences about possession (I have..., You have..., My name is...)",
		"Simple grammar explanation",
		"Translation and breakdown",
	}, "sentence pattern", "", 3},
	{KindSentences, "Spanish likes/dislikes sentences lesson", "Likes & Dislikes", []string{
		"4-5 simple sentences about preferences (I like..., I don't like..., I want...)",
		"Simple grammar explanation",
		"Translation and breakdown",
	}, "sentence pattern", "", 3},
	{KindSentences, "Spanish location sentences lesson", "Location Sentences", []string{
		"4-5 simple sentences about location (I am in..., You are at..., It is on...)",
		"Simple grammar explanation",
		"Translation and breakdown",
	}, "sentence pattern", "", 3},
	{KindSentences, "Spanish daily routine sentences lesson", "Daily Routine Sentences", []string{
		"4-5 simple sentences about daily activities (I eat..., I work..., I sleep...)",
		"Simple grammar explanation",
		"Translation and breakdown",
	}, "sentence pattern", "", 3},
}

var greetingDialogue = StageTemplate{KindDialogue, "Spanish greeting dialogue lesson", "Greeting Dialogue", []string{
	"A very short conversation (2-3 exchanges) between two people meeting",
	"Translation for each line",
	"Context (meeting someone new)",
}, "Two people meeting for the first time", "", 3}

var foodTopic = StageTemplate{KindTopic, "topic-based Spanish lesson about food", "Food Topic", []string{
	"8-10 food-related vocabulary words",
	"3-4 useful phrases about ordering food",
	"A short paragraph about food preferences",
}, "", "food", 4}

// Curriculum 阶段号到课程模板的映射，未定义的阶段使用复习模板
type Curriculum struct {
	templates map[int]StageTemplate
}

// NewCurriculum classic: 阶段 1-5 依次对应五种课程结构；extended: 词汇 1-10，短语 11-15，句型 16-20，对话 21，主题 26
func NewCurriculum(catalog string) *Curriculum {
	t := make(map[int]StageTemplate)
	switch catalog {
	case CatalogExtended:
		for i, tpl := range vocabularyTemplates {
			t[1+i] = tpl
		}
		for i, tpl := range phraseTemplates {
			t[11+i] = tpl
		}
		for i, tpl := range sentenceTemplates {
			t[16+i] = tpl
		}
		t[21] = greetingDialogue
		t[26] = foodTopic
	default:
		t[1] = vocabularyTemplates[0]
		t[2] = phraseTemplates[0]
		t[3] = sentenceTemplates[0]
		t[4] = greetingDialogue
		t[5] = foodTopic
	}
	return &Curriculum{templates: t}
}

func (c *Curriculum) Template(stage int) StageTemplate {
	if tpl, ok := c.templates[stage]; ok {
		return tpl
	}
	return reviewTemplate
}

// Prompt 生成发送给模型的完整提示词
func (c *Curriculum) Prompt(stage int, wordsLearned []string, mistakes []model.Mistake) string {
	tpl := c.Template(stage)
	return lessonPersona + tpl.render(stage, wordsLearned, mistakes) + lessonSuffix
}

func (t StageTemplate) render(stage int, wordsLearned []string, mistakes []model.Mistake) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s. Include:\n", t.Subject)
	for _, line := range t.Include {
		b.WriteString("- " + line + "\n")
	}

	if t.Kind == KindReview {
		if words := tail(wordsLearned, reviewWordLimit); len(words) > 0 {
			b.WriteString("- Prioritise these words the student has already learned: " + strings.Join(words, ", ") + "\n")
		}
		if recent := recentMistakes(mistakes, reviewMistakeLimit); len(recent) > 0 {
			b.WriteString("- Revisit the topics of these questions the student answered incorrectly: " + strings.Join(recent, "; ") + "\n")
		}
	}

	quizKind := "multiple choice"
	switch t.Kind {
	case KindDialogue:
		quizKind = "comprehension"
	case KindTopic, KindReview:
		quizKind = "comprehensive"
	}
	fmt.Fprintf(&b, "- A %d-question %s quiz in ENGLISH\n\n", t.QuizSize, quizKind)

	b.WriteString("Format as JSON with this structure:\n")
	b.WriteString(t.structure(stage))
	b.WriteString("\n\nIMPORTANT: Quiz in ENGLISH only.")
	return b.String()
}

const quizShape = `  "quiz": [
    {"question": "ENGLISH question", "options": ["English A", "English B", "English C", "English D"], "correct": 0}
  ]`

// structure 返回该课程结构的 JSON 示例
func (t StageTemplate) structure(stage int) string {
	var content string
	switch t.Kind {
	case KindPhrases:
		content = fmt.Sprintf(`  "content": [
    {"phrase": %q, "translation": "english", "pronunciation": "guide", "context": "when to use"}
  ],`, t.ItemHint)
	case KindSentences:
		content = fmt.Sprintf(`  "content": [
    {"pattern": %q, "example": "spanish example", "translation": "english", "explanation": "simple grammar"}
  ],`, t.ItemHint)
	case KindDialogue:
		content = fmt.Sprintf(`  "content": {
    "context": %q,
    "dialogue": [
      {"speaker": "Person A", "spanish": "text", "english": "translation"}
    ]
  },`, t.ItemHint)
	case KindTopic:
		content = fmt.Sprintf(`  "topic": %q,
  "content": {
    "vocabulary": [{"word": "spanish", "translation": "english"}],
    "phrases": [{"phrase": "spanish", "translation": "english"}],
    "paragraph": {"spanish": "text", "english": "translation"}
  },`, t.Topic)
	case KindReview:
		content = fmt.Sprintf(`  "content": [
    {"word": %q, "translation": "english", "pronunciation": "guide", "example": "sentence"}
  ],`, t.ItemHint)
	default:
		content = fmt.Sprintf(`  "content": [
    {"word": %q, "translation": "english", "pronunciation": "guide", "example": "simple example"}
  ],`, t.ItemHint)
	}

	return fmt.Sprintf("{\n  \"title\": %q,\n  \"stage\": %d,\n%s\n%s\n}", t.Title, stage, content, quizShape)
}

func tail(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func recentMistakes(mistakes []model.Mistake, n int) []string {
	if len(mistakes) > n {
		mistakes = mistakes[len(mistakes)-n:]
	}
	out := make([]string, 0, len(mistakes))
	for _, m := range mistakes {
		out = append(out, fmt.Sprintf("%q", m.Question))
	}
	return out
}

var codeFence = regexp.MustCompile("```(?:json)?\n?")

// StripCodeFences 去掉模型有时仍会输出的 markdown 代码块标记
func StripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}
