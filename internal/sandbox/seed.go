package sandbox

import "github.com/abhisek/lingoquiz/internal/quiz"

// DemoQuizID identifies the seeded quiz.
const DemoQuizID = "demo-daily-routines"

var demoTrueFalseKey = map[string]bool{
	"dr-tf-1": true,
}

// DemoQuiz returns a short quiz with one question of every type.
func DemoQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:                  DemoQuizID,
		Title:               "Daily Routines",
		NavigationMode:      quiz.NavFree,
		HasTimer:            true,
		TimeLimitSeconds:    600,
		WarningTimeSeconds:  60,
		PassingScore:        60,
		MaxAttempts:         0,
		AllowQuestionPicker: true,
		Questions: []quiz.Question{
			{
				ID:     "dr-mc-1",
				Type:   quiz.MultipleChoice,
				Text:   "Which sentence is correct?",
				Points: 10,
				Options: []quiz.Option{
					{ID: "a", Text: "She go to work at eight."},
					{ID: "b", Text: "She goes to work at eight.", IsCorrect: true},
					{ID: "c", Text: "She going to work at eight."},
				},
			},
			{
				ID:            "dr-fib-1",
				Type:          quiz.FillInTheBlank,
				Text:          "I _____ coffee every _____.",
				Points:        10,
				CorrectBlanks: []string{"drink", "morning"},
			},
			{
				ID:                      "dr-lis-1",
				Type:                    quiz.Listening,
				Text:                    "Listen and choose what time Tom wakes up.",
				Points:                  10,
				AudioURL:                "https://example.com/audio/tom-wakes-up.mp3",
				MaxListeningTimeSeconds: 30,
				Options: []quiz.Option{
					{ID: "a", Text: "6:30", IsCorrect: true},
					{ID: "b", Text: "7:00"},
					{ID: "c", Text: "7:30"},
				},
			},
			{
				ID:     "dr-tf-1",
				Type:   quiz.TrueFalse,
				Text:   `"Breakfast" is the first meal of the day.`,
				Points: 10,
			},
			{
				ID:                "dr-pr-1",
				Type:              quiz.Pronunciation,
				Text:              "Read the sentence aloud.",
				Points:            10,
				PronunciationText: "I brush my teeth every night",
			},
		},
	}
}

type practiceSample struct {
	text, ipa, translation string
}

var practiceSamples = map[string][]practiceSample{
	"easy": {
		{"good morning", "ɡʊd ˈmɔːnɪŋ", "buenos días"},
		{"see you soon", "siː juː suːn", "hasta pronto"},
	},
	"medium": {
		{"the weather is lovely today", "ðə ˈweðər ɪz ˈlʌvli təˈdeɪ", "hace un tiempo precioso hoy"},
		{"could you repeat that please", "kʊd juː rɪˈpiːt ðæt pliːz", "¿podría repetirlo, por favor?"},
	},
	"hard": {
		{"thorough research requires thoughtful questions", "ˈθʌrə rɪˈsɜːtʃ rɪˈkwaɪəz ˈθɔːtfəl ˈkwestʃənz", "una investigación minuciosa requiere preguntas reflexivas"},
	},
}
