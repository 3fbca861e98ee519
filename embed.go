package partybot

import (
	_ "embed"
)

// QuestionsYAML is the built-in trivia question bank.
//
//go:embed static/questions.yaml
var QuestionsYAML []byte
