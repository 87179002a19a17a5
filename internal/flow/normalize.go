// Package flow implements the CareLine conversation engine: the command
// normalizer, the assessment and onboarding state machines, the flow router,
// and the menu dispatchers.
package flow

import (
	"strings"
)

// Token is a canonical, flow-independent command derived from free-text
// input. TokenUnmatched means the input mapped to nothing; callers must
// re-prompt and never advance on it.
type Token string

const (
	TokenUnmatched Token = ""

	// Assessment answers and control.
	TokenYes       Token = "yes"
	TokenSometimes Token = "sometimes"
	TokenNo        Token = "no"
	TokenStop      Token = "stop"

	// Menu commands.
	TokenMenu       Token = "menu"
	TokenAssessment Token = "assessment"
	TokenTasks      Token = "tasks"
	TokenResources  Token = "resources"
	TokenSummary    Token = "summary"
	TokenContact    Token = "contact"
	TokenOnboard    Token = "onboard"

	// Onboarding choice.
	TokenLogin    Token = "login"
	TokenRegister Token = "register"
)

// aliases maps each token to the words that select it. Single-letter answer
// aliases follow the channel convention: j for yes, s for sometimes, n for no.
var aliases = map[Token][]string{
	TokenYes:        {"yes", "j"},
	TokenSometimes:  {"sometimes", "s"},
	TokenNo:         {"no", "n"},
	TokenStop:       {"stop"},
	TokenMenu:       {"menu"},
	TokenAssessment: {"assessment", "selftest", "test", "start"},
	TokenTasks:      {"tasks", "task"},
	TokenResources:  {"resources", "help"},
	TokenSummary:    {"summary", "account", "dashboard"},
	TokenContact:    {"contact", "human"},
	TokenOnboard:    {"signup", "login", "register"},
	TokenLogin:      {"login"},
	TokenRegister:   {"register", "signup"},
}

// AnswerTokens is the option set for assessment questions, in prompt order.
var AnswerTokens = []Token{TokenYes, TokenSometimes, TokenNo}

// Match normalizes raw input against an ordered option set. Matching is
// case-insensitive after trimming. A bare digit maps positionally to the
// option list (1 selects the first option). Word and single-letter aliases
// match only tokens present in the options. Anything else is TokenUnmatched.
func Match(input string, options []Token) Token {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return TokenUnmatched
	}

	// Positional numeric alias: "1" selects the first option.
	if len(normalized) == 1 && normalized[0] >= '1' && normalized[0] <= '9' {
		idx := int(normalized[0] - '1')
		if idx < len(options) {
			return options[idx]
		}
		return TokenUnmatched
	}

	for _, opt := range options {
		for _, alias := range aliases[opt] {
			if normalized == alias {
				return opt
			}
		}
	}
	return TokenUnmatched
}
