package flow

import (
	"fmt"
	"strings"

	"github.com/CareBridge/CareLine/internal/models"
)

// Composer builds the outbound reply texts. Links embed the configured base
// URL; the support contact number is inserted verbatim where templates call
// for it.
type Composer struct {
	baseURL        string
	supportContact string
}

// NewComposer creates a reply composer.
func NewComposer(baseURL, supportContact string) *Composer {
	return &Composer{baseURL: strings.TrimRight(baseURL, "/"), supportContact: supportContact}
}

func (c *Composer) answerOptions() string {
	return "1. Yes\n2. Sometimes\n3. No\n(Reply with 1/2/3 or j/s/n. Send 'stop' to cancel.)"
}

// QuestionPrompt renders one questionnaire item with its option set.
func (c *Composer) QuestionPrompt(index int, q models.Question) string {
	return fmt.Sprintf("Question %d/%d: %s\n%s", index+1, len(Questions), q.Text, c.answerOptions())
}

// AssessmentIntro opens the questionnaire and asks the first question.
func (c *Composer) AssessmentIntro(first models.Question) string {
	return fmt.Sprintf("🩺 Caregiver self-test started. %d short questions about how the caregiving is going for you.\n\n%s",
		len(Questions), c.QuestionPrompt(0, first))
}

// QuestionReprompt re-asks the current question after unrecognized input.
func (c *Composer) QuestionReprompt(index int, q models.Question) string {
	return fmt.Sprintf("Sorry, I didn't catch that.\n\n%s", c.QuestionPrompt(index, q))
}

// AssessmentSummary reports the final score and burden level.
func (c *Composer) AssessmentSummary(score, max int, level models.BurdenLevel) string {
	var advice string
	switch level {
	case models.BurdenHigh:
		advice = "Your answers point to a high caregiver burden. Please consider talking to someone soon — reply 'contact' and we will connect you, or call " + c.supportContact + "."
	case models.BurdenMedium:
		advice = "Your answers point to a moderate caregiver burden. It may help to look at the support options — reply 'resources' to see them."
	default:
		advice = "Your answers point to a low caregiver burden. Keep an eye on yourself, and know we're here if that changes."
	}
	return fmt.Sprintf("✅ Self-test complete. Your score is %d out of %d.\n\n%s\n\nReply 'menu' to see what else I can do.", score, max, advice)
}

// AssessmentCancelled confirms a stop command.
func (c *Composer) AssessmentCancelled() string {
	return "The self-test has been cancelled. Nothing was saved. Reply 'menu' whenever you want to continue."
}

// OnboardingChoice opens the login/registration dialogue.
func (c *Composer) OnboardingChoice() string {
	return "Welcome! Do you already have an account?\n1. Log in\n2. Register\n(Reply with 1 or 2.)"
}

// OnboardingChoiceReprompt re-asks the choice after unrecognized input.
func (c *Composer) OnboardingChoiceReprompt() string {
	return "Sorry, I didn't catch that.\n\n" + c.OnboardingChoice()
}

func (c *Composer) AskLoginEmail() string {
	return "Please reply with the email address you registered with."
}

func (c *Composer) AskLoginPassword() string {
	return "Thanks. Now reply with your password."
}

// LoginSuccess confirms the link and shows the authenticated menu.
func (c *Composer) LoginSuccess(name string) string {
	return fmt.Sprintf("🎉 Welcome back, %s! This number is now linked to your account.\n\n%s", name, c.AuthenticatedMenu(name))
}

// LoginFailed is terminal: the sender must restart the whole flow.
func (c *Composer) LoginFailed() string {
	return "That email and password combination didn't match. For your security the login has been stopped. Reply 'login' to start over."
}

func (c *Composer) AskRegisterName() string {
	return "Nice to meet you! What is your name?"
}

func (c *Composer) AskRegisterEmail(name string) string {
	return fmt.Sprintf("Thanks, %s. What email address would you like to use?", name)
}

func (c *Composer) RegisterEmailInvalid() string {
	return "That doesn't look like an email address. Please reply with a valid email address (like name@example.org)."
}

// IdentifierTaken is terminal: the session is cleared without retry.
func (c *Composer) IdentifierTaken() string {
	return "That email address is already in use. Registration has been stopped — reply 'register' to start over, or 'login' if the account is yours."
}

func (c *Composer) AskRegisterPassword() string {
	return fmt.Sprintf("Almost there. Choose a password of at least %d characters.", MinPasswordLength)
}

func (c *Composer) PasswordTooShort() string {
	return fmt.Sprintf("That password is too short. Please choose one of at least %d characters.", MinPasswordLength)
}

// RegisterSuccess confirms account creation and shows the authenticated menu.
func (c *Composer) RegisterSuccess(name string) string {
	return fmt.Sprintf("🎉 Your account is ready, %s, and this number is linked to it.\n\n%s", name, c.AuthenticatedMenu(name))
}

// RegisterFailed is the generic failure reply when persistence breaks down.
func (c *Composer) RegisterFailed() string {
	return "Something went wrong while creating your account. Please try again later by replying 'register'."
}

// AnonymousMenu lists the commands available to unlinked senders.
func (c *Composer) AnonymousMenu() string {
	return "👋 I'm the CareLine assistant for caregivers. You can reply with a number or a word:\n" +
		"1. Self-test — check your caregiver burden\n" +
		"2. Resources — where to find support\n" +
		"3. Contact — request a call from our team\n" +
		"4. Login — log in or register\n" +
		"Reply 'menu' to see this again."
}

// AuthenticatedMenu lists the commands available to linked senders.
func (c *Composer) AuthenticatedMenu(name string) string {
	greeting := "What would you like to do?"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s, what would you like to do?", name)
	}
	return greeting + "\n" +
		"1. Self-test — check your caregiver burden\n" +
		"2. Tasks — your care tasks due today\n" +
		"3. Resources — support near you\n" +
		"4. Summary — your account and dashboard\n" +
		"5. Contact — request a call from our team\n" +
		"Reply 'menu' to see this again."
}

// AnonymousMenuReprompt shows the menu after unrecognized input.
func (c *Composer) AnonymousMenuReprompt() string {
	return "Sorry, I didn't catch that.\n\n" + c.AnonymousMenu()
}

// AuthenticatedMenuReprompt shows the menu after unrecognized input.
func (c *Composer) AuthenticatedMenuReprompt(name string) string {
	return "Sorry, I didn't catch that.\n\n" + c.AuthenticatedMenu(name)
}

// TasksDueToday lists today's open care tasks.
func (c *Composer) TasksDueToday(tasks []models.CareTask) string {
	if len(tasks) == 0 {
		return "📋 You have no care tasks due today. Nice!"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 You have %d task(s) due today:\n", len(tasks))
	for i, t := range tasks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.Title)
	}
	fmt.Fprintf(&b, "Manage them at %s/tasks", c.baseURL)
	return b.String()
}

// ResourcesNearby points linked senders to the resource directory.
func (c *Composer) ResourcesNearby() string {
	return fmt.Sprintf("🧭 Support near you: respite care, caregiver cafés and walk-in consultations are listed at %s/resources. Reply 'contact' if you'd rather talk to someone.", c.baseURL)
}

// ResourcesGeneral points anonymous senders to general support information.
func (c *Composer) ResourcesGeneral() string {
	return fmt.Sprintf("🧭 General caregiver support: practical guides and local organisations are listed at %s/resources. You can also call %s.", c.baseURL, c.supportContact)
}

// DashboardSummary reports account status, open tasks and the latest
// wellbeing check-in.
func (c *Composer) DashboardSummary(name string, openTasks int, checkin *models.WellbeingCheckin) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Summary for %s:\n", name)
	fmt.Fprintf(&b, "• Open care tasks: %d\n", openTasks)
	if checkin != nil {
		fmt.Fprintf(&b, "• Last wellbeing check-in: %s (%s)\n", checkin.Mood, checkin.CreatedAt.Format("2 Jan"))
	} else {
		b.WriteString("• No wellbeing check-ins yet\n")
	}
	fmt.Fprintf(&b, "Full dashboard: %s/dashboard", c.baseURL)
	return b.String()
}

// ContactRequested confirms that the care team has been asked to reach out.
func (c *Composer) ContactRequested() string {
	return fmt.Sprintf("🤝 Thank you. Our care team will contact you as soon as possible. If it's urgent, call us directly at %s.", c.supportContact)
}

// Apology is the generic reply when something breaks internally. It never
// carries technical detail.
func (c *Composer) Apology() string {
	return "😔 Sorry, something went wrong on our side. Please try again in a moment, or reply 'menu' to continue."
}
