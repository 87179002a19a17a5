package flow

import (
	"testing"

	"github.com/CareBridge/CareLine/internal/models"
)

func TestLevelThresholds(t *testing.T) {
	n := len(Questions)
	if n != 12 {
		t.Fatalf("expected 12 questions, got %d", n)
	}
	cases := []struct {
		score int
		want  models.BurdenLevel
	}{
		{0, models.BurdenLow},
		{11, models.BurdenLow},
		{12, models.BurdenMedium},
		{15, models.BurdenMedium},
		{16, models.BurdenHigh},
		{24, models.BurdenHigh},
	}
	for _, c := range cases {
		if got := LevelFor(c.score, n); got != c.want {
			t.Errorf("LevelFor(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestPointsFor(t *testing.T) {
	if PointsFor(models.AnswerNo) != 2 {
		t.Error("no should score 2 points")
	}
	if PointsFor(models.AnswerSometimes) != 1 {
		t.Error("sometimes should score 1 point")
	}
	if PointsFor(models.AnswerYes) != 0 {
		t.Error("yes should score 0 points")
	}
}

func TestScoreIgnoresWeights(t *testing.T) {
	answers := []models.AssessmentAnswer{
		{QuestionID: "a", Answer: models.AnswerNo, Points: 2, Weight: 3},
		{QuestionID: "b", Answer: models.AnswerSometimes, Points: 1, Weight: 1},
	}
	if got := Score(answers); got != 3 {
		t.Errorf("Score = %d, want 3 (weights must not be applied)", got)
	}
}
