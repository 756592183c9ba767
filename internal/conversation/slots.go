package conversation

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/briangreenhill/coachengine/internal/domain"
)

// QuickReply is a scripted answer offered to the user.
type QuickReply struct {
	Label   string `json:"label"`
	Action  Action `json:"action"`
	Payload string `json:"payload,omitempty"`
}

// Slot names a plan detail collected during PLAN_INFO_GATHER.
type Slot string

const (
	SlotGoal          Slot = "goal"
	SlotExperience    Slot = "experience"
	SlotDays          Slot = "days_per_week"
	SlotSessionLength Slot = "session_length"
	SlotEquipment     Slot = "equipment"
	SlotNone          Slot = ""
)

// NextSlot returns the first unset slot in collection order.
func NextSlot(info domain.UserPlanInfo) Slot {
	switch {
	case info.Goal == "":
		return SlotGoal
	case info.Experience == "":
		return SlotExperience
	case info.DaysPerWeek <= 0:
		return SlotDays
	case info.SessionLength <= 0:
		return SlotSessionLength
	case len(info.Equipment) == 0:
		return SlotEquipment
	}
	return SlotNone
}

type question struct {
	text    string
	replies []QuickReply
}

var questions = map[Slot]question{
	SlotGoal: {"What's the main thing you want this plan to do for you?", []QuickReply{
		{"Build strength", ActionSetGoal, string(domain.GoalStrength)},
		{"Build muscle", ActionSetGoal, string(domain.GoalMuscle)},
		{"Lose weight", ActionSetGoal, string(domain.GoalWeightLoss)},
		{"Improve endurance", ActionSetGoal, string(domain.GoalEndurance)},
		{"General fitness", ActionSetGoal, string(domain.GoalGeneral)},
	}},
	SlotExperience: {"How would you describe your training experience?", []QuickReply{
		{"Beginner", ActionSetExperience, string(domain.LevelBeginner)},
		{"Intermediate", ActionSetExperience, string(domain.LevelIntermediate)},
		{"Advanced", ActionSetExperience, string(domain.LevelAdvanced)},
	}},
	SlotDays: {"How many days a week can you train?", []QuickReply{
		{"3 days", ActionSetDays, "3"},
		{"4 days", ActionSetDays, "4"},
		{"5 days", ActionSetDays, "5"},
		{"6 days", ActionSetDays, "6"},
	}},
	SlotSessionLength: {"How long can each session be?", []QuickReply{
		{"30 minutes", ActionSetSessionLength, "30"},
		{"45 minutes", ActionSetSessionLength, "45"},
		{"60 minutes", ActionSetSessionLength, "60"},
		{"90 minutes", ActionSetSessionLength, "90"},
	}},
	SlotEquipment: {"What equipment do you have access to?", []QuickReply{
		{"Full gym", ActionSetEquipment, "full_gym"},
		{"Dumbbells and bench", ActionSetEquipment, "dumbbells,bench"},
		{"Dumbbells only", ActionSetEquipment, "dumbbells"},
		{"Bodyweight only", ActionSetEquipment, "bodyweight"},
	}},
}

var slotActions = map[Action]Slot{
	ActionSetGoal:          SlotGoal,
	ActionSetExperience:    SlotExperience,
	ActionSetDays:          SlotDays,
	ActionSetSessionLength: SlotSessionLength,
	ActionSetEquipment:     SlotEquipment,
}

// SetSlot parses value into slot. It reports false and leaves info unchanged
// when the value does not parse.
func SetSlot(info *domain.UserPlanInfo, slot Slot, value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	switch slot {
	case SlotGoal:
		g, ok := parseGoal(v)
		if ok {
			info.Goal = g
		}
		return ok
	case SlotExperience:
		l, ok := parseExperience(v)
		if ok {
			info.Experience = l
		}
		return ok
	case SlotDays:
		n, ok := parseNumber(v)
		if !ok || n < 1 || n > 7 {
			return false
		}
		info.DaysPerWeek = n
		return true
	case SlotSessionLength:
		n, ok := parseMinutes(v)
		if ok {
			info.SessionLength = n
		}
		return ok
	case SlotEquipment:
		eq := parseEquipment(v)
		if len(eq) == 0 {
			return false
		}
		info.Equipment = eq
		return true
	}
	return false
}

var goalWords = []struct {
	goal  domain.GoalType
	words []string
}{
	{domain.GoalWeightLoss, []string{"weight_loss", "lose weight", "weight loss", "fat", "lean", "cut", "slim"}},
	{domain.GoalStrength, []string{"strength", "strong", "powerlifting", "power"}},
	{domain.GoalHypertrophy, []string{"hypertrophy"}},
	{domain.GoalMuscle, []string{"muscle", "bulk", "size", "bodybuilding", "mass"}},
	{domain.GoalEndurance, []string{"endurance", "cardio", "stamina", "run", "marathon", "conditioning"}},
	{domain.GoalGeneral, []string{"general", "fitness", "health", "overall", "fit"}},
}

func parseGoal(v string) (domain.GoalType, bool) {
	for _, g := range goalWords {
		for _, w := range g.words {
			if strings.Contains(v, w) {
				return g.goal, true
			}
		}
	}
	return "", false
}

func parseExperience(v string) (domain.FitnessLevel, bool) {
	switch {
	case containsAny(v, "beginner", "new", "novice", "never", "just start"):
		return domain.LevelBeginner, true
	case containsAny(v, "intermediate", "some", "moderate", "couple of years"):
		return domain.LevelIntermediate, true
	case containsAny(v, "advanced", "experienced", "expert", "years", "competitive"):
		return domain.LevelAdvanced, true
	}
	return "", false
}

// numberRe matches digits or a whole number word. The leftmost match wins.
var numberRe = regexp.MustCompile(`\d+|\b(?:one|two|three|four|five|six|seven|every day|daily)\b`)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"every day": 7, "daily": 7,
}

func parseNumber(v string) (int, bool) {
	m := numberRe.FindString(v)
	if m == "" {
		return 0, false
	}
	if n, ok := numberWords[m]; ok {
		return n, true
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

func parseMinutes(v string) (int, bool) {
	switch {
	case containsAny(v, "half an hour", "half hour"):
		return 30, true
	case containsAny(v, "hour and a half"):
		return 90, true
	}
	n, ok := parseNumber(v)
	if !ok {
		if strings.Contains(v, "hour") {
			return 60, true
		}
		return 0, false
	}
	if strings.Contains(v, "hour") && n <= 3 {
		n *= 60
	}
	if n < 10 || n > 180 {
		return 0, false
	}
	return n, true
}

var equipmentWords = []struct {
	equip string
	words []string
}{
	{"full_gym", []string{"full_gym", "gym"}},
	{"barbell", []string{"barbell"}},
	{"dumbbells", []string{"dumbbell"}},
	{"bench", []string{"bench"}},
	{"kettlebell", []string{"kettlebell"}},
	{"bands", []string{"band"}},
	{"pull_up_bar", []string{"pull_up_bar", "pull-up bar", "pull up bar", "pullup bar"}},
	{"cable", []string{"cable"}},
	{"machine", []string{"machine"}},
	{"bodyweight", []string{"bodyweight", "body weight", "nothing", "none", "no equipment"}},
}

func parseEquipment(v string) []string {
	var out []string
	for _, e := range equipmentWords {
		if containsAny(v, e.words...) {
			out = append(out, e.equip)
		}
	}
	if slices.Contains(out, "full_gym") {
		return []string{"full_gym"}
	}
	if len(out) > 1 {
		out = slices.DeleteFunc(out, func(s string) bool { return s == "bodyweight" })
	}
	return out
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
