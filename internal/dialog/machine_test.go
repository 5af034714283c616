package dialog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"dinerd/internal/catalog"
	"dinerd/internal/classify"
	"dinerd/internal/inference"
	"dinerd/internal/store"
)

const testCSV = `restaurantname,pricerange,area,food,phone,address,postcode,food_quality,crowdedness,stay_length
the oak bistro,cheap,west,british,01223 323361,6 Lensfield Road,cb2 1eg,good,quiet,long
the copper kettle,cheap,west,british,01223 365068,4 Kings Parade,cb2 1sj,good,busy,short
graffiti,cheap,west,british,01223 277977,Hotel Felix,cb3 0lx,bad,quiet,long
riverside,expensive,east,french,01223 307030,Quayside,cb5 8aq,good,quiet,long
`

const testRulesJSON = `{
  "touristic": [
    {"conditions": [{"category": "pricerange", "value": "cheap"},
                    {"category": "food_quality", "value": "good"}],
     "consequence": true},
    {"conditions": [{"category": "food", "value": "romanian"}],
     "consequence": false}
  ],
  "assigned seats": [
    {"conditions": [{"category": "crowdedness", "value": "busy"}], "consequence": true}
  ],
  "children": [
    {"conditions": [{"category": "stay_length", "value": "short"}], "consequence": true},
    {"conditions": [{"category": "stay_length", "value": "long"}], "consequence": false}
  ],
  "romantic": [
    {"conditions": [{"category": "crowdedness", "value": "busy"}], "consequence": false},
    {"conditions": [{"category": "stay_length", "value": "long"}], "consequence": true}
  ]
}`

// scriptedClassifier returns a fixed intent per utterance, falling back
// to inform. Keeps transition tests independent of the baseline rules.
type scriptedClassifier map[string]classify.Intent

func (c scriptedClassifier) Classify(_ context.Context, utterance string) (classify.Intent, error) {
	if intent, ok := c[utterance]; ok {
		return intent, nil
	}
	return classify.Inform, nil
}

func newTestMachine(t *testing.T, cls classify.Classifier, cfg SessionConfig) *Machine {
	t.Helper()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "restaurants.csv")
	if err := os.WriteFile(csvPath, []byte(testCSV), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.ImportCSV(csvPath); err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}

	cat, err := catalog.Build(s)
	if err != nil {
		t.Fatalf("catalog.Build() error = %v", err)
	}
	rules, err := inference.Parse([]byte(testRulesJSON))
	if err != nil {
		t.Fatalf("inference.Parse() error = %v", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	session := NewSession(cat, cfg)
	return NewMachine(cls, s, StaticRules(rules), session, zap.NewNop())
}

func TestHappyPathReachesGoodbye(t *testing.T) {
	m := newTestMachine(t, classify.NewKeywordClassifier(), SessionConfig{AllowFeedback: true})
	ctx := context.Background()

	st, greeting := m.Start()
	if !strings.Contains(greeting, "welcome") {
		t.Errorf("greeting = %q", greeting)
	}

	turns := []string{
		"hello",
		"in the west part of town",
		"cheap",
		"british food",
		"no",
		"bye",
	}
	for i, utterance := range turns {
		var reply string
		var err error
		st, reply, err = m.Step(ctx, st, utterance)
		if err != nil {
			t.Fatalf("turn %d (%q): error = %v", i, utterance, err)
		}
		if reply == "" {
			t.Fatalf("turn %d (%q): empty reply", i, utterance)
		}
	}
	if !st.Terminal() {
		t.Fatalf("conversation did not reach goodbye, ended in %s", st.Kind)
	}

	want := Preferences{"area": "west", "pricerange": "cheap", "food": "british"}
	for k, v := range want {
		if m.Session().Prefs[k] != v {
			t.Errorf("prefs[%s] = %q, want %q", k, m.Session().Prefs[k], v)
		}
	}
}

func TestSlotRoutingOrder(t *testing.T) {
	m := newTestMachine(t, scriptedClassifier{"hi": classify.Hello}, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, reply, err := m.Step(ctx, st, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindAskArea {
		t.Fatalf("empty preferences must route to the area question, got %s", st.Kind)
	}
	if !strings.Contains(reply, "part of town") {
		t.Errorf("reply = %q", reply)
	}

	// Area answered: next missing slot is the price range.
	st, _, err = m.Step(ctx, st, "in the west")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindAskPrice {
		t.Fatalf("after area, expected the price question, got %s", st.Kind)
	}
}

func TestFeedbackAnnouncesChanges(t *testing.T) {
	m := newTestMachine(t, classify.NewKeywordClassifier(), SessionConfig{AllowFeedback: true})
	ctx := context.Background()

	st, _ := m.Start()
	_, reply, err := m.Step(ctx, st, "a cheap restaurant in the west")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "Okay, the restaurant should be cheap priced and be in the west part of town.") {
		t.Errorf("feedback missing or misordered: %q", reply)
	}
}

func TestFeedbackDisabled(t *testing.T) {
	m := newTestMachine(t, classify.NewKeywordClassifier(), SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	_, reply, err := m.Step(ctx, st, "a cheap restaurant in the west")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(reply, "Okay, the restaurant should") {
		t.Errorf("feedback must be off: %q", reply)
	}
}

func TestContradictionRemovesRequirement(t *testing.T) {
	cls := scriptedClassifier{
		"no thanks": classify.Negate,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "expensive french food in the east")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindAskAdditional {
		t.Fatalf("all slots filled, expected the requirements question, got %s", st.Kind)
	}

	// touristic needs cheap; the stated preference is expensive.
	st, reply, err := m.Step(ctx, st, "something touristic")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "leads to a contradiction") {
		t.Errorf("reply = %q, want contradiction explanation", reply)
	}
	if !strings.Contains(reply, "additional requirement was removed") {
		t.Errorf("reply = %q, want removal notice", reply)
	}
	if st.Kind != KindAskAdditional {
		t.Errorf("contradiction must return to the requirements question, got %s", st.Kind)
	}
	if _, ok := m.Session().Prefs[catalog.SlotRequirement]; ok {
		t.Error("contradicting requirement must not be merged")
	}

	// romantic does not contradict; it filters and explains.
	st, reply, err = m.Step(ctx, st, "something romantic")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindSuggestion {
		t.Fatalf("expected a suggestion, got %s", st.Kind)
	}
	if !strings.Contains(reply, "riverside") || !strings.Contains(reply, "romantic") {
		t.Errorf("reply = %q, want riverside with a romantic explanation", reply)
	}
}

func TestDetailPriorityPhoneOverAddress(t *testing.T) {
	cls := scriptedClassifier{
		"no thanks":                            classify.Negate,
		"what is the phone number and address": classify.Request,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "expensive french food in the east")
	if err != nil {
		t.Fatal(err)
	}
	st, _, err = m.Step(ctx, st, "no thanks")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindSuggestion {
		t.Fatalf("expected a suggestion, got %s", st.Kind)
	}

	st, reply, err := m.Step(ctx, st, "what is the phone number and address")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindGiveDetails {
		t.Fatalf("expected details state, got %s", st.Kind)
	}
	if !strings.Contains(reply, "phone number of riverside is 01223 307030") {
		t.Errorf("phone must win over address: %q", reply)
	}
	if strings.Contains(reply, "Quayside") {
		t.Errorf("address must not be rendered when phone is requested: %q", reply)
	}
}

func TestSuggestionNeverRepeatsPreviousIndex(t *testing.T) {
	cls := scriptedClassifier{
		"no thanks":   classify.Negate,
		"another one": classify.ReqAlts,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "cheap british food in the west")
	if err != nil {
		t.Fatal(err)
	}
	st, _, err = m.Step(ctx, st, "no thanks")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindSuggestion || len(st.Suggestions) != 3 {
		t.Fatalf("expected a suggestion over 3 candidates, got %s with %d", st.Kind, len(st.Suggestions))
	}

	for i := 0; i < 25; i++ {
		prev := st.SuggestionIndex
		var err error
		st, _, err = m.Step(ctx, st, "another one")
		if err != nil {
			t.Fatal(err)
		}
		if st.SuggestionIndex == prev {
			t.Fatalf("iteration %d: re-suggested index %d", i, prev)
		}
	}
}

func TestSingleCandidateDoesNotHang(t *testing.T) {
	cls := scriptedClassifier{
		"no thanks":   classify.Negate,
		"another one": classify.ReqAlts,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "expensive french food in the east")
	if err != nil {
		t.Fatal(err)
	}
	st, _, err = m.Step(ctx, st, "no thanks")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		st, _, err = m.Step(ctx, st, "another one")
		if err != nil {
			t.Fatal(err)
		}
		if st.SuggestionIndex != 0 {
			t.Fatalf("single candidate must keep index 0, got %d", st.SuggestionIndex)
		}
	}
}

func TestNoMatchesIsNotAnError(t *testing.T) {
	cls := scriptedClassifier{
		"no thanks":       classify.Negate,
		"whats the phone": classify.Request,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	// french restaurants exist only in the east; west+french matches nothing.
	st, _, err := m.Step(ctx, st, "french food in the west")
	if err != nil {
		t.Fatal(err)
	}
	st, _, err = m.Step(ctx, st, "any")
	if err != nil {
		t.Fatal(err)
	}
	st, reply, err := m.Step(ctx, st, "no thanks")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindSuggestion {
		t.Fatalf("expected suggestion state, got %s", st.Kind)
	}
	if !strings.Contains(reply, "could not find") {
		t.Errorf("reply = %q, want a no-restaurants message", reply)
	}

	// Detail request with nothing suggested must be guarded, not panic.
	st, reply, err = m.Step(ctx, st, "whats the phone")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindGiveDetails {
		t.Fatalf("expected details state, got %s", st.Kind)
	}
	if !strings.Contains(reply, "not suggested a restaurant") {
		t.Errorf("reply = %q, want the no-suggestion apology", reply)
	}
}

func TestRestartClearsPreferences(t *testing.T) {
	m := newTestMachine(t, classify.NewKeywordClassifier(), SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "cheap british food in the west")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Session().Prefs) == 0 {
		t.Fatal("preferences should be filled before restart")
	}

	st, _, err = m.Step(ctx, st, "start over")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindWelcome {
		t.Errorf("restart must return to welcome, got %s", st.Kind)
	}
	if len(m.Session().Prefs) != 0 {
		t.Errorf("restart must clear preferences, got %v", m.Session().Prefs)
	}
}

func TestRestartAtWelcomeClearsPreferences(t *testing.T) {
	cls := scriptedClassifier{
		"no thanks":  classify.Negate,
		"not this":   classify.Negate,
		"start over": classify.Restart,
		"hi":         classify.Hello,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "cheap british food in the west")
	if err != nil {
		t.Fatal(err)
	}
	st, _, err = m.Step(ctx, st, "no thanks")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindSuggestion {
		t.Fatalf("expected a suggestion, got %s", st.Kind)
	}

	// Backing out keeps the preferences; only restart wipes them.
	st, _, err = m.Step(ctx, st, "not this")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindWelcome {
		t.Fatalf("negate at suggestion must return to welcome, got %s", st.Kind)
	}
	if len(m.Session().Prefs) == 0 {
		t.Fatal("negate alone must not clear preferences")
	}

	st, _, err = m.Step(ctx, st, "start over")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindWelcome {
		t.Fatalf("restart must return to welcome, got %s", st.Kind)
	}
	if len(m.Session().Prefs) != 0 {
		t.Errorf("restart at welcome must clear preferences, got %v", m.Session().Prefs)
	}

	// A fresh greeting starts the slot questions from the top.
	st, _, err = m.Step(ctx, st, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindAskArea {
		t.Errorf("after restart the conversation must re-ask the area, got %s", st.Kind)
	}
}

func TestEveryStateSurvivesNullIntent(t *testing.T) {
	cls := scriptedClassifier{"gibberish": classify.Null}
	kinds := []Kind{
		KindWelcome, KindAskArea, KindAskPrice, KindAskType,
		KindAskAdditional, KindSuggestion, KindGiveDetails,
	}
	for _, kind := range kinds {
		m := newTestMachine(t, cls, SessionConfig{})
		st := NewState(kind)
		next, reply, err := m.Step(context.Background(), st, "gibberish")
		if err != nil {
			t.Fatalf("state %s: error = %v", kind, err)
		}
		if next == nil {
			t.Fatalf("state %s: nil next state", kind)
		}
		if reply == "" {
			t.Errorf("state %s: a null intent must still produce a reply", kind)
		}
	}
}

func TestStepAfterGoodbyeStaysTerminal(t *testing.T) {
	m := newTestMachine(t, classify.NewKeywordClassifier(), SessionConfig{})
	st := NewState(KindGoodbye)
	next, _, err := m.Step(context.Background(), st, "hello again")
	if err != nil {
		t.Fatal(err)
	}
	if !next.Terminal() {
		t.Error("goodbye is terminal")
	}
}

func TestDenyAtSlotQuestionKeepsExisting(t *testing.T) {
	cls := scriptedClassifier{
		"not west, east": classify.Deny,
	}
	m := newTestMachine(t, cls, SessionConfig{})
	ctx := context.Background()

	st, _ := m.Start()
	st, _, err := m.Step(ctx, st, "cheap food in the west")
	if err != nil {
		t.Fatal(err)
	}
	// Deny must not overwrite the already-known area.
	_, _, err = m.Step(ctx, st, "not west, east")
	if err != nil {
		t.Fatal(err)
	}
	if m.Session().Prefs[catalog.SlotArea] != "west" {
		t.Errorf("deny overwrote area: %v", m.Session().Prefs)
	}
}
