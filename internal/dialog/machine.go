// Package dialog implements the conversation state machine for the
// restaurant recommender. The machine owns no I/O: the host delivers the
// returned reply and feeds the next utterance back in, one turn at a
// time, until the state is terminal.
package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dinerd/internal/catalog"
	"dinerd/internal/classify"
	"dinerd/internal/extract"
	"dinerd/internal/inference"
	"dinerd/internal/store"
)

// RuleSource yields the active requirement rule set. *inference.Watcher
// satisfies it for hot-reloading hosts; StaticRules wraps a fixed set.
type RuleSource interface {
	Rules() inference.RuleSet
}

// StaticRules is a RuleSource over an immutable rule set.
type StaticRules inference.RuleSet

// Rules returns the wrapped set.
func (r StaticRules) Rules() inference.RuleSet { return inference.RuleSet(r) }

// Machine drives one conversation. Transitions are pure with respect to
// states: every Step returns a fresh State and discards the old one; the
// Session is the only mutable structure carried across turns.
type Machine struct {
	classifier classify.Classifier
	store      *store.Store
	rules      RuleSource
	session    *Session
	log        *zap.Logger
}

// NewMachine wires the collaborators for one conversation.
func NewMachine(cls classify.Classifier, st *store.Store, rules RuleSource, session *Session, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{classifier: cls, store: st, rules: rules, session: session, log: log}
}

// Session exposes the conversation context, mainly for snapshotting.
func (m *Machine) Session() *Session { return m.session }

// Start returns the initial state and greeting.
func (m *Machine) Start() (*State, string) {
	return NewState(KindWelcome), m.prompt(KindWelcome)
}

// Step processes one user turn: classify the utterance, transition from
// the current state, and produce the next state plus the reply to render.
// Classifier failures degrade to the null intent; the conversation never
// dies on a single bad turn. Only a dataset failure is returned as error.
func (m *Machine) Step(ctx context.Context, st *State, utterance string) (*State, string, error) {
	if st.Terminal() {
		return st, m.prompt(KindGoodbye), nil
	}

	intent, err := m.classifier.Classify(ctx, utterance)
	if err != nil {
		m.log.Warn("classifier failed, treating utterance as null", zap.Error(err))
		intent = classify.Null
	}
	if !classify.Valid(intent) {
		intent = classify.Null
	}
	m.log.Debug("dialog turn",
		zap.String("session", m.session.ID),
		zap.String("state", st.Kind.String()),
		zap.String("intent", string(intent)),
	)

	var next *State
	var reply string
	switch st.Kind {
	case KindWelcome:
		next, reply, err = m.fromWelcome(intent, utterance)
	case KindAskArea:
		next, reply, err = m.fromSlotQuestion(st, intent, utterance, catalog.SlotArea)
	case KindAskPrice:
		next, reply, err = m.fromSlotQuestion(st, intent, utterance, catalog.SlotPriceRange)
	case KindAskType:
		next, reply, err = m.fromSlotQuestion(st, intent, utterance, catalog.SlotFood)
	case KindAskAdditional:
		next, reply, err = m.fromAskAdditional(intent, utterance)
	case KindSuggestion:
		next, reply, err = m.fromSuggestion(st, intent, utterance)
	case KindGiveDetails:
		next, reply, err = m.fromGiveDetails(st, intent, utterance)
	default:
		next, reply, err = m.enter(KindWelcome)
	}
	if err != nil {
		return st, "", err
	}

	if m.session.Config.AllowFeedback {
		if fb := m.feedback(); fb != "" {
			reply = fb + reply
		}
	}
	m.session.syncOld()

	return next, reply, nil
}

// =============================================================================
// PER-STATE TRANSITIONS
// =============================================================================

func (m *Machine) fromWelcome(intent classify.Intent, utterance string) (*State, string, error) {
	switch intent {
	case classify.Restart:
		m.reset()
		return m.enter(KindWelcome)
	case classify.Repeat:
		return m.enter(KindWelcome)
	case classify.Bye:
		return m.enter(KindGoodbye)
	case classify.Inform, classify.Hello:
		m.session.SnapshotOld()
		m.mergePolicy(extract.Extract(utterance, m.session.Catalog, ""))
		return m.enter(KindAskForInformation)
	default:
		return m.enter(KindWelcome)
	}
}

func (m *Machine) fromSlotQuestion(st *State, intent classify.Intent, utterance, slot string) (*State, string, error) {
	switch intent {
	case classify.Restart:
		m.reset()
		return m.enter(KindWelcome)
	case classify.Bye:
		return m.enter(KindGoodbye)
	case classify.Negate, classify.Repeat:
		// A "no" to a slot question is not an answer; re-ask rather than
		// discard the slots already filled.
		return m.enter(st.Kind)
	case classify.Deny:
		m.session.Prefs.MergeKeepExisting(extract.Extract(utterance, m.session.Catalog, slot))
		return m.enter(KindAskForInformation)
	case classify.Inform:
		m.session.SnapshotOld()
		m.mergePolicy(extract.Extract(utterance, m.session.Catalog, slot))
		return m.enter(KindAskForInformation)
	default:
		return m.enter(KindAskForInformation)
	}
}

func (m *Machine) fromAskAdditional(intent classify.Intent, utterance string) (*State, string, error) {
	switch intent {
	case classify.Restart:
		m.reset()
		return m.enter(KindWelcome)
	case classify.Bye:
		return m.enter(KindGoodbye)
	case classify.Negate:
		return m.enterSuggestion(-1)
	case classify.Inform:
		requirement, found := extract.ExtractRequirement(utterance)
		if !found {
			return m.enter(KindAskForInformation)
		}
		rules := m.rules.Rules()
		if !rules.Known(requirement) {
			next, prompt, err := m.enter(KindAskAdditional)
			if err != nil {
				return nil, "", err
			}
			return next, fmt.Sprintf("I am sorry, I know no rules for %q. ", requirement) + prompt, nil
		}
		if contradiction, explanation := rules.CheckContradiction(m.session.Prefs, requirement); contradiction {
			return m.enterContradiction(explanation)
		}
		m.session.SnapshotOld()
		m.mergePolicy(map[string]string{catalog.SlotRequirement: requirement})
		return m.enterSuggestion(-1)
	default:
		return m.enter(KindAskForInformation)
	}
}

func (m *Machine) fromSuggestion(st *State, intent classify.Intent, utterance string) (*State, string, error) {
	switch intent {
	case classify.Restart:
		m.reset()
		return m.enter(KindWelcome)
	case classify.Bye, classify.ThankYou:
		return m.enter(KindGoodbye)
	case classify.Negate:
		// Backs out to the greeting with preferences intact; restart is
		// the explicit wipe.
		return m.enter(KindWelcome)
	case classify.ReqAlts, classify.ReqMore:
		return m.enterSuggestion(st.SuggestionIndex)
	case classify.Request:
		return m.enterGiveDetails(st, utterance)
	case classify.Deny:
		m.session.Prefs.MergeKeepExisting(extract.Extract(utterance, m.session.Catalog, ""))
		return m.enter(KindAskForInformation)
	default:
		return m.enterSuggestion(st.SuggestionIndex)
	}
}

func (m *Machine) fromGiveDetails(st *State, intent classify.Intent, utterance string) (*State, string, error) {
	switch intent {
	case classify.Restart:
		m.reset()
		return m.enter(KindWelcome)
	case classify.Bye, classify.ThankYou, classify.Ack, classify.Confirm, classify.Affirm:
		return m.enter(KindGoodbye)
	case classify.Repeat:
		return m.enterGiveDetails(st, st.LastUtterance)
	case classify.Request:
		return m.enterGiveDetails(st, utterance)
	case classify.Negate, classify.ReqAlts:
		return m.enterSuggestion(st.SuggestionIndex)
	default:
		return m.enter(KindGoodbye)
	}
}

// =============================================================================
// STATE ENTRY
// =============================================================================

// enter builds the target state and its entry message, resolving the
// AskForInformation routing pseudo-state without a user turn.
func (m *Machine) enter(kind Kind) (*State, string, error) {
	switch kind {
	case KindAskForInformation:
		return m.enter(m.route())
	case KindSuggestion:
		return m.enterSuggestion(-1)
	default:
		return NewState(kind), m.prompt(kind), nil
	}
}

// route picks the first unfilled slot question; with all slots known the
// conversation moves on to additional requirements.
func (m *Machine) route() Kind {
	switch {
	case m.session.Prefs.Missing(catalog.SlotArea):
		return KindAskArea
	case m.session.Prefs.Missing(catalog.SlotPriceRange):
		return KindAskPrice
	case m.session.Prefs.Missing(catalog.SlotFood):
		return KindAskType
	default:
		return KindAskAdditional
	}
}

func (m *Machine) enterSuggestion(prev int) (*State, string, error) {
	records, err := m.store.Lookup(m.session.Prefs)
	if err != nil {
		return nil, "", fmt.Errorf("restaurant lookup failed: %w", err)
	}

	rules := m.rules.Rules()
	requirement, hasReq := m.session.Prefs[catalog.SlotRequirement]
	applyReq := hasReq && !IsAny(requirement)
	if applyReq {
		records = rules.Infer(records, requirement)
	}

	st := NewState(KindSuggestion)
	st.Suggestions = records
	st.PrevSuggestionIndex = prev

	if len(records) == 0 {
		return st, "I am sorry, I could not find a restaurant matching your preferences. Say no to start over, or change one of your preferences.", nil
	}

	st.SuggestionIndex = m.pickIndex(len(records), prev)
	r := records[st.SuggestionIndex]

	msg := fmt.Sprintf("%s is a nice %s restaurant in the %s part of town in the %s price range.",
		r.Name, r.Food, r.Area, r.PriceRange)
	if applyReq {
		if explanation := rules.Explain(r, requirement); explanation != "" {
			msg += " " + explanation
		}
	}
	msg += " You can ask for the phone number, address or postcode."
	return st, msg, nil
}

// pickIndex draws a uniform random index, excluding the previous pick
// when more than one candidate exists. The exclusion is built into the
// draw; there is no retry loop to hang on a single candidate.
func (m *Machine) pickIndex(n, prev int) int {
	if n <= 1 {
		return 0
	}
	if prev < 0 || prev >= n {
		return m.session.rng.Intn(n)
	}
	i := m.session.rng.Intn(n - 1)
	if i >= prev {
		i++
	}
	return i
}

func (m *Machine) enterContradiction(explanation string) (*State, string, error) {
	// Informational state: report and immediately return to the
	// additional-requirement question, no user turn in between.
	next, prompt, err := m.enter(KindAskAdditional)
	if err != nil {
		return nil, "", err
	}
	msg := explanation + " The additional requirement was removed. " + prompt
	return next, msg, nil
}

func (m *Machine) enterGiveDetails(st *State, utterance string) (*State, string, error) {
	next := NewState(KindGiveDetails)
	next.Suggestions = st.Suggestions
	next.SuggestionIndex = st.SuggestionIndex
	next.PrevSuggestionIndex = st.PrevSuggestionIndex
	next.LastUtterance = utterance

	r, ok := next.Suggested()
	if !ok {
		return next, "I am sorry, I have not suggested a restaurant yet, so there are no details to give.", nil
	}

	switch detailType(utterance) {
	case "phone":
		return next, fmt.Sprintf("The phone number of %s is %s.", r.Name, orUnknown(r.Phone)), nil
	case "address":
		return next, fmt.Sprintf("%s is on %s.", r.Name, orUnknown(r.Address)), nil
	case "postcode":
		return next, fmt.Sprintf("The postcode of %s is %s.", r.Name, orUnknown(r.Postcode)), nil
	default:
		return next, "I am sorry, I did not understand which detail you would like. You can ask for the phone number, address or postcode.", nil
	}
}

// detailType resolves the requested field with fixed priority
// phone > address > postcode, so co-occurring keywords are deterministic.
func detailType(utterance string) string {
	text := strings.ToLower(utterance)
	switch {
	case strings.Contains(text, "phone"):
		return "phone"
	case strings.Contains(text, "address"):
		return "address"
	case strings.Contains(text, "postcode"), strings.Contains(text, "post code"):
		return "postcode"
	default:
		return ""
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// =============================================================================
// MESSAGES AND FEEDBACK
// =============================================================================

func (m *Machine) prompt(kind Kind) string {
	switch kind {
	case KindWelcome:
		return "Hello, welcome to the restaurant recommendation system! You can ask for restaurants by area, price range or food type. How may I help you?"
	case KindAskArea:
		return "Which part of town would you like to dine in?"
	case KindAskPrice:
		return "What price range do you have in mind?"
	case KindAskType:
		return "What kind of food would you like?"
	case KindAskAdditional:
		return "Do you have any additional requirements, such as romantic or touristic?"
	case KindGoodbye:
		return "Goodbye, enjoy your meal!"
	}
	return ""
}

// mergePolicy merges extracted preferences under the configured change
// policy: overwrite when preference changes are allowed, first-value-wins
// otherwise.
func (m *Machine) mergePolicy(extracted map[string]string) {
	if m.session.Config.AllowPreferenceChange {
		m.session.Prefs.MergeOverwrite(extracted)
	} else {
		m.session.Prefs.MergeKeepExisting(extracted)
	}
}

// feedback renders the "Okay, the restaurant should ..." confirmation of
// every preference that changed since it was last reported.
func (m *Machine) feedback() string {
	changed := m.session.Prefs.ChangedKeys(m.session.OldPrefs)
	if len(changed) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(changed))
	for _, key := range changed {
		clauses = append(clauses, feedbackClause(key, m.session.Prefs[key]))
	}
	var joined string
	if len(clauses) == 1 {
		joined = clauses[0]
	} else {
		joined = strings.Join(clauses[:len(clauses)-1], ", ") + " and " + clauses[len(clauses)-1]
	}
	return "Okay, the restaurant should " + joined + ". "
}

func feedbackClause(slot, value string) string {
	any := IsAny(value)
	switch slot {
	case catalog.SlotPriceRange:
		if any {
			return "be in any price range"
		}
		return "be " + value + " priced"
	case catalog.SlotArea:
		if any {
			return "be in any part of town"
		}
		return "be in the " + value + " part of town"
	case catalog.SlotFood:
		if any {
			return "serve any kind of food"
		}
		return "serve " + value + " food"
	case catalog.SlotRequirement:
		return "be " + value
	}
	return "have " + value + " " + slot
}

// reset clears the accumulated preferences for a restarted conversation.
func (m *Machine) reset() {
	m.session.Prefs = make(Preferences)
	m.session.OldPrefs = make(Preferences)
}
