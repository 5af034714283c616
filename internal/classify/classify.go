// Package classify provides the dialog-act classification boundary.
// The dialog engine treats the classifier as a black box: every user
// utterance is mapped to exactly one intent label from the fixed
// vocabulary below, with Null as the unknown bucket.
package classify

import "context"

// Intent is a dialog-act label for a single user utterance.
type Intent string

const (
	Ack      Intent = "ack"
	Affirm   Intent = "affirm"
	Bye      Intent = "bye"
	Confirm  Intent = "confirm"
	Deny     Intent = "deny"
	Hello    Intent = "hello"
	Inform   Intent = "inform"
	Negate   Intent = "negate"
	Null     Intent = "null"
	Repeat   Intent = "repeat"
	ReqAlts  Intent = "reqalts"
	ReqMore  Intent = "reqmore"
	Request  Intent = "request"
	Restart  Intent = "restart"
	ThankYou Intent = "thankyou"
)

// Vocabulary lists every label a classifier may return, in sorted order.
var Vocabulary = []Intent{
	Ack, Affirm, Bye, Confirm, Deny, Hello, Inform, Negate,
	Null, Repeat, ReqAlts, ReqMore, Request, Restart, ThankYou,
}

// Valid reports whether label is part of the classifier vocabulary.
func Valid(label Intent) bool {
	for _, in := range Vocabulary {
		if in == label {
			return true
		}
	}
	return false
}

// Classifier maps a raw utterance to a dialog-act intent.
// Implementations must always return a vocabulary member; anything a
// backend cannot place lands in Null.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (Intent, error)
}
