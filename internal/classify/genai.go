package classify

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// =============================================================================
// GOOGLE GENAI CLASSIFIER
// =============================================================================

// GenAIClassifier labels utterances with Google's Gemini API. The model is
// constrained to the fixed vocabulary by the prompt; any answer outside it
// is coerced to Null so the dialog engine never sees a foreign label.
type GenAIClassifier struct {
	client *genai.Client
	model  string
}

// NewGenAIClassifier creates a GenAI-backed classifier.
func NewGenAIClassifier(ctx context.Context, apiKey, model string) (*GenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClassifier{client: client, model: model}, nil
}

const classifyPrompt = `You are a dialog-act classifier for a restaurant
recommendation system. Label the user utterance with exactly one of:
ack, affirm, bye, confirm, deny, hello, inform, negate, null, repeat,
reqalts, reqmore, request, restart, thankyou.
Answer with the label only, nothing else.

Utterance: %q`

// Classify sends the utterance to the model and parses the single-label
// answer. Transport errors are returned to the caller; off-vocabulary
// answers degrade to Null.
func (c *GenAIClassifier) Classify(ctx context.Context, utterance string) (Intent, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(classifyPrompt, utterance), genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return Null, fmt.Errorf("GenAI classify failed: %w", err)
	}

	label := Intent(strings.ToLower(strings.TrimSpace(result.Text())))
	if !Valid(label) {
		return Null, nil
	}
	return label, nil
}
