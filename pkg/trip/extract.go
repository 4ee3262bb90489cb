package trip

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

const slotSystemPrompt = "Your task is to find where the user is traveling from and to."

const slotPrompt = "Given this question %s, fill out the following fields: origin, destination, time, handicap. " +
	"If the user does not specify a time, use 'Now'. If the user does not specify a handicap, use 'None'. " +
	"If the user does not specify a location, use 'None'. "

// GenAIExtractor extracts slots with a Gemini structured-output call.
type GenAIExtractor struct {
	Client *genai.Client
	Model  string
}

func NewGenAIExtractor(client *genai.Client, model string) *GenAIExtractor {
	return &GenAIExtractor{Client: client, Model: model}
}

func slotSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"origin":      {Type: genai.TypeString, Description: "Where the user will travel from"},
			"destination": {Type: genai.TypeString, Description: "Where the user will travel to"},
			"time":        {Type: genai.TypeString, Description: "When the user will travel, if not, Now"},
			"handicap":    {Type: genai.TypeString, Description: "If the user uses a wheelchair or has reduced eyesight, if not, None"},
		},
		Required: []string{"origin", "destination", "time", "handicap"},
	}
}

func (e *GenAIExtractor) ExtractSlots(ctx context.Context, question string) (Slots, error) {
	resp, err := e.Client.Models.GenerateContent(ctx, e.Model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: fmt.Sprintf(slotPrompt, question)}}},
	}, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: slotSystemPrompt}}},
		Temperature:       genai.Ptr[float32](0.1),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    slotSchema(),
	})
	if err != nil {
		return Slots{}, fmt.Errorf("gemini API call failed: %w", err)
	}
	return ParseSlots(resp.Text())
}

// ParseSlots decodes the structured answer. Keys missing from the JSON stay nil.
func ParseSlots(raw string) (Slots, error) {
	var slots Slots
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return Slots{}, fmt.Errorf("failed to unmarshal slots: %w (raw: %s)", err, raw)
	}
	return slots, nil
}
