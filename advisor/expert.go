// Package advisor produces financial summaries, investment advice and chat
// answers from the user's accounts, using Gemini models.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// maxCalls bounds the function calls a model can chain to answer one question.
const maxCalls = 8

const (
	roleUser  = "user"
	roleModel = "model"
)

// Generator generates content from a model. It is implemented by the
// Models service of a *genai.Client.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenerator connects to the Gemini API with apiKey.
func NewGenerator(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key, set GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// Expert is a model with its instructions and tools.
type Expert struct {
	Name      string
	ModelName string
	Config    *genai.GenerateContentConfig
	Library   Library
}

// Ask sends history followed by parts as a user turn, and returns the model answer.
//
// Function calls requested by the model are answered from the Library, and
// the model is asked again until it answers with text.
func (e *Expert) Ask(ctx context.Context, gen Generator, history []*genai.Content, parts ...*genai.Part) (*genai.Content, error) {
	contents := append(history[:len(history):len(history)], &genai.Content{Role: roleUser, Parts: parts})
	for range maxCalls {
		resp, err := gen.GenerateContent(ctx, e.ModelName, contents, e.Config)
		if err != nil {
			return nil, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("no response from expert %s", e.Name)
		}
		content := resp.Candidates[0].Content

		var calls []*genai.FunctionCall
		for _, p := range content.Parts {
			if p.FunctionCall != nil {
				calls = append(calls, p.FunctionCall)
			}
		}
		if len(calls) == 0 {
			return content, nil
		}
		if e.Library == nil {
			return nil, fmt.Errorf("expert %s doesn't know how to make function calls", e.Name)
		}

		// Answer every call, and ask again the expert with the responses.
		answers := &genai.Content{Role: roleUser}
		for _, call := range calls {
			answers.Parts = append(answers.Parts, &genai.Part{FunctionResponse: e.Library(ctx, call)})
		}
		content.Role = roleModel
		contents = append(contents, content, answers)
	}
	return nil, fmt.Errorf("expert %s made too many function calls", e.Name)
}

// text concatenates the text parts of c.
func text(c *genai.Content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
