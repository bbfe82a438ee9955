package advisor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/etnz/networth"
	"google.golang.org/genai"
)

//go:embed prompts/*.md
var promptsFS embed.FS

var prompts = template.Must(template.ParseFS(promptsFS, "prompts/*.md"))

func prompt(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("cannot build prompt %s: %w", name, err)
	}
	return b.String(), nil
}

// FinancialData is the JSON projection of accounts given to the models.
func FinancialData(accounts networth.Accounts) (string, error) {
	if accounts == nil {
		accounts = networth.Accounts{}
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot encode financial data: %w", err)
	}
	return string(data), nil
}

// SummaryInput is what the summary flow needs.
type SummaryInput struct {
	FinancialData string `json:"financialData"` // see FinancialData
	Goal          string `json:"goal"`          // like retirement, buying a house
	UserPrompt    string `json:"userPrompt"`
}

// SummaryOutput is the summary of the user's financial data in the context of their goal.
type SummaryOutput struct {
	Summary string `json:"summary"`
}

// AdviceInput is what the advice flow needs.
type AdviceInput struct {
	FinancialData   string `json:"financialData"`
	RiskTolerance   string `json:"riskTolerance"` // like low, medium, high
	InvestmentGoals string `json:"investmentGoals"`
	UserPrompt      string `json:"userPrompt"`
}

// AdviceOutput is personalized investment advice, always with a disclaimer.
type AdviceOutput struct {
	Advice     string `json:"advice"`
	Disclaimer string `json:"disclaimer"`
}

// Advisor runs the summary and advice flows.
type Advisor struct {
	gen   Generator
	model string
}

// New returns an Advisor generating with model, DefaultModel if empty.
func New(gen Generator, model string) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	return &Advisor{gen: gen, model: model}
}

// Summarize summarizes the user's financial data in the context of their goal.
func (a *Advisor) Summarize(ctx context.Context, in SummaryInput) (SummaryOutput, error) {
	var out SummaryOutput
	schema := object(map[string]string{
		"summary": "A summary of the user's financial data in the context of their goal.",
	})
	if err := a.generate(ctx, "summary.md", in, schema, &out); err != nil {
		return out, err
	}
	if out.Summary == "" {
		return out, fmt.Errorf("incomplete answer: no summary")
	}
	return out, nil
}

// Advise gives personalized investment advice.
func (a *Advisor) Advise(ctx context.Context, in AdviceInput) (AdviceOutput, error) {
	var out AdviceOutput
	schema := object(map[string]string{
		"advice":     "Personalized investment advice based on the user's financial data, risk tolerance, and investment goals.",
		"disclaimer": "A disclaimer stating that the advice is for informational purposes only and should not be considered financial advice.",
	})
	if err := a.generate(ctx, "advice.md", in, schema, &out); err != nil {
		return out, err
	}
	if out.Advice == "" || out.Disclaimer == "" {
		return out, fmt.Errorf("incomplete answer: advice and disclaimer are required")
	}
	return out, nil
}

// object is the schema of an object whose properties are all required strings.
func object(properties map[string]string) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	for name, description := range properties {
		s.Properties[name] = &genai.Schema{Type: genai.TypeString, Description: description}
		s.Required = append(s.Required, name)
	}
	return s
}

// generate renders the prompt template with in, and decodes the JSON answer into out.
func (a *Advisor) generate(ctx context.Context, tmpl string, in any, schema *genai.Schema, out any) error {
	p, err := prompt(tmpl, in)
	if err != nil {
		return err
	}
	e := &Expert{
		Name:      strings.TrimSuffix(tmpl, ".md"),
		ModelName: a.model,
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	content, err := e.Ask(ctx, a.gen, nil, &genai.Part{Text: p})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text(content)), out); err != nil {
		return fmt.Errorf("malformed %s answer: %w", e.Name, err)
	}
	return nil
}
