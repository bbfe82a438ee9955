package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/etnz/networth"
	"github.com/etnz/networth/chat"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeGenerator replays answers and records what it was asked.
type fakeGenerator struct {
	answers []*genai.Content
	err     error
	calls   [][]*genai.Content
	configs []*genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, contents)
	f.configs = append(f.configs, config)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.answers) == 0 {
		return &genai.GenerateContentResponse{}, nil
	}
	c := f.answers[0]
	f.answers = f.answers[1:]
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: c}}}, nil
}

func say(s string) *genai.Content {
	return &genai.Content{Role: roleModel, Parts: []*genai.Part{{Text: s}}}
}

func call(name string, args map[string]any) *genai.Content {
	return &genai.Content{Role: roleModel, Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{ID: "c1", Name: name, Args: args}}}}
}

func testAccounts(t *testing.T) networth.Accounts {
	t.Helper()
	var list networth.Accounts
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"c1","name":"Main","type":"Checking","currency":"USD","currentAmount":2500},
		{"id":"cc","name":"Visa","type":"Credit Card","currency":"USD","outstandingDebt":1200.5}
	]`), &list))
	for _, a := range list {
		networth.Derive(a)
	}
	return list
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{say(`{"summary":"You are on track."}`)}}
	out, err := New(gen, "").Summarize(context.Background(), SummaryInput{FinancialData: "[]", Goal: "retirement", UserPrompt: "am I ok?"})
	require.NoError(t, err)
	assert.Equal(t, "You are on track.", out.Summary)

	require.Len(t, gen.calls, 1)
	p := gen.calls[0][0].Parts[0].Text
	assert.Contains(t, p, "Goal: retirement")
	assert.Contains(t, p, "User Prompt: am I ok?")
	assert.Equal(t, "application/json", gen.configs[0].ResponseMIMEType)
	assert.Equal(t, []string{"summary"}, gen.configs[0].ResponseSchema.Required)
}

func TestAdvise(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{say(`{"advice":"Diversify.","disclaimer":"Not financial advice."}`)}}
	out, err := New(gen, "").Advise(context.Background(), AdviceInput{RiskTolerance: "low", InvestmentGoals: "house"})
	require.NoError(t, err)
	assert.Equal(t, AdviceOutput{Advice: "Diversify.", Disclaimer: "Not financial advice."}, out)
	assert.Contains(t, gen.calls[0][0].Parts[0].Text, "low")
}

func TestAdviseIncomplete(t *testing.T) {
	tests := []struct {
		name   string
		answer *genai.Content
	}{
		{"no disclaimer", say(`{"advice":"Diversify."}`)},
		{"not json", say(`Diversify.`)},
		{"empty", &genai.Content{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{answers: []*genai.Content{tt.answer}}
			_, err := New(gen, "").Advise(context.Background(), AdviceInput{})
			assert.Error(t, err)
		})
	}
}

func TestGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	_, err := New(gen, "").Summarize(context.Background(), SummaryInput{})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestFinancialData(t *testing.T) {
	data, err := FinancialData(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", data)

	data, err = FinancialData(testAccounts(t))
	require.NoError(t, err)
	assert.Contains(t, data, `"outstandingDebt": 1200.5`)
	assert.Contains(t, data, `"balance": -1200.5`)
}

func TestExpertFunctionCalls(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{
		call("double", map[string]any{"n": 21.0}),
		say("It is 42."),
	}}
	double := &Func{
		Decl: &genai.FunctionDeclaration{Name: "double"},
		Func: func(ctx context.Context, args map[string]any) (any, error) {
			return args["n"].(float64) * 2, nil
		},
	}
	e := &Expert{Name: "test", Library: NewLibrary([]Function{double})}
	content, err := e.Ask(context.Background(), gen, nil, &genai.Part{Text: "double 21"})
	require.NoError(t, err)
	assert.Equal(t, "It is 42.", text(content))

	// second round: question, function call, function response.
	require.Len(t, gen.calls, 2)
	second := gen.calls[1]
	require.Len(t, second, 3)
	assert.Equal(t, roleModel, second[1].Role)
	resp := second[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, 42.0, resp.Response["output"])
}

func TestExpertUnknownFunction(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{call("nope", nil), say("sorry")}}
	e := &Expert{Name: "test", Library: NewLibrary([]Function{})}
	_, err := e.Ask(context.Background(), gen, nil, &genai.Part{Text: "?"})
	require.NoError(t, err)
	resp := gen.calls[1][2].Parts[0].FunctionResponse
	assert.Equal(t, "unknown function nope", resp.Response["error"])
}

func TestExpertTooManyCalls(t *testing.T) {
	var answers []*genai.Content
	for range maxCalls {
		answers = append(answers, call("loop", nil))
	}
	gen := &fakeGenerator{answers: answers}
	loop := &Func{
		Decl: &genai.FunctionDeclaration{Name: "loop"},
		Func: func(ctx context.Context, args map[string]any) (any, error) { return "again", nil },
	}
	e := &Expert{Name: "test", Library: NewLibrary([]Function{loop})}
	_, err := e.Ask(context.Background(), gen, nil, &genai.Part{Text: "?"})
	assert.ErrorContains(t, err, "too many function calls")
}

func TestExpertWithoutLibrary(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{call("any", nil)}}
	e := &Expert{Name: "test"}
	_, err := e.Ask(context.Background(), gen, nil, &genai.Part{Text: "?"})
	assert.Error(t, err)
}

func TestAssistantReply(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{
		call("get_account", map[string]any{"id": "cc"}),
		say("Your Visa owes 1200.50."),
	}}
	a := NewAssistant(gen, "", zerolog.Nop())
	req := chat.Request{
		UserDetails: &networth.Profile{Name: "Ada", Age: 36},
		Accounts:    testAccounts(t),
		ChatMessages: []chat.Message{
			{ID: "1", Sender: chat.User, Text: "hello"},
			{ID: "2", Sender: chat.Bot, Text: "hi"},
			{ID: "3", Sender: chat.Bot, Text: "Thinking...", IsLoading: true},
			{ID: "4", Sender: chat.User, Text: "what about my visa?"},
		},
	}
	answer, err := a.Reply(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Your Visa owes 1200.50.", answer)

	first := gen.calls[0]
	require.Len(t, first, 3, "loading message is not part of the history")
	assert.Equal(t, []string{roleUser, roleModel, roleUser}, []string{first[0].Role, first[1].Role, first[2].Role})
	assert.Equal(t, "what about my visa?", first[2].Parts[0].Text)

	instructions := gen.configs[0].SystemInstruction.Parts[0].Text
	assert.Contains(t, instructions, "Name: Ada")
	assert.Contains(t, instructions, "Age: 36")

	resp := gen.calls[1][4].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Contains(t, resp.Response["output"], `"outstandingDebt":1200.5`)
}

func TestAssistantTools(t *testing.T) {
	lib := NewLibrary(accountTools(testAccounts(t)))
	ctx := context.Background()

	list := lib(ctx, &genai.FunctionCall{Name: "list_accounts"})
	assert.Contains(t, list.Response["output"], "Visa")

	worth := lib(ctx, &genai.FunctionCall{Name: "net_worth"})
	assert.Contains(t, worth.Response["output"], "USD")

	missing := lib(ctx, &genai.FunctionCall{Name: "get_account", Args: map[string]any{"id": "x"}})
	assert.Contains(t, missing.Response["error"], `no account with id "x"`)

	bad := lib(ctx, &genai.FunctionCall{Name: "get_account", Args: map[string]any{"id": 3}})
	assert.Contains(t, bad.Response["error"], "not a string")
}

func TestAssistantWithoutProfile(t *testing.T) {
	gen := &fakeGenerator{answers: []*genai.Content{say("ok")}}
	a := NewAssistant(gen, "", zerolog.Nop())
	_, err := a.Reply(context.Background(), chat.Request{ChatMessages: []chat.Message{{Sender: chat.User, Text: "hi"}}})
	require.NoError(t, err)
	assert.False(t, strings.Contains(gen.configs[0].SystemInstruction.Parts[0].Text, "About the user"))
}

func TestAssistantNoQuestion(t *testing.T) {
	a := NewAssistant(&fakeGenerator{}, "", zerolog.Nop())
	_, err := a.Reply(context.Background(), chat.Request{})
	assert.Error(t, err)
}
