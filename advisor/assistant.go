package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/networth"
	"github.com/etnz/networth/chat"
	"github.com/etnz/networth/renderer"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Assistant is a chat.Backend answering with a Gemini model.
//
// The model reads the accounts of the request through function calls.
type Assistant struct {
	gen   Generator
	model string
	log   zerolog.Logger
}

// NewAssistant returns an Assistant generating with model, DefaultModel if empty.
func NewAssistant(gen Generator, model string, log zerolog.Logger) *Assistant {
	if model == "" {
		model = DefaultModel
	}
	return &Assistant{gen: gen, model: model, log: log.With().Str("component", "assistant").Logger()}
}

// Reply answers the last user message of req.
func (a *Assistant) Reply(ctx context.Context, req chat.Request) (string, error) {
	msgs := req.ChatMessages
	if len(msgs) == 0 || msgs[len(msgs)-1].Sender != chat.User {
		return "", errors.New("no question to answer")
	}
	instructions, err := prompt("assistant.md", req.UserDetails)
	if err != nil {
		return "", err
	}

	tools := accountTools(req.Accounts)
	e := &Expert{
		Name:      "Assistant",
		ModelName: a.model,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instructions}}},
			Tools:             []*genai.Tool{{FunctionDeclarations: NewDeclaration(tools)}},
		},
		Library: NewLibrary(tools),
	}

	var history []*genai.Content
	for _, m := range msgs[:len(msgs)-1] {
		if m.IsLoading || strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := roleUser
		if m.Sender == chat.Bot {
			role = roleModel
		}
		history = append(history, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Text}}})
	}

	content, err := e.Ask(ctx, a.gen, history, &genai.Part{Text: msgs[len(msgs)-1].Text})
	if err != nil {
		return "", err
	}
	answer := text(content)
	a.log.Debug().Int("history", len(history)).Int("chars", len(answer)).Msg("answered")
	return answer, nil
}

// accountTools are the functions reading accounts.
func accountTools(accounts networth.Accounts) []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "list_accounts",
				Description: "Lists all the user's accounts grouped by type, with their id, name and balance.",
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown document with one table per account type.",
				},
			},
			Func: func(ctx context.Context, args map[string]any) (any, error) {
				return renderer.RenderAccounts(accounts), nil
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "get_account",
				Description: "Returns every detail of a single account: balance, rates, fees, holdings, transactions or payments depending on its type.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id": {Type: genai.TypeString, Description: "The account id, as found with list_accounts."},
					},
					Required: []string{"id"},
				},
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "The account as a JSON object.",
				},
			},
			Func: func(ctx context.Context, args map[string]any) (any, error) {
				id, ok := args["id"].(string)
				if !ok {
					return nil, fmt.Errorf("argument 'id' is not a string as expected but %T", args["id"])
				}
				for _, acc := range accounts {
					if acc.Common().ID == id {
						data, err := json.Marshal(acc)
						return string(data), err
					}
				}
				return nil, fmt.Errorf("no account with id %q, use list_accounts to find ids", id)
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "net_worth",
				Description: "Returns the user's total assets, liabilities and net worth for each currency.",
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown table with one row per currency.",
				},
			},
			Func: func(ctx context.Context, args map[string]any) (any, error) {
				return renderer.RenderNetWorth(networth.NetWorth(accounts)), nil
			},
		},
	}
}
