package advisor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Library answers the function calls made by a model.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

// Function is a tool the model can call.
type Function interface {
	// Declare this function
	Declaration() *genai.FunctionDeclaration
	// Call this function
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// NewLibrary dispatches function calls to functions by name.
func NewLibrary[T Function](functions []T) Library {
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		for _, f := range functions {
			if f.Declaration().Name == call.Name {
				return f.Call(ctx, call.ID, call.Args)
			}
		}
		return failure(call.ID, call.Name, fmt.Errorf("unknown function %s", call.Name))
	}
}

// NewDeclaration returns the declarations of functions, for a genai.Tool.
func NewDeclaration[T Function](functions []T) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(functions))
	for _, f := range functions {
		result = append(result, f.Declaration())
	}
	return result
}

// Func implements a simple Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, args map[string]any) (any, error)
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }

// Call runs the function, its error or its output is sent back to the model.
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	out, err := f.Func(ctx, args)
	if err != nil {
		return failure(id, f.Decl.Name, err)
	}
	return &genai.FunctionResponse{
		ID:       id,
		Name:     f.Decl.Name,
		Response: map[string]any{"output": out},
	}
}

func failure(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"error": err.Error()},
	}
}
