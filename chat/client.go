package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// DefaultResponsePath is where the answer is found in the backend response.
const DefaultResponsePath = "$.response"

// RemoteError reports a failed exchange with a remote chat backend.
type RemoteError struct {
	StatusCode int // 0 if no response was received
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat backend answered %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat backend failed: %v", e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Client is a Backend calling a remote service with "POST {BaseURL}/chat".
//
// No timeout is applied beyond the one of the context.
type Client struct {
	BaseURL      string
	HTTP         *http.Client // http.DefaultClient if nil
	ResponsePath string       // JSONPath to the answer, DefaultResponsePath if empty
}

// NewClient returns a Client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Client) Reply(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("cannot encode chat request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return "", &RemoteError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RemoteError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(buf.String()))}
	}

	var jobj any
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		return "", &RemoteError{StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	path := c.ResponsePath
	if path == "" {
		path = DefaultResponsePath
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", &RemoteError{StatusCode: resp.StatusCode, Err: fmt.Errorf("no answer at %q: %w", path, err)}
	}
	// jsonpath may return a list of one answer, or the answer itself.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	text, ok := jval.(string)
	if !ok {
		return "", &RemoteError{StatusCode: resp.StatusCode, Err: fmt.Errorf("answer at %q is %T, not a string", path, jval)}
	}
	return text, nil
}
