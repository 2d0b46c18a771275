// ABOUTME: HTTP Exchanger - multipart POST to the chat backend
// ABOUTME: Applies fallback text when the backend omits response/agent fields

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// FallbackResponse replaces an absent response field in the backend's JSON.
	FallbackResponse = "Sorry, I couldn't process your request."
	// FallbackAgent replaces an absent agent field in the backend's JSON.
	FallbackAgent = "Unknown"

	defaultTimeout = 30 * time.Second
)

// HTTPExchanger posts user messages to the chat backend as multipart form
// data (field "prompt", optional file part "file") and decodes the JSON
// reply. It talks to the same-origin proxy in production, which forwards the
// body verbatim upstream.
type HTTPExchanger struct {
	endpoint string
	client   *http.Client
}

// NewHTTPExchanger creates an exchanger for the given endpoint. A zero
// timeout uses the default.
func NewHTTPExchanger(endpoint string, timeout time.Duration) *HTTPExchanger {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &HTTPExchanger{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// backendReply is the expected JSON response shape. Both fields are optional.
type backendReply struct {
	Response string `json:"response"`
	Agent    string `json:"agent"`
}

// Exchange performs the exchange. Non-2xx status, transport failure, and
// malformed JSON are all errors; the dispatcher turns them into a system
// failure message.
func (e *HTTPExchanger) Exchange(ctx context.Context, req *Request) (*Reply, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("prompt", req.Prompt); err != nil {
		return nil, fmt.Errorf("encoding prompt: %w", err)
	}
	if len(req.Image) > 0 {
		name := req.ImageName
		if name == "" {
			name = "upload"
		}
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			return nil, fmt.Errorf("encoding image: %w", err)
		}
		if _, err := part.Write(req.Image); err != nil {
			return nil, fmt.Errorf("encoding image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var br backendReply
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}

	reply := &Reply{Response: br.Response, Agent: br.Agent}
	if reply.Response == "" {
		reply.Response = FallbackResponse
	}
	if reply.Agent == "" {
		reply.Agent = FallbackAgent
	}
	return reply, nil
}
