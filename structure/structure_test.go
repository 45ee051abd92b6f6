package structure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"pdf2epub/common"
	"pdf2epub/config"
)

type fakeClient struct {
	content string
	err     error
	noReply bool
	got     openai.ChatCompletionRequest
	calls   int
}

func (c *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.got = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	if c.noReply {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content}, FinishReason: openai.FinishReasonStop},
		},
	}, nil
}

type recorder struct {
	percents []float64
}

func (r *recorder) Report(percent float64, step common.Step) {
	if step != common.StepAnalyzingContent {
		panic("unexpected step " + step.String())
	}
	r.percents = append(r.percents, percent)
}

func TestStructure(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))

	tests := []struct {
		name         string
		client       *fakeClient
		wantTitle    string
		wantAuthor   string
		wantChapters int
		wantErr      error
		wantProgress []float64
	}{
		{
			name:         "valid",
			client:       &fakeClient{content: `{"title":"T","author":"A","chapters":[{"title":"C1","content":"<p>x</p>"}]}`},
			wantTitle:    "T",
			wantAuthor:   "A",
			wantChapters: 1,
			wantProgress: []float64{10, 80, 100},
		},
		{
			name:         "code fence",
			client:       &fakeClient{content: "```json\n{\"title\":\"T\",\"author\":\"A\",\"chapters\":[]}\n```"},
			wantTitle:    "T",
			wantAuthor:   "A",
			wantProgress: []float64{10, 80, 100},
		},
		{
			name:         "missing author",
			client:       &fakeClient{content: `{"title":"T","chapters":[{"title":"C1","content":""},{"title":"C2","content":""}]}`},
			wantTitle:    "T",
			wantAuthor:   "Unknown Author",
			wantChapters: 2,
			wantProgress: []float64{10, 80, 100},
		},
		{
			name:         "missing title",
			client:       &fakeClient{content: `{"author":"A","chapters":[]}`},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10, 80},
		},
		{
			name:         "missing chapters",
			client:       &fakeClient{content: `{"title":"T","author":"A"}`},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10, 80},
		},
		{
			name:         "chapters not array",
			client:       &fakeClient{content: `{"title":"T","author":"A","chapters":"none"}`},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10, 80},
		},
		{
			name:         "not json",
			client:       &fakeClient{content: "I could not structure this document, sorry."},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10, 80},
		},
		{
			name:         "empty content",
			client:       &fakeClient{content: "  "},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10, 80},
		},
		{
			name:         "no choices",
			client:       &fakeClient{noReply: true},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10, 80},
		},
		{
			name:         "transport failure",
			client:       &fakeClient{err: errors.New("connection refused")},
			wantErr:      common.ErrStructuringFailed,
			wantProgress: []float64{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			s := NewWithClient(tt.client, "test-model", 0.2, log)

			b, err := s.Structure(context.Background(), "raw text", rec)

			if len(rec.percents) != len(tt.wantProgress) {
				t.Errorf("progress = %v, want %v", rec.percents, tt.wantProgress)
			} else {
				for i := range rec.percents {
					if rec.percents[i] != tt.wantProgress[i] {
						t.Errorf("progress = %v, want %v", rec.percents, tt.wantProgress)
						break
					}
				}
			}
			if tt.client.calls != 1 {
				t.Errorf("client called %d times, want 1", tt.client.calls)
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Structure() error = %v, want %v", err, tt.wantErr)
				}
				if b != nil {
					t.Errorf("Structure() returned book with error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Structure() error = %v", err)
			}
			if b.Title != tt.wantTitle || b.Author != tt.wantAuthor || len(b.Chapters) != tt.wantChapters {
				t.Errorf("Structure() = %+v", b)
			}
			if b.Chapters == nil {
				t.Error("Chapters must not be nil")
			}
		})
	}
}

func TestStructure_Request(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
	client := &fakeClient{content: `{"title":"T","author":"A","chapters":[]}`}

	if _, err := NewWithClient(client, "some-model", 0.7, log).Structure(context.Background(), "the whole text", nil); err != nil {
		t.Fatalf("Structure() error = %v", err)
	}

	req := client.got
	if req.Model != "some-model" || req.Temperature != 0.7 {
		t.Errorf("request model/temperature = %s/%v", req.Model, req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[1].Role != openai.ChatMessageRoleUser {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if req.Messages[1].Content != "the whole text" {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONSchema || req.ResponseFormat.JSONSchema == nil {
		t.Fatalf("unexpected response format: %+v", req.ResponseFormat)
	}

	schema, err := json.Marshal(req.ResponseFormat.JSONSchema.Schema)
	if err != nil {
		t.Fatalf("schema marshal error = %v", err)
	}
	for _, want := range []string{`"title"`, `"author"`, `"chapters"`, `"content"`, `"required"`} {
		if !strings.Contains(string(schema), want) {
			t.Errorf("schema misses %s: %s", want, schema)
		}
	}
}

func TestNew_MissingCredential(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))

	_, err := New(&config.StructurerConfig{Model: "m"}, log)
	if !errors.Is(err, common.ErrMissingCredential) {
		t.Errorf("New() error = %v, want %v", err, common.ErrMissingCredential)
	}
}

func TestNew_DefaultConfigurationWithoutKey(t *testing.T) {
	t.Setenv("PDF2EPUB_API_KEY", "")
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if _, err := New(&cfg.Structurer, log); !errors.Is(err, common.ErrMissingCredential) {
		t.Errorf("New() error = %v, want %v", err, common.ErrMissingCredential)
	}
}

func TestNew_AgainstServer(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{"id":"1","object":"chat.completion","model":"m","choices":[{"index":0,"finish_reason":"stop",` +
				`"message":{"role":"assistant","content":"{\"title\":\"Remote\",\"author\":\"Writer\",\"chapters\":[{\"title\":\"One\",\"content\":\"<p>1</p>\"}]}"}}],` +
				`"usage":{"prompt_tokens":5,"completion_tokens":7,"total_tokens":12}}`,
		},
		{
			name:    "api error",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"API key not valid","type":"invalid_request_error","code":"invalid_api_key"}}`,
			wantErr: common.ErrStructuringFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotPath string
			var gotReq openai.ChatCompletionRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth, gotPath = r.Header.Get("Authorization"), r.URL.Path
				data, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(data, &gotReq)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			s, err := New(&config.StructurerConfig{APIKey: "secret-key", BaseURL: srv.URL + "/v1beta/openai/", Model: "m", Temperature: 0.1}, log)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			b, err := s.Structure(context.Background(), "text", nil)
			if gotAuth != "Bearer secret-key" {
				t.Errorf("Authorization = %q", gotAuth)
			}
			if gotPath != "/v1beta/openai/chat/completions" {
				t.Errorf("path = %q", gotPath)
			}
			if gotReq.Model != "m" {
				t.Errorf("model = %q", gotReq.Model)
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Structure() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Structure() error = %v", err)
			}
			if b.Title != "Remote" || b.Author != "Writer" || len(b.Chapters) != 1 || b.Chapters[0].Content != "<p>1</p>" {
				t.Errorf("Structure() = %+v", b)
			}
		})
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "  {\"a\":1}\n", want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{in: "```json{\"a\":1}```", want: `{"a":1}`},
	}
	for _, tt := range tests {
		if got := string(stripFence(tt.in)); got != tt.want {
			t.Errorf("stripFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
