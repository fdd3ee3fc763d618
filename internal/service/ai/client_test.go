package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, url string, timeout time.Duration) *DeepSeekModel {
	t.Helper()
	m, err := NewDeepSeekModel(DeepSeekConfig{
		BaseURL:    url,
		APIKey:     "test-key",
		HTTPClient: &http.Client{Timeout: timeout},
	})
	require.NoError(t, err)
	return m
}

func TestCompleteReturnsMessageContent(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Abrimos às 8h."}}]}`))
	}))
	defer srv.Close()

	client := NewClient(newTestModel(t, srv.URL, time.Second), time.Second)
	reply := client.Complete(context.Background(), "Qual o horário?")

	assert.Equal(t, "Abrimos às 8h.", reply)
	assert.Equal(t, DefaultDeepSeekModel, got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Qual o horário?", got.Messages[0].Content)
}

func TestCompleteApologizesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(newTestModel(t, srv.URL, time.Second), time.Second)
	assert.Equal(t, ApologyReply, client.Complete(context.Background(), "oi"))
}

func TestCompleteApologizesOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(newTestModel(t, srv.URL, 5*time.Second), 50*time.Millisecond)
	assert.Equal(t, ApologyReply, client.Complete(context.Background(), "oi"))
}

func TestCompleteApologizesOnMalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":               `<html>`,
		"no choices":             `{"choices":[]}`,
		"no choices key":         `{"id":"x"}`,
		"choice without message": `{"choices":[{}]}`,
		"null content":           `{"choices":[{"message":{"role":"assistant","content":null}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			client := NewClient(newTestModel(t, srv.URL, time.Second), time.Second)
			assert.Equal(t, ApologyReply, client.Complete(context.Background(), "oi"))
		})
	}
}

func TestCompleteApologizesOnUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(newTestModel(t, url, time.Second), time.Second)
	assert.Equal(t, ApologyReply, client.Complete(context.Background(), "oi"))
}

type panickingModel struct{}

func (panickingModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	panic("unexpected")
}

func (panickingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	panic("unexpected")
}

func TestCompleteApologizesOnPanicAndMissingModel(t *testing.T) {
	assert.Equal(t, ApologyReply, NewClient(panickingModel{}, 0).Complete(context.Background(), "oi"))
	assert.Equal(t, ApologyReply, NewClient(nil, 0).Complete(context.Background(), "oi"))
}

func TestNewDeepSeekModelRequiresKey(t *testing.T) {
	_, err := NewDeepSeekModel(DeepSeekConfig{})
	assert.Error(t, err)
}

func TestDeepSeekStreamYieldsSingleChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	sr, err := newTestModel(t, srv.URL, time.Second).Stream(context.Background(), []*schema.Message{schema.UserMessage("oi")})
	require.NoError(t, err)
	defer sr.Close()

	msg, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
}
