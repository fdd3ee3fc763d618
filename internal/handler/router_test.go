package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naga-ia/agente/backend/internal/model/persona"
	"github.com/naga-ia/agente/backend/internal/service/ai"
	chatService "github.com/naga-ia/agente/backend/internal/service/chat"
	"github.com/naga-ia/agente/backend/internal/service/knowledge"
)

// recordingModel captures every prompt sent to the completion model.
type recordingModel struct {
	mu      sync.Mutex
	prompts []string
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, input[len(input)-1].Content)
	return schema.AssistantMessage("Olá! Como posso ajudar?", nil), nil
}

func (m *recordingModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type fixture struct {
	router http.Handler
	model  *recordingModel
	chat   *chatService.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	personas := persona.NewFileStore(filepath.Join(dir, "prompt.txt"))
	store := knowledge.NewStore(filepath.Join(dir, "base.csv"), filepath.Join(dir, "qa_log.csv"))
	unanswered := knowledge.NewUnansweredLog(filepath.Join(dir, "perguntas_sem_resposta.csv"))

	rec := &recordingModel{}
	composer := ai.NewComposer(personas, ai.WithNow(func() time.Time {
		return time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	}))
	chatSvc := chatService.NewService(composer, ai.NewClient(rec, time.Second), store)
	store.SetReloadFunc(func() {
		require.NoError(t, chatSvc.Reload(context.Background()))
	})

	return &fixture{
		router: NewRouter(personas, store, unanswered, chatSvc),
		model:  rec,
		chat:   chatSvc,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp.Code, resp.Body.Bytes()
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","message":"Naga IA Backend funcionando"}`, string(body))
}

func TestKnowledgeBaseEndToEnd(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/qa", map[string]string{"pergunta": "Qual o horário?", "resposta": "8h às 18h"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	code, body = f.do(t, http.MethodGet, "/qa", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"pergunta":"Qual o horário?","resposta":"8h às 18h"}]`, string(body))

	code, body = f.do(t, http.MethodPost, "/qa", map[string]string{"pergunta": "QUAL O HORARIO?", "resposta": "outra"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "Pergunta já existe na base.")

	assert.Len(t, f.chat.Knowledge(), 1)
}

func TestSecondAskSkipsGreetingInstruction(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/ask", map[string]string{"pergunta": "oi"})
	require.Equal(t, http.StatusOK, code)
	var first map[string]string
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Equal(t, "Olá! Como posso ajudar?", first["resposta"])
	sessionID := first["session_id"]
	require.NotEmpty(t, sessionID)

	code, body = f.do(t, http.MethodPost, "/ask", map[string]string{"pergunta": "oi", "session_id": sessionID})
	require.Equal(t, http.StatusOK, code)
	var second map[string]string
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, sessionID, second["session_id"])

	require.Len(t, f.model.prompts, 2)
	assert.Contains(t, f.model.prompts[0], "PRIMEIRA mensagem")
	assert.Contains(t, f.model.prompts[0], "Horário atual em Brasília: 10:00 (Bom dia)")
	assert.NotContains(t, f.model.prompts[1], "PRIMEIRA mensagem")
	assert.NotContains(t, f.model.prompts[1], "Horário atual")
	assert.Contains(t, f.model.prompts[1], "NÃO se apresente novamente")
	assert.Contains(t, f.model.prompts[1], "Cliente: oi\nAtendente: Olá! Como posso ajudar?")
}

func TestPromptEditAppliesToNextAsk(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodPost, "/api/prompt", map[string]string{"prompt": "Você é a Naga, da Pizzaria Central."})
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(t, http.MethodGet, "/api/prompt", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"prompt":"Você é a Naga, da Pizzaria Central."}`, string(body))

	code, _ = f.do(t, http.MethodPost, "/ask", map[string]string{"pergunta": "oi"})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, f.model.prompts, 1)
	assert.Contains(t, f.model.prompts[0], "Você é a Naga, da Pizzaria Central.")
}

func TestReloadClearsSessions(t *testing.T) {
	f := newFixture(t)

	_, _ = f.do(t, http.MethodPost, "/ask", map[string]string{"pergunta": "oi", "session_id": "abc"})
	require.True(t, f.chat.Sessions().Seen("abc"))

	code, body := f.do(t, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.False(t, f.chat.Sessions().Seen("abc"))

	_, _ = f.do(t, http.MethodPost, "/ask", map[string]string{"pergunta": "oi", "session_id": "abc"})
	require.Len(t, f.model.prompts, 2)
	assert.Contains(t, f.model.prompts[1], "PRIMEIRA mensagem")
}
