package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/grocery-core/pkg/api/dto"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_OpenLinkSendsRequest(t *testing.T) {
	var got dto.OpenLinkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/deeplinks", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusAccepted, dto.NewSuccessResponse(map[string]string{"url": got.URL}))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL+"/").OpenLink("grocerylist://invite/abc", "cli"))
	assert.Equal(t, "grocerylist://invite/abc", got.URL)
	assert.Equal(t, "cli", got.Source)
}

func TestClient_OutcomeWithNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, dto.NewSuccessResponse(dto.OutcomeResponse{Outcome: "no_pending"}))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Accept()
	require.NoError(t, err)
	assert.Equal(t, "no_pending", resp.Outcome)
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, dto.NewErrorResponse(503, "存储未配置"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lists()
	require.Error(t, err)
	assert.Equal(t, "存储未配置", err.Error())
}

func TestClient_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Banner()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析响应失败")
}

func TestClient_WatchBanner(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/banner/ws", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for i, text := range []string{"", "one", "two"} {
			require.NoError(t, conn.WriteJSON(dto.BannerResponse{Text: text, Version: uint64(i)}))
		}
		// 等待客户端关闭
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	var texts []string
	err := New(srv.URL).WatchBanner(func(msg dto.BannerResponse) bool {
		texts = append(texts, msg.Text)
		return msg.Text != "two"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "one", "two"}, texts)
}

func TestClient_WebSocketURL(t *testing.T) {
	u, err := New("https://example.com:8443").wsURL("/x")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com:8443/x", u)

	u, err = New("http://127.0.0.1:8080").wsURL("/x")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8080/x", u)
}
