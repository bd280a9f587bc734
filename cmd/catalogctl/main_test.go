package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeCommands(t *testing.T) {
	prefs := filepath.Join(t.TempDir(), "prefs.json")

	var out bytes.Buffer
	require.NoError(t, run([]string{"--prefs", prefs, "theme"}, &out))
	assert.Equal(t, "sunset\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"--prefs", prefs, "theme", "set", "ocean"}, &out))

	out.Reset()
	require.NoError(t, run([]string{"--prefs", prefs, "theme", "get"}, &out))
	assert.Equal(t, "ocean\n", out.String())

	assert.Error(t, run([]string{"--prefs", prefs, "theme", "set", ""}, &out))
}

func TestProductsCreate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"name":"Mug","image":"https://img/m.png","price":"8.00"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run([]string{"--addr", srv.URL, "products", "create", "--name", "Mug", "--image", "https://img/m.png", "--price", "8"}, &out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Mug","image":"https://img/m.png","price":"8.00"}`, body)
	assert.Contains(t, out.String(), `"price": "8.00"`)
}

func TestProductsArgumentErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"products", "get", "abc"}, &out))
	assert.Error(t, run([]string{"products", "delete"}, &out))
	assert.Error(t, run([]string{"products", "create", "--price", "nope"}, &out))
	assert.Error(t, run([]string{"nonsense"}, &out))
}
