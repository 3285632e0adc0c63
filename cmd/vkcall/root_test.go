package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/access_token":
			w.Write([]byte(`{"access_token":"fresh"}`))
		case r.URL.Path == "/method/users.get":
			w.Write([]byte(`{"response":[{"id":` + r.URL.Query().Get("user_ids") + `}]}`))
		default:
			w.Write([]byte(`{"error":{"error_code":3,"error_msg":"Unknown method passed"}}`))
		}
	}))
	t.Cleanup(server.Close)

	t.Setenv("VK_APP_ID", "1")
	t.Setenv("VK_APP_SECRET", "s")
	t.Setenv("VK_ACCESS_TOKEN", "")
	t.Setenv("VK_MODE", "")
	t.Setenv("VK_TIMEOUT", "")
	t.Setenv("VK_API_VERSION", "")
	t.Setenv("VK_AUTH_URL", server.URL+"/access_token")
	t.Setenv("VK_API_URL", server.URL+"/method/")
	return server
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWith(t, &cliContext{}, args...)
}

func runWith(t *testing.T, cli *cliContext, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(cli)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cli.execute(cmd)
	return out.String(), err
}

func TestRoot_CallsMethod(t *testing.T) {
	newTestServer(t)

	out, err := run(t, "users.get", "user_ids=7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"response":[{"id":7}]}`, out)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRoot_APIErrorFails(t *testing.T) {
	newTestServer(t)

	_, err := run(t, "--token", "held", "nosuch.method")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown method passed")
}

func TestRoot_InvalidParam(t *testing.T) {
	newTestServer(t)

	_, err := run(t, "users.get", "user_ids")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestRoot_MissingCredentials(t *testing.T) {
	newTestServer(t)
	t.Setenv("VK_APP_SECRET", "")

	_, err := run(t, "users.get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VK_APP_SECRET is required")
}

func TestInitCommand_PrintsToken(t *testing.T) {
	newTestServer(t)

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", out)
}

func TestExecute_ReleasesResourcesWhenCommandFails(t *testing.T) {
	newTestServer(t)

	var released int
	cli := &cliContext{closers: []func(){func() { released++ }}}

	_, err := runWith(t, cli, "--token", "held", "nosuch.method")
	require.Error(t, err)
	require.NotNil(t, cli.logger)

	assert.Equal(t, 1, released)
	assert.Empty(t, cli.closers)

	cli.close()
	assert.Equal(t, 1, released)
}

func TestExecute_ReleasesResourcesOnSuccess(t *testing.T) {
	newTestServer(t)

	var released int
	cli := &cliContext{closers: []func(){func() { released++ }}}

	_, err := runWith(t, cli, "init")
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Empty(t, cli.closers)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, params)

	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
}
