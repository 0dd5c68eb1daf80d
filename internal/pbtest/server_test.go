package pbtest

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestMutationsCountsAcceptedWritesOnly(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	assert.Equal(t, http.StatusOK, post(t, srv.URL+"/api/collections", `{"name":"users","type":"auth"}`))
	assert.Equal(t, 1, srv.Mutations())

	srv.ResetRequests()
	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/api/collections", `{"name":"users","type":"auth"}`))
	assert.Zero(t, srv.Mutations())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.StatusBadRequest, reqs[0].Status)
}

func TestFaultStatusIsRecorded(t *testing.T) {
	srv := NewServer()
	defer srv.Close()
	srv.AddFault(Fault{Method: http.MethodPost, Status: http.StatusServiceUnavailable})

	assert.Equal(t, http.StatusServiceUnavailable, post(t, srv.URL+"/api/collections", `{"name":"users"}`))
	assert.Zero(t, srv.Mutations())
	assert.Empty(t, srv.CollectionNames())
	assert.Equal(t, http.StatusServiceUnavailable, srv.Requests()[0].Status)
}
