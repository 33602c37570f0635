package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestDecode_Envelope(t *testing.T) {
	var out domain.Lookups
	body := `{"success":true,"data":{"clients":[{"id":1,"name":"Acme"}],"services":[],"opportunities":[],"users":[]}}`

	require.NoError(t, decode(http.StatusOK, []byte(body), &out))
	require.Len(t, out.Clients, 1)
	assert.Equal(t, "Acme", out.Clients[0].Name)
}

func TestDecode_BareArray(t *testing.T) {
	var out []domain.ClientDTO
	body := `[{"id":3,"name":"Globex"},{"id":4,"name":"Initech"}]`

	require.NoError(t, decode(http.StatusOK, []byte(body), &out))
	require.Len(t, out, 2)
	assert.Equal(t, uint(4), out[1].ID)
}

func TestDecode_BareObject(t *testing.T) {
	var out domain.ClientDTO

	require.NoError(t, decode(http.StatusOK, []byte(`{"id":7,"name":"Umbrella"}`), &out))
	assert.Equal(t, uint(7), out.ID)
	assert.Equal(t, "Umbrella", out.Name)
}

func TestDecode_UnsuccessfulEnvelope(t *testing.T) {
	err := decode(http.StatusOK, []byte(`{"success":false,"message":"nope"}`), nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "nope", apiErr.Message)
}

func TestDecode_ErrorStatuses(t *testing.T) {
	t.Run("string errors", func(t *testing.T) {
		err := decode(http.StatusUnprocessableEntity, []byte(`{"success":false,"message":"import validation failed with 1 error(s)","errors":["Row 2: Missing required field 'name'"]}`), nil)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, []string{"Row 2: Missing required field 'name'"}, apiErr.Errors)
		assert.Contains(t, apiErr.Error(), "Row 2")
	})

	t.Run("field errors", func(t *testing.T) {
		err := decode(http.StatusBadRequest, []byte(`{"success":false,"errors":[{"field":"Name","message":"Name is required"}]}`), nil)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, []string{"Name: Name is required"}, apiErr.Errors)
	})

	t.Run("several field errors", func(t *testing.T) {
		body := `{"success":false,"message":"Validation failed","errors":[` +
			`{"field":"Name","message":"Name is required"},` +
			`{"field":"ContactEmail","message":"ContactEmail must be a valid email"}]}`
		err := decode(http.StatusBadRequest, []byte(body), nil)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Validation failed", apiErr.Message)
		assert.Equal(t, []string{
			"Name: Name is required",
			"ContactEmail: ContactEmail must be a valid email",
		}, apiErr.Errors)
	})

	t.Run("plain text", func(t *testing.T) {
		err := decode(http.StatusBadGateway, []byte("upstream down\n"), nil)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "upstream down", apiErr.Message)
	})
}

func TestLogin_StoresToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var req domain.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice", req.Username)
			writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Data: domain.TokenResponse{AccessToken: "tok-1", TokenType: "Bearer"}})
		case "/api/v1/lookups":
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Data: domain.Lookups{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	tok, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)

	_, err = c.Lookups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestAPIKeyTakesPrecedence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k-123", r.Header.Get("x-api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, domain.APIResponse{Success: true, Data: domain.ClientDTO{ID: 9, Name: "Acme"}})
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("k-123"), WithToken("ignored"))
	out, err := c.CreateClient(context.Background(), &domain.CreateClientRequest{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, uint(9), out.ID)
}

func TestImport_SendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/clients/import", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "clients.csv", header.Filename)
		assert.Equal(t, "name\nAcme\n", string(data))

		writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Data: map[string]interface{}{
			"entity": "clients", "attempted": 1, "succeeded": 1, "failed": 0,
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("t"))
	res, err := c.Import(context.Background(), csvtransform.EntityClients, "/tmp/clients.csv", strings.NewReader("name\nAcme\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, csvtransform.EntityClients, res.Entity)
}

func TestExport_ReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/services/export", r.URL.Path)
		assert.Equal(t, "display", r.URL.Query().Get("mode"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("name,business_unit\nAudit,Finance\n"))
	}))
	defer srv.Close()

	data, err := New(srv.URL).Export(context.Background(), csvtransform.EntityServices, "display")
	require.NoError(t, err)
	assert.Equal(t, "name,business_unit\nAudit,Finance\n", string(data))
}

func TestDownload_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, domain.APIResponse{Success: false, Message: "Authentication required"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).ExportMatrix(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authentication required", apiErr.Message)
}

func TestMatrix_DecodesCells(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"clients":[{"id":1,"name":"Acme"}],"services":[{"id":2,"name":"Audit","business_unit":"Finance"}],"matrix":{"1":{"2":{"status":"active","opportunity_id":null}}}}}`))
	}))
	defer srv.Close()

	m, err := New(srv.URL).Matrix(context.Background())
	require.NoError(t, err)
	cell, ok := m.Matrix[1][2]
	require.True(t, ok)
	assert.Equal(t, "active", cell.Status)
	assert.Nil(t, cell.OpportunityID)
}
