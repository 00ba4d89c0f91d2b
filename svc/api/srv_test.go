package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealbin/cfg"
	"sealbin/svc/auth"
	"sealbin/svc/cache"
	"sealbin/svc/db"
	"sealbin/svc/svc"
)

const (
	testAPIToken   = "test-api-token"
	testAdminToken = "test-admin-token"
)

func newTestServer(t *testing.T, mutate func(*cfg.Cfg)) *httptest.Server {
	t.Helper()
	c := &cfg.Cfg{
		Port:            "0",
		Environment:     "test",
		LogLevel:        "error",
		APIToken:        cfg.NewSecret(testAPIToken),
		AdminTokens:     []cfg.Secret{cfg.NewSecret(testAdminToken)},
		MaxPasteSize:    1024,
		MaxExpiry:       8760 * time.Hour,
		ReportsEnabled:  true,
		ReportMinLength: 10,
		SweepInterval:   60 * time.Second,
		LRUCacheSize:    100,
		ContextTimeout:  5 * time.Second,
	}
	if mutate != nil {
		mutate(c)
	}
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqlDB, err := db.NewSQLiteWithConfig(dsn, 10, 5, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	lru, err := cache.NewLRU(c.LRUCacheSize)
	require.NoError(t, err)

	authority := auth.NewAuthority(c)
	pastes := svc.NewPaste(sqlDB, lru, nil, c)
	reports := svc.NewReport(sqlDB, c)
	srv := NewServer(c, authority, pastes, reports, sqlDB, nil)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body interface{}, hdr map[string]string) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func apiHdr() map[string]string {
	return map[string]string{"X-Access-Token": testAPIToken}
}
func adminHdr() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testAdminToken}
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestPasteLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	expiresAt := time.Now().Add(time.Hour).Unix()

	resp := doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
		"encryptedTitle":      "enc-title",
		"encryptedContent":    "enc-content",
		"encryptedSyntaxType": "enc-syntax",
		"expiresAt":           expiresAt,
	}, apiHdr())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		ID          string `json:"id"`
		DeletionKey string `json:"deletionKey"`
	}
	decode(t, resp, &created)
	assert.Len(t, created.ID, 12)
	assert.Len(t, created.DeletionKey, 36)

	resp = doJSON(t, ts, http.MethodGet, "/pastes/"+created.ID, nil, apiHdr())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched map[string]interface{}
	decode(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched["id"])
	assert.Equal(t, "enc-title", fetched["encryptedTitle"])
	assert.Equal(t, "enc-content", fetched["encryptedContent"])
	assert.Equal(t, "enc-syntax", fetched["encryptedSyntaxType"])
	assert.Equal(t, float64(expiresAt), fetched["expiresAt"])
	assert.NotContains(t, fetched, "deletionKeyHash")

	// Wrong deletion key: 404, and the paste survives.
	resp = doJSON(t, ts, http.MethodDelete, "/pastes/"+created.ID,
		map[string]string{"deletionKey": "00000000-0000-0000-0000-000000000000"}, apiHdr())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodGet, "/pastes/"+created.ID, nil, apiHdr())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodDelete, "/pastes/"+created.ID,
		map[string]string{"deletionKey": created.DeletionKey}, apiHdr())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/pastes/"+created.ID, nil, apiHdr())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateValidationStatuses(t *testing.T) {
	ts := newTestServer(t, func(c *cfg.Cfg) { c.ExpiryRequired = true })

	resp := doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
		"encryptedTitle":   "t",
		"encryptedContent": "c",
	}, apiHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	expiresAt := time.Now().Add(time.Hour).Unix()
	resp = doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
		"encryptedTitle":   "t",
		"encryptedContent": strings.Repeat("x", 2000),
		"expiresAt":        expiresAt,
	}, apiHdr())
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
		"encryptedTitle":   "",
		"encryptedContent": "c",
		"expiresAt":        expiresAt,
	}, apiHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRejectsNonJSON(t *testing.T) {
	ts := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/pastes", strings.NewReader("raw"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Access-Token", testAPIToken)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPITierAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, ts, http.MethodGet, "/pastes/abc123def456", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/pastes/abc123def456", nil,
		map[string]string{"X-Access-Token": "wrong"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin bearer token does not open the API tier.
	resp = doJSON(t, ts, http.MethodGet, "/pastes/abc123def456", nil, adminHdr())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/pastes/abc123def456", nil, apiHdr())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminTierAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, ts, http.MethodGet, "/admin/reports", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/admin/reports", nil,
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// API token does not open the admin tier.
	resp = doJSON(t, ts, http.MethodGet, "/admin/reports", nil,
		map[string]string{"Authorization": "Bearer " + testAPIToken})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/admin/reports", nil, adminHdr())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReportFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
		"encryptedTitle":   "t",
		"encryptedContent": "c",
	}, apiHdr())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp, &created)

	resp = doJSON(t, ts, http.MethodPost, "/pastes/"+created.ID+"/report", map[string]string{
		"decryptionKey": "client-side-key",
		"reason":        "this paste contains malware",
	}, apiHdr())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/pastes/"+created.ID+"/report", map[string]string{
		"decryptionKey": "client-side-key",
		"reason":        "short",
	}, apiHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/pastes/"+created.ID+"/report", map[string]string{
		"decryptionKey": "   ",
		"reason":        "this paste contains malware",
	}, apiHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/admin/reports", nil, adminHdr())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Total   int64 `json:"total"`
		Page    int64 `json:"page"`
		Pages   int64 `json:"pages"`
		Reports []struct {
			ID            int64  `json:"id"`
			PasteID       string `json:"pasteId"`
			DecryptionKey string `json:"decryptionKey"`
			Reason        string `json:"reason"`
		} `json:"reports"`
	}
	decode(t, resp, &page)
	require.Equal(t, int64(1), page.Total)
	require.Len(t, page.Reports, 1)
	assert.Equal(t, created.ID, page.Reports[0].PasteID)
	assert.Equal(t, "client-side-key", page.Reports[0].DecryptionKey)

	reportID := page.Reports[0].ID
	resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/admin/reports/%d", reportID), nil, adminHdr())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/admin/reports/%d", reportID), nil, adminHdr())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/admin/reports/%d", reportID), nil, adminHdr())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportingDisabled(t *testing.T) {
	ts := newTestServer(t, func(c *cfg.Cfg) { c.ReportsEnabled = false })
	resp := doJSON(t, ts, http.MethodPost, "/pastes/whatever0000/report", map[string]string{
		"decryptionKey": "k",
		"reason":        "a perfectly valid reason",
	}, apiHdr())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminDeletePaste(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
		"encryptedTitle":   "t",
		"encryptedContent": "c",
	}, apiHdr())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp, &created)

	resp = doJSON(t, ts, http.MethodDelete, "/admin/pastes/"+created.ID, nil, adminHdr())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodGet, "/pastes/"+created.ID, nil, apiHdr())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodDelete, "/admin/pastes/"+created.ID, nil, adminHdr())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListReportsPaginationParams(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, ts, http.MethodGet, "/admin/reports?page=0", nil, adminHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodGet, "/admin/reports?perPage=101", nil, adminHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodGet, "/admin/reports?page=abc", nil, adminHdr())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodGet, "/admin/reports?page=2&perPage=5", nil, adminHdr())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfigIsPublic(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := doJSON(t, ts, http.MethodGet, "/config", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conf struct {
		Paste struct {
			MaxSizeBytes   int64 `json:"maxSizeBytes"`
			ExpiryRequired bool  `json:"expiryRequired"`
			MaxExpirySecs  int64 `json:"maxExpirySecs"`
		} `json:"paste"`
		Report struct {
			Enabled   bool `json:"enabled"`
			MinLength int  `json:"minLength"`
		} `json:"report"`
	}
	decode(t, resp, &conf)
	assert.Equal(t, int64(1024), conf.Paste.MaxSizeBytes)
	assert.False(t, conf.Paste.ExpiryRequired)
	assert.Equal(t, int64(8760*3600), conf.Paste.MaxExpirySecs)
	assert.True(t, conf.Report.Enabled)
	assert.Equal(t, 10, conf.Report.MinLength)
}

func TestStatistics(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, ts, http.MethodGet, "/statistics", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for i := 0; i < 2; i++ {
		resp = doJSON(t, ts, http.MethodPost, "/pastes", map[string]interface{}{
			"encryptedTitle":   "t",
			"encryptedContent": "c",
		}, apiHdr())
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp = doJSON(t, ts, http.MethodGet, "/statistics", nil, apiHdr())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		TotalPastes int64 `json:"totalPastes"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, int64(2), stats.TotalPastes)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := doJSON(t, ts, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, ts, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := doJSON(t, ts, http.MethodGet, "/config", nil, nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
