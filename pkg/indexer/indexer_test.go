package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai3-tools/xdm-bridge/pkg/circuitbreaker"
	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

func transporterRow(hash string, block uint64, ts int64) map[string]interface{} {
	return map[string]interface{}{
		"block_num":            block,
		"block_timestamp":      ts,
		"extrinsic_index":      fmt.Sprintf("%d-1", block),
		"extrinsic_hash":       hash,
		"call_module":          "transporter",
		"call_module_function": "transfer",
		"success":              true,
		"finalized":            true,
		"fee":                  "1000000000000000",
		"params": []map[string]interface{}{
			{"name": "amount", "value": "2500000000000000000"},
			{"name": "account", "value": "0x1111111111111111111111111111111111111111"},
			{"name": "domain_id", "value": "0"},
		},
	}
}

func envelope(rows ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"code":    0,
		"message": "Success",
		"data": map[string]interface{}{
			"count":      len(rows),
			"extrinsics": rows,
		},
	}
}

func TestFetchRecentTransfers(t *testing.T) {
	var requests []extrinsicsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/scan/extrinsics", r.URL.Path)

		var req extrinsicsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		// one partial page: transporter rows, a duplicate, and an unrelated call
		unrelated := transporterRow("0xother", 90, 1000)
		unrelated["call_module"] = "balances"

		resp := envelope(
			transporterRow("0xaaa", 100, 3000),
			transporterRow("0xbbb", 101, 4000),
			transporterRow("0xaaa", 100, 3000),
			unrelated,
		)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := New(srv.URL, 100, 10, 50, nil, nil)
	entries, err := c.FetchRecentTransfers(context.Background(), "sufAddress")
	require.NoError(t, err)

	// deduped, filtered to transporter.transfer, newest first
	require.Len(t, entries, 2)
	assert.Equal(t, "0xbbb", entries[0].Hash)
	assert.Equal(t, "0xaaa", entries[1].Hash)

	assert.Equal(t, "2.5", entries[0].Amount)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", entries[0].Destination)
	assert.Equal(t, models.ConsensusToDomain, entries[0].Direction)
	assert.Equal(t, "0.001", entries[0].Fee)
	assert.Equal(t, uint64(101), entries[0].BlockNumber)
	assert.True(t, entries[0].Success)
	assert.True(t, entries[0].Finalized)
	assert.Equal(t, time.Unix(4000, 0).UTC(), entries[0].Timestamp)

	// partial page stops pagination after the first request
	require.Len(t, requests, 1)
	assert.Equal(t, "sufAddress", requests[0].Address)
	assert.Equal(t, 100, requests[0].Row)
	assert.Equal(t, 0, requests[0].Page)
}

func TestFetchRecentTransfersPaginates(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req extrinsicsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		pages++

		// always return a full page so only the page cap stops the scan
		rows := make([]map[string]interface{}, req.Row)
		for i := range rows {
			rows[i] = transporterRow(fmt.Sprintf("0x%d-%d", req.Page, i), uint64(req.Page*10+i), int64(i))
		}
		require.NoError(t, json.NewEncoder(w).Encode(envelope(rows...)))
	}))
	defer srv.Close()

	c := New(srv.URL, 2, 3, 0, nil, nil)
	entries, err := c.FetchRecentTransfers(context.Background(), "addr")
	require.NoError(t, err)

	assert.Equal(t, 3, pages)
	assert.Len(t, entries, 6)
}

func TestFetchRecentTransfersApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{"code": 10001, "message": "record not found"}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := New(srv.URL, 100, 10, 50, nil, nil)
	_, err := c.FetchRecentTransfers(context.Background(), "addr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
}

func TestFetchRecentTransfersHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 100, 10, 50, nil, nil)
	_, err := c.FetchRecentTransfers(context.Background(), "addr")
	assert.Error(t, err)
}

func TestFetchRecentTransfersCircuitOpen(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	breaker := circuitbreaker.NewCircuitBreaker("indexer", true, 1, time.Minute, time.Hour, nil)
	c := New(srv.URL, 100, 10, 50, breaker, nil)

	_, err := c.FetchRecentTransfers(context.Background(), "addr")
	require.Error(t, err)
	require.Equal(t, 1, calls)

	// the breaker tripped on the first failure; the next fetch is skipped
	_, err = c.FetchRecentTransfers(context.Background(), "addr")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
