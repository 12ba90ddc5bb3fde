// Package indexer provides a client for the historical extrinsic indexer used
// to backfill and confirm cross-domain transfers. The indexer is eventually
// consistent; callers treat fetch failures as "no new data this cycle".
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ai3-tools/xdm-bridge/pkg/amount"
	"github.com/ai3-tools/xdm-bridge/pkg/circuitbreaker"
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

const (
	// transporterModule is the pallet carrying cross-domain transfers
	transporterModule = "transporter"
	// transferCall is the extrinsic that moves funds between chains
	transferCall = "transfer"
)

// extrinsicsRequest is the POST body of the extrinsic list endpoint
type extrinsicsRequest struct {
	Address string `json:"address"`
	Row     int    `json:"row"`
	Page    int    `json:"page"`
}

// extrinsicsResponse wraps the indexer's application-level envelope. A
// non-zero Code is an application error even when HTTP status is 200.
type extrinsicsResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Count      int            `json:"count"`
		Extrinsics []rawExtrinsic `json:"extrinsics"`
	} `json:"data"`
}

type rawExtrinsic struct {
	BlockNum           uint64     `json:"block_num"`
	BlockTimestamp     int64      `json:"block_timestamp"`
	ExtrinsicIndex     string     `json:"extrinsic_index"`
	ExtrinsicHash      string     `json:"extrinsic_hash"`
	CallModule         string     `json:"call_module"`
	CallModuleFunction string     `json:"call_module_function"`
	Success            bool       `json:"success"`
	Finalized          bool       `json:"finalized"`
	Fee                string     `json:"fee"`
	Params             []rawParam `json:"params,omitempty"`
}

type rawParam struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Client fetches historical cross-domain transfers from the indexer
type Client struct {
	baseURL    string
	pageSize   int
	maxPages   int
	limit      int
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     logger.Logger
}

// New creates a new indexer client
func New(baseURL string, pageSize, maxPages, limit int, breaker *circuitbreaker.CircuitBreaker, log logger.Logger) *Client {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		maxPages:   maxPages,
		limit:      limit,
		httpClient: createHTTPClient(),
		breaker:    breaker,
		logger:     log,
	}
}

// FetchRecentTransfers returns the address's confirmed transporter transfers,
// deduplicated by hash and sorted newest-first. Pagination continues while a
// full page is returned and is capped to avoid unbounded scans.
func (c *Client) FetchRecentTransfers(ctx context.Context, addr string) ([]models.HistoryEntry, error) {
	if c.breaker != nil && c.breaker.IsOpen() {
		return nil, fmt.Errorf("indexer circuit open, skipping fetch")
	}

	var all []rawExtrinsic
	for page := 0; page < c.maxPages; page++ {
		batch, err := c.fetchPage(ctx, addr, page)
		if err != nil {
			if c.breaker != nil {
				c.breaker.RecordFailure()
			}
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.pageSize {
			break
		}
	}

	entries := make([]models.HistoryEntry, 0, len(all))
	seen := make(map[string]bool)
	for _, ext := range all {
		if ext.CallModule != transporterModule || ext.CallModuleFunction != transferCall {
			continue
		}
		// the indexer may return overlapping pages; dedupe by hash
		if seen[ext.ExtrinsicHash] {
			continue
		}
		seen[ext.ExtrinsicHash] = true
		entries = append(entries, toHistoryEntry(ext))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if c.limit > 0 && len(entries) > c.limit {
		entries = entries[:c.limit]
	}

	c.logger.DebugWithChain(logger.Indexer, "Fetched %d transporter transfers for %s", len(entries), addr)
	return entries, nil
}

func (c *Client) fetchPage(ctx context.Context, addr string, page int) ([]rawExtrinsic, error) {
	body, err := json.Marshal(extrinsicsRequest{Address: addr, Row: c.pageSize, Page: page})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/scan/extrinsics", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch extrinsics page %d: %v", page, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.ErrorWithChain(logger.Indexer, "Failed to close response body: %v", err)
		}
	}(resp.Body)

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBytes))
	}

	var envelope extrinsicsResponse
	if err := json.Unmarshal(respBytes, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode extrinsics response: %v", err)
	}
	if envelope.Code != 0 {
		return nil, fmt.Errorf("indexer error code %d: %s", envelope.Code, envelope.Message)
	}

	return envelope.Data.Extrinsics, nil
}

// toHistoryEntry converts a raw indexer row. Amount and destination come from
// the call params when present; both are tolerated missing since the indexer
// does not always expand them.
func toHistoryEntry(ext rawExtrinsic) models.HistoryEntry {
	entry := models.HistoryEntry{
		Hash:           ext.ExtrinsicHash,
		BlockNumber:    ext.BlockNum,
		ExtrinsicIndex: ext.ExtrinsicIndex,
		Success:        ext.Success,
		Finalized:      ext.Finalized,
		Fee:            planckToDisplay(ext.Fee),
		Timestamp:      time.Unix(ext.BlockTimestamp, 0).UTC(),
	}

	for _, p := range ext.Params {
		var s string
		if err := json.Unmarshal(p.Value, &s); err != nil {
			continue
		}
		switch p.Name {
		case "amount":
			entry.Amount = planckToDisplay(s)
		case "account", "dst_location":
			entry.Destination = s
		case "domain_id", "chain_id":
			entry.DomainID = s
		}
	}

	if strings.HasPrefix(entry.Destination, "0x") {
		entry.Direction = models.ConsensusToDomain
	}
	return entry
}

// planckToDisplay converts a base-unit decimal string to display units,
// stripping the thousands separators some indexer revisions emit.
func planckToDisplay(raw string) string {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" {
		return ""
	}
	v, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return ""
	}
	return amount.FromBaseUnits(v)
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
