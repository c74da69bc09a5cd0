// Package esi is a minimal client for the upstream EVE Swagger Interface
// endpoints the synchronizer needs: corporation contracts, universe
// station/structure lookups, bulk name resolution and character affiliation.
package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("esi: unexpected status %d: %s", e.Code, e.Body)
}

// IsAuthError reports whether the error is a credential problem (401/403).
func IsAuthError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden
	}
	return false
}

// IsForbidden reports a 403 specifically, used for inaccessible structures.
func IsForbidden(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusForbidden
	}
	return false
}

type ContractRecord struct {
	ContractID          int64      `json:"contract_id"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	Availability        string     `json:"availability"`
	AssigneeID          int64      `json:"assignee_id"`
	AcceptorID          int64      `json:"acceptor_id"`
	IssuerID            int64      `json:"issuer_id"`
	IssuerCorporationID int64      `json:"issuer_corporation_id"`
	ForCorporation      bool       `json:"for_corporation"`
	StartLocationID     int64      `json:"start_location_id"`
	EndLocationID       int64      `json:"end_location_id"`
	Reward              float64    `json:"reward"`
	Collateral          float64    `json:"collateral"`
	Volume              float64    `json:"volume"`
	DaysToComplete      int        `json:"days_to_complete"`
	Title               string     `json:"title"`
	DateIssued          time.Time  `json:"date_issued"`
	DateExpired         time.Time  `json:"date_expired"`
	DateAccepted        *time.Time `json:"date_accepted"`
	DateCompleted       *time.Time `json:"date_completed"`
}

type Station struct {
	Name     string `json:"name"`
	SystemID int64  `json:"system_id"`
	TypeID   int64  `json:"type_id"`
}

type Structure struct {
	Name          string `json:"name"`
	SolarSystemID int64  `json:"solar_system_id"`
	TypeID        int64  `json:"type_id"`
}

type NamedEntity struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Character struct {
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	AllianceID    int64  `json:"alliance_id"`
}

// CorporationContracts fetches every page of the corporation contract list.
// The page count comes from the X-Pages response header.
func (c *Client) CorporationContracts(ctx context.Context, token string, corporationID int64) ([]ContractRecord, error) {
	var all []ContractRecord
	page := 1
	for {
		path := fmt.Sprintf("/corporations/%d/contracts/?page=%d", corporationID, page)
		body, header, err := c.get(ctx, path, token)
		if err != nil {
			return nil, err
		}

		var records []ContractRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("esi: decode contracts page %d: %w", page, err)
		}
		all = append(all, records...)

		pages, err := strconv.Atoi(header.Get("X-Pages"))
		if err != nil || page >= pages {
			break
		}
		page++
	}
	return all, nil
}

func (c *Client) Station(ctx context.Context, id int64) (*Station, error) {
	body, _, err := c.get(ctx, fmt.Sprintf("/universe/stations/%d/", id), "")
	if err != nil {
		return nil, err
	}
	var station Station
	if err := json.Unmarshal(body, &station); err != nil {
		return nil, fmt.Errorf("esi: decode station %d: %w", id, err)
	}
	return &station, nil
}

func (c *Client) Structure(ctx context.Context, token string, id int64) (*Structure, error) {
	body, _, err := c.get(ctx, fmt.Sprintf("/universe/structures/%d/", id), token)
	if err != nil {
		return nil, err
	}
	var structure Structure
	if err := json.Unmarshal(body, &structure); err != nil {
		return nil, fmt.Errorf("esi: decode structure %d: %w", id, err)
	}
	return &structure, nil
}

// Names resolves IDs to names and categories via the bulk names endpoint.
func (c *Client) Names(ctx context.Context, ids []int64) ([]NamedEntity, error) {
	payload, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/universe/names/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var entities []NamedEntity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("esi: decode names: %w", err)
	}
	return entities, nil
}

func (c *Client) Character(ctx context.Context, id int64) (*Character, error) {
	body, _, err := c.get(ctx, fmt.Sprintf("/characters/%d/", id), "")
	if err != nil {
		return nil, err
	}
	var character Character
	if err := json.Unmarshal(body, &character); err != nil {
		return nil, fmt.Errorf("esi: decode character %d: %w", id, err)
	}
	return &character, nil
}

func (c *Client) get(ctx context.Context, path, token string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, resp.Header, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
