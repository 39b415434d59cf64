// Package ynab implements the ledger ports against the YNAB v1 HTTP API.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dnbasta/ynab-split-budget/internal/apperrors"
	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	portsrepo "github.com/dnbasta/ynab-split-budget/internal/core/ports/repositories"
	"github.com/dnbasta/ynab-split-budget/internal/dto"
	"github.com/dnbasta/ynab-split-budget/internal/utils"
	"github.com/dnbasta/ynab-split-budget/internal/utils/accounting"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.ynab.com/v1"

// Client talks to one user's budget. It implements
// repositories.LedgerRepositoryFacade.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	user       domain.User
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient builds a client for the given user's budget.
func NewClient(token string, user domain.User, options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
		user:       user,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

var _ portsrepo.LedgerRepositoryFacade = (*Client)(nil)

type transactionsData struct {
	Data struct {
		Transactions       []dto.LedgerRow `json:"transactions"`
		ServerKnowledge    int64           `json:"server_knowledge"`
		DuplicateImportIDs []string        `json:"duplicate_import_ids"`
	} `json:"data"`
}

// FetchChanged returns every row changed since the given server knowledge
// together with the new knowledge value.
func (c *Client) FetchChanged(ctx context.Context, sinceKnowledge int64) ([]dto.LedgerRow, int64, error) {
	query := url.Values{"last_knowledge_of_server": {strconv.FormatInt(sinceKnowledge, 10)}}
	var payload transactionsData
	if err := c.get(ctx, fmt.Sprintf("/budgets/%s/transactions", c.user.BudgetID), query, &payload); err != nil {
		return nil, 0, err
	}
	return payload.Data.Transactions, payload.Data.ServerKnowledge, nil
}

// FetchSince returns every row dated on or after since.
func (c *Client) FetchSince(ctx context.Context, since time.Time) ([]dto.LedgerRow, error) {
	query := url.Values{"since_date": {since.Format("2006-01-02")}}
	var payload transactionsData
	if err := c.get(ctx, fmt.Sprintf("/budgets/%s/transactions", c.user.BudgetID), query, &payload); err != nil {
		return nil, err
	}
	return payload.Data.Transactions, nil
}

// ApplyInsert creates the recipient-share entry. A duplicate import token
// reported by the ledger is a confirmed earlier success, not an error.
func (c *Client) ApplyInsert(ctx context.Context, op domain.InsertOperation) error {
	body := map[string]any{"transactions": []map[string]any{insertPayload(op, c.user.SplitAccountID)}}
	var payload transactionsData
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/budgets/%s/transactions", c.user.BudgetID), body, &payload); err != nil {
		return err
	}
	// duplicate_import_ids listing our token means the entry already
	// exists from a previous cycle; nothing further to do
	return nil
}

// ApplyUpdate corrects an existing entry in place.
func (c *Client) ApplyUpdate(ctx context.Context, op domain.UpdateOperation) error {
	body := map[string]any{"transaction": updatePayload(op)}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/budgets/%s/transactions/%s", c.user.BudgetID, op.EntryID), body, nil)
}

// ApplySplit rewrites the owner entry into its two sub-entries.
func (c *Client) ApplySplit(ctx context.Context, op domain.SplitOperation) error {
	body := map[string]any{"transaction": splitPayload(op, c.user.SplitTransferPayeeID)}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/budgets/%s/transactions/%s", c.user.BudgetID, op.EntryID), body, nil)
}

// ApplyDelete removes an entry.
func (c *Client) ApplyDelete(ctx context.Context, op domain.DeleteOperation) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/budgets/%s/transactions/%s", c.user.BudgetID, op.EntryID), nil, nil)
}

// FetchClearedBalance returns the shared account's cleared balance in
// currency units.
func (c *Client) FetchClearedBalance(ctx context.Context) (decimal.Decimal, error) {
	var payload struct {
		Data struct {
			Account struct {
				ClearedBalance int64 `json:"cleared_balance"`
			} `json:"account"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/budgets/%s/accounts/%s", c.user.BudgetID, c.user.SplitAccountID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(payload.Data.Account.ClearedBalance).Div(decimal.NewFromInt(1000)).Round(2), nil
}

// FetchServerKnowledge returns the budget's current server knowledge
// without fetching transactions.
func (c *Client) FetchServerKnowledge(ctx context.Context) (int64, error) {
	var payload struct {
		Data struct {
			ServerKnowledge int64 `json:"server_knowledge"`
		} `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/budgets/%s/accounts", c.user.BudgetID), nil, &payload); err != nil {
		return 0, err
	}
	return payload.Data.ServerKnowledge, nil
}

// AccountInfo describes a shared account discovered by name.
type AccountInfo struct {
	BudgetID        string
	AccountID       string
	TransferPayeeID string
	Currency        string
}

// FindSharedAccount resolves budget and account ids from their
// human-readable names, for setup flows where ids are not yet known.
func FindSharedAccount(ctx context.Context, token, budgetName, accountName string, options ...ClientOption) (*AccountInfo, error) {
	c := NewClient(token, domain.User{}, options...)

	var payload struct {
		Data struct {
			Budgets []struct {
				ID             string `json:"id"`
				Name           string `json:"name"`
				CurrencyFormat struct {
					ISOCode string `json:"iso_code"`
				} `json:"currency_format"`
				Accounts []struct {
					ID              string `json:"id"`
					Name            string `json:"name"`
					TransferPayeeID string `json:"transfer_payee_id"`
					Deleted         bool   `json:"deleted"`
				} `json:"accounts"`
			} `json:"budgets"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/budgets", url.Values{"include_accounts": {"true"}}, &payload); err != nil {
		return nil, err
	}

	for _, budget := range payload.Data.Budgets {
		if budget.Name != budgetName {
			continue
		}
		for _, account := range budget.Accounts {
			if account.Name == accountName && !account.Deleted {
				return &AccountInfo{
					BudgetID:        budget.ID,
					AccountID:       account.ID,
					TransferPayeeID: account.TransferPayeeID,
					Currency:        budget.CurrencyFormat.ISOCode,
				}, nil
			}
		}
		return nil, fmt.Errorf("no account named %q in budget %q: %w", accountName, budgetName, apperrors.ErrAccountNotFound)
	}
	return nil, fmt.Errorf("no budget named %q: %w", budgetName, apperrors.ErrBudgetNotFound)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiError struct {
			Error struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Detail string `json:"detail"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &apiError) == nil && apiError.Error.Detail != "" {
			return fmt.Errorf("%s %s: %s (%s)", req.Method, req.URL.Path, apiError.Error.Detail, resp.Status)
		}
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func insertPayload(op domain.InsertOperation, accountID string) map[string]any {
	return map[string]any{
		"account_id": accountID,
		"date":       op.Date.Format("2006-01-02"),
		"amount":     accounting.ToMilliunits(op.Amount),
		"payee_name": op.Payee,
		"memo":       op.Memo,
		"cleared":    "cleared",
		"approved":   false,
		"import_id":  utils.ImportRefFromFingerprint(op.FingerprintID),
	}
}

func updatePayload(op domain.UpdateOperation) map[string]any {
	return map[string]any{
		"date":       op.Date.Format("2006-01-02"),
		"amount":     accounting.ToMilliunits(op.Amount),
		"memo":       op.Memo,
		"payee_name": op.Payee,
		"cleared":    "cleared",
		"approved":   false,
	}
}

// splitPayload renders the two sub-entries of a split: the transfer portion
// going to the shared account and the owed portion retaining the original
// category. Sub-entry amounts flip back to wire sign and obey the API's
// 10-milliunit granularity.
func splitPayload(op domain.SplitOperation, transferPayeeID string) map[string]any {
	return map[string]any{
		"cleared": "cleared",
		"subtransactions": []map[string]any{
			{
				"amount":   accounting.RoundToTen(-accounting.ToMilliunits(op.Paid.Sub(op.Owed))),
				"memo":     op.Memo,
				"payee_id": transferPayeeID,
				"cleared":  "cleared",
			},
			{
				"amount":      accounting.RoundToTen(-accounting.ToMilliunits(op.Owed)),
				"memo":        op.Memo,
				"category_id": op.CategoryID,
				"payee_name":  op.Payee,
				"cleared":     "cleared",
			},
		},
	}
}
