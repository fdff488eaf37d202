package sheets

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/prasetyo/checkin-bot/internal/domain"
)

// Client talks to one Google Sheets spreadsheet: check-ins are appended to
// the check-in range, the allow-list is read from its own range.
type Client struct {
	svc            *sheetsapi.Service
	spreadsheetID  string
	checkinRange   string
	allowListRange string
}

// New creates a Client from base64-encoded service-account JSON, the way the
// credentials are delivered in the GCP_CREDENTIALS_BASE64 environment
// variable.
func New(ctx context.Context, credentialsBase64, spreadsheetID, checkinRange, allowListRange string) (*Client, error) {
	raw, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	svc, err := sheetsapi.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		svc:            svc,
		spreadsheetID:  spreadsheetID,
		checkinRange:   checkinRange,
		allowListRange: allowListRange,
	}, nil
}

// AppendCheckin appends one completed check-in as a row at the bottom of the
// check-in range.
func (c *Client) AppendCheckin(ctx context.Context, record *domain.CheckinRecord) error {
	values := &sheetsapi.ValueRange{
		Values: [][]interface{}{record.Row()},
	}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.checkinRange, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append check-in row: %w", err)
	}

	return nil
}

// FetchAllowList reads the allow-list range and returns the non-empty values
// of its first column. Each call replaces the previous view in full; the
// sheet is the single source of truth and may change between calls.
func (c *Client) FetchAllowList(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.allowListRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allow list: %w", err)
	}

	var entries []string
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		value, ok := row[0].(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value != "" {
			entries = append(entries, value)
		}
	}

	return entries, nil
}
