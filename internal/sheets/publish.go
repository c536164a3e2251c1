package sheets

import (
	"context"
	"fmt"
	"strings"

	sheetsv4 "google.golang.org/api/sheets/v4"
)

func (c *Client) addSheet(ctx context.Context, title string) (int64, error) {
	resp, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{{
			AddSheet: &sheetsv4.AddSheetRequest{
				Properties: &sheetsv4.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %q: empty reply", title)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (c *Client) writeValues(ctx context.Context, title string, rows [][]any) error {
	a1 := "'" + strings.ReplaceAll(title, "'", "''") + "'!A1"
	vr := &sheetsv4.ValueRange{Values: rows}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, a1, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write values to %q: %w", title, err)
	}
	return nil
}

// Publish creates a new tab named title, fills it with rows and returns a
// link to the tab.
func (c *Client) Publish(ctx context.Context, title string, rows [][]any) (string, error) {
	id, err := c.addSheet(ctx, title)
	if err != nil {
		return "", err
	}
	if err := c.writeValues(ctx, title, rows); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", c.spreadsheetID, id), nil
}
