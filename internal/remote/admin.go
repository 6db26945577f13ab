package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DeleteMode selects the scope of an admin purge.
type DeleteMode string

const (
	// DeleteAll wipes every report row the function can see.
	DeleteAll DeleteMode = "ALL"
	// DeleteIDs wipes only the listed report ids.
	DeleteIDs DeleteMode = "IDS"
)

type adminDeleteRequest struct {
	Password string     `json:"password"`
	Mode     DeleteMode `json:"mode"`
	IDs      []string   `json:"ids,omitempty"`
}

type adminDeleteResponse struct {
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// AdminDeleteReports calls the privileged purge function. It authenticates
// with a shared admin password rather than the user session, so a lost device
// cannot invoke it with a cached token alone.
func (c *Client) AdminDeleteReports(ctx context.Context, password string, mode DeleteMode, ids []string) (int, error) {
	if password == "" {
		return 0, fmt.Errorf("remote: admin password is required")
	}
	if mode == DeleteIDs && len(ids) == 0 {
		return 0, fmt.Errorf("remote: mode IDS requires at least one id")
	}

	body, err := json.Marshal(adminDeleteRequest{Password: password, Mode: mode, IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("remote: encoding admin request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/functions/v1/admin-delete-reports", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	var resp adminDeleteResponse
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("remote: admin delete rejected: %s", resp.Error)
	}
	c.logger.Printf("Admin delete (%s) removed %d reports", mode, resp.Deleted)
	return resp.Deleted, nil
}
