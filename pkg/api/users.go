package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/format"
	"github.com/txn2/mcp-bookstore/pkg/session"
)

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds bookstore.Credentials) (*session.Session, error) {
	var sess session.Session
	err := c.send(ctx, request{method: http.MethodPost, url: endpoint(c.cfg.UsersURL, "login"), body: creds}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Register creates an account and returns its session.
func (c *Client) Register(ctx context.Context, reg bookstore.Registration) (*session.Session, error) {
	var sess session.Session
	err := c.send(ctx, request{method: http.MethodPost, url: endpoint(c.cfg.UsersURL, "register"), body: reg}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListUsers returns one page of accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context, token string, page int) (*bookstore.UserPage, error) {
	var result bookstore.UserPage
	err := c.send(ctx, request{
		method: http.MethodGet,
		url:    withQuery(c.cfg.UsersURL, url.Values{"pageNumber": {format.PageParam(page)}}),
		token:  token,
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.send(ctx, request{
		method: http.MethodDelete,
		url:    endpoint(c.cfg.UsersURL, id),
		token:  token,
		auth:   true,
	}, nil)
}
