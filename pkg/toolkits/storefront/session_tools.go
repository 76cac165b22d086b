package storefront

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/session"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Notices for the session tools.
const (
	msgLoginFailed    = "Đăng nhập thất bại."
	msgRegisterFailed = "Đăng ký thất bại."
	msgLogoutFailed   = "Đăng xuất thất bại."
	msgCredentials    = "Vui lòng nhập email và mật khẩu."
	msgRegisterFields = "Vui lòng nhập họ tên, email và mật khẩu."
)

type loginInput struct {
	Email    string `json:"email" jsonschema:"account email"`
	Password string `json:"password" jsonschema:"account password"`
}

type registerInput struct {
	Name     string `json:"name" jsonschema:"display name"`
	Email    string `json:"email" jsonschema:"account email"`
	Password string `json:"password" jsonschema:"account password"`
}

type emptyInput struct{}

func (t *Toolkit) registerSessionTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolLogin,
		Description: "Sign in to the bookstore. The session is kept until session_logout and survives restarts.",
	}, toolkits.Scoped(t.handleLogin))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolRegister,
		Description: "Create a bookstore account and sign in with it.",
	}, toolkits.Scoped(t.handleRegister))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolLogout,
		Description: "Sign out. Clears the stored session and the cart view.",
	}, toolkits.Scoped(t.handleLogout))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolWhoami,
		Description: "Show the signed-in user, whether they are an administrator and when their token expires.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, toolkits.Scoped(t.handleWhoami))
}

func (t *Toolkit) handleLogin(ctx context.Context, _ *mcp.CallToolRequest, in loginInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return toolkits.ErrorResult(msgCredentials), nil, nil
	}
	sess, err := t.deps.API.Login(ctx, bookstore.Credentials{Email: strings.TrimSpace(in.Email), Password: in.Password})
	if err != nil {
		return t.deps.Failure(ctx, err, msgLoginFailed)
	}
	return t.signIn(ctx, sess, msgLoginFailed)
}

func (t *Toolkit) handleRegister(ctx context.Context, _ *mcp.CallToolRequest, in registerInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return toolkits.ErrorResult(msgRegisterFields), nil, nil
	}
	sess, err := t.deps.API.Register(ctx, bookstore.Registration{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	})
	if err != nil {
		return t.deps.Failure(ctx, err, msgRegisterFailed)
	}
	return t.signIn(ctx, sess, msgRegisterFailed)
}

// signIn stores sess and loads the user's cart. A cart that fails to load
// does not undo the sign-in.
func (t *Toolkit) signIn(ctx context.Context, sess *session.Session, failMsg string) (*mcp.CallToolResult, any, error) {
	if err := t.deps.Sessions.Login(ctx, *sess); err != nil {
		return t.deps.Failure(ctx, err, failMsg)
	}
	if err := t.deps.Cart.Refresh(ctx); err != nil {
		slog.Warn("loading cart after sign-in", "error", err)
	}
	return t.deps.Success(ctx, t.deps.SessionOf(sess))
}

func (t *Toolkit) handleLogout(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if err := t.deps.Sessions.Logout(ctx); err != nil {
		return t.deps.Failure(ctx, err, msgLogoutFailed)
	}
	return t.deps.Success(ctx, t.deps.Session())
}

func (t *Toolkit) handleWhoami(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	return t.deps.Success(ctx, t.deps.Session())
}
