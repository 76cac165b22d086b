package admin

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Notices for the user tools.
const (
	msgUsersFailed      = "Không thể tải danh sách người dùng."
	msgDeleteUserFail   = "Xóa người dùng thất bại."
	msgUserDeleted      = "Đã xóa người dùng."
	msgUserIDEmpty      = "Vui lòng chọn người dùng."
	msgCannotDeleteSelf = "Không thể xóa tài khoản đang đăng nhập."
)

type userDeleteInput struct {
	ID      string `json:"id" jsonschema:"user id"`
	Confirm bool   `json:"confirm" jsonschema:"must be true: deleting a user cannot be undone"`
}

// userView is an account with its creation date formatted.
type userView struct {
	bookstore.User
	CreatedAtDisplay string `json:"createdAtDisplay,omitempty"`
}

// userPageView is one page of accounts.
type userPageView struct {
	Users []userView `json:"users"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}

// deletedView acknowledges a deletion.
type deletedView struct {
	ID      string `json:"_id"`
	Deleted bool   `json:"deleted"`
}

func (t *Toolkit) registerUserTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolUsers,
		Description: "List registered accounts one page at a time.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, toolkits.Scoped(t.handleUsers))

	if t.cfg.ReadOnly {
		return
	}
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolDeleteUser,
		Description: "Delete an account. Requires confirm=true. The signed-in administrator cannot delete themselves.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr(true)},
	}, toolkits.Scoped(t.handleDeleteUser))
}

func (t *Toolkit) handleUsers(ctx context.Context, _ *mcp.CallToolRequest, in pageInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	page, err := t.deps.API.ListUsers(ctx, t.deps.Sessions.Token(), in.Page)
	if err != nil {
		return t.deps.Failure(ctx, err, msgUsersFailed)
	}
	out := userPageView{Users: make([]userView, 0, len(page.Users)), Page: page.Page, Pages: page.Pages}
	for _, u := range page.Users {
		out.Users = append(out.Users, userView{User: u, CreatedAtDisplay: t.deps.Format.DatePtr(u.CreatedAt)})
	}
	return t.deps.Success(ctx, out)
}

func (t *Toolkit) handleDeleteUser(ctx context.Context, _ *mcp.CallToolRequest, in userDeleteInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	id := strings.TrimSpace(in.ID)
	switch {
	case id == "":
		return toolkits.ErrorResult(msgUserIDEmpty), nil, nil
	case !in.Confirm:
		return toolkits.ErrorResult(toolkits.MsgConfirm), nil, nil
	}
	if cur := t.deps.Sessions.Current(); cur != nil && cur.ID == id {
		return toolkits.ErrorResult(msgCannotDeleteSelf), nil, nil
	}

	if err := t.deps.API.DeleteUser(ctx, t.deps.Sessions.Token(), id); err != nil {
		return t.deps.Failure(ctx, err, msgDeleteUserFail)
	}
	t.deps.Notify(ctx).Success(msgUserDeleted)
	return t.deps.Success(ctx, deletedView{ID: id, Deleted: true})
}

func ptr[T any](v T) *T { return &v }
