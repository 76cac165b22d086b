package admin

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Notices for the product tools.
const (
	msgCreateProductFail = "Tạo sản phẩm thất bại."
	msgUpdateProductFail = "Cập nhật sản phẩm thất bại."
	msgDeleteProductFail = "Xóa sản phẩm thất bại."
	msgProductCreated    = "Đã tạo sản phẩm."
	msgProductUpdated    = "Đã cập nhật sản phẩm."
	msgProductDeleted    = "Đã xóa sản phẩm."
	msgProductIDEmpty    = "Vui lòng chọn sản phẩm."
	msgProductFields     = "Vui lòng nhập tên sản phẩm và giá hợp lệ."
)

// productFields are the editable catalog fields.
type productFields struct {
	Name          string   `json:"name" jsonschema:"title"`
	Author        string   `json:"author,omitempty"`
	Description   string   `json:"description,omitempty" jsonschema:"HTML description"`
	Category      string   `json:"category,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Price         float64  `json:"price" jsonschema:"price in VND"`
	SalePrice     *float64 `json:"sale_price,omitempty" jsonschema:"discounted price in VND"`
	Stock         int      `json:"stock,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedYear int      `json:"published_year,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Featured      bool     `json:"featured,omitempty"`
	Bestseller    bool     `json:"bestseller,omitempty"`
}

type productUpdateInput struct {
	ID      string        `json:"id" jsonschema:"product id"`
	Product productFields `json:"product" jsonschema:"the complete new field values"`
}

type productDeleteInput struct {
	ID      string `json:"id" jsonschema:"product id"`
	Confirm bool   `json:"confirm" jsonschema:"must be true: deleting a product cannot be undone"`
}

func (f productFields) valid() bool {
	return strings.TrimSpace(f.Name) != "" && f.Price >= 0 && (f.SalePrice == nil || *f.SalePrice >= 0)
}

func (f productFields) product() bookstore.Product {
	return bookstore.Product{
		Name:          strings.TrimSpace(f.Name),
		Author:        strings.TrimSpace(f.Author),
		Description:   f.Description,
		Category:      strings.TrimSpace(f.Category),
		ImageURL:      strings.TrimSpace(f.ImageURL),
		Price:         f.Price,
		SalePrice:     f.SalePrice,
		Stock:         f.Stock,
		Publisher:     strings.TrimSpace(f.Publisher),
		PublishedYear: f.PublishedYear,
		PageCount:     f.PageCount,
		Featured:      f.Featured,
		Bestseller:    f.Bestseller,
	}
}

func (t *Toolkit) registerProductTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCreateProduct,
		Description: "Add a book to the catalog.",
	}, toolkits.Scoped(t.handleCreateProduct))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolUpdateProduct,
		Description: "Replace the editable fields of a book.",
	}, toolkits.Scoped(t.handleUpdateProduct))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolDeleteProduct,
		Description: "Remove a book from the catalog. Requires confirm=true.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr(true)},
	}, toolkits.Scoped(t.handleDeleteProduct))
}

func (t *Toolkit) handleCreateProduct(ctx context.Context, _ *mcp.CallToolRequest, in productFields) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	if !in.valid() {
		return toolkits.ErrorResult(msgProductFields), nil, nil
	}
	created, err := t.deps.API.CreateProduct(ctx, t.deps.Sessions.Token(), in.product())
	if err != nil {
		return t.deps.Failure(ctx, err, msgCreateProductFail)
	}
	t.deps.Notify(ctx).Success(msgProductCreated)
	return t.deps.Success(ctx, t.deps.Product(*created))
}

func (t *Toolkit) handleUpdateProduct(ctx context.Context, _ *mcp.CallToolRequest, in productUpdateInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return toolkits.ErrorResult(msgProductIDEmpty), nil, nil
	}
	if !in.Product.valid() {
		return toolkits.ErrorResult(msgProductFields), nil, nil
	}
	updated, err := t.deps.API.UpdateProduct(ctx, t.deps.Sessions.Token(), id, in.Product.product())
	if err != nil {
		return t.deps.Failure(ctx, err, msgUpdateProductFail)
	}
	t.deps.Notify(ctx).Success(msgProductUpdated)
	return t.deps.Success(ctx, t.deps.Product(*updated))
}

func (t *Toolkit) handleDeleteProduct(ctx context.Context, _ *mcp.CallToolRequest, in productDeleteInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	id := strings.TrimSpace(in.ID)
	switch {
	case id == "":
		return toolkits.ErrorResult(msgProductIDEmpty), nil, nil
	case !in.Confirm:
		return toolkits.ErrorResult(toolkits.MsgConfirm), nil, nil
	}
	if err := t.deps.API.DeleteProduct(ctx, t.deps.Sessions.Token(), id); err != nil {
		return t.deps.Failure(ctx, err, msgDeleteProductFail)
	}
	t.deps.Notify(ctx).Success(msgProductDeleted)
	return t.deps.Success(ctx, deletedView{ID: id, Deleted: true})
}
