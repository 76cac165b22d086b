package storefront

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Notices for the catalog tools.
const (
	msgProductsFailed   = "Không thể tải danh sách sản phẩm."
	msgSearchFailed     = "Không thể tải kết quả tìm kiếm."
	msgProductFailed    = "Không thể tải chi tiết sản phẩm."
	msgCategoriesFailed = "Không thể tải danh mục."
	msgSearchEmpty      = "Vui lòng nhập từ khóa tìm kiếm."
	msgCategoryEmpty    = "Vui lòng chọn danh mục."
	msgProductIDEmpty   = "Vui lòng chọn sản phẩm."
)

type productsListInput struct {
	Page       int  `json:"page,omitempty" jsonschema:"page number, starting at 1"`
	Featured   bool `json:"featured,omitempty" jsonschema:"only featured products"`
	Bestseller bool `json:"bestseller,omitempty" jsonschema:"only bestsellers"`
}

type searchInput struct {
	Query string `json:"query" jsonschema:"text to match against product names"`
	Page  int    `json:"page,omitempty" jsonschema:"page number, starting at 1"`
}

type byCategoryInput struct {
	Category string `json:"category" jsonschema:"category name as returned by categories_list"`
	Page     int    `json:"page,omitempty" jsonschema:"page number, starting at 1"`
}

type productGetInput struct {
	ID             string `json:"id" jsonschema:"product id"`
	IncludeRelated bool   `json:"include_related,omitempty" jsonschema:"also return related products"`
}

// productDetail is a product with its related products.
type productDetail struct {
	Product toolkits.ProductView   `json:"product"`
	Related []toolkits.ProductView `json:"related,omitempty"`
}

func (t *Toolkit) registerCatalogTools(s *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolProducts,
		Description: "List the book catalog one page at a time, optionally only featured or bestselling titles.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleProducts))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolSearch,
		Description: "Search books by name.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleSearch))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolByCategory,
		Description: "List the books of one category.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleByCategory))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolProduct,
		Description: "Get one book with formatted prices, optionally with related titles.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleProduct))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCategories,
		Description: "List the catalog categories.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleCategories))
}

func (t *Toolkit) handleProducts(ctx context.Context, _ *mcp.CallToolRequest, in productsListInput) (*mcp.CallToolResult, any, error) {
	page, err := t.deps.API.ListProducts(ctx, api.ProductQuery{Page: in.Page, Featured: in.Featured, Bestseller: in.Bestseller})
	if err != nil {
		return t.deps.Failure(ctx, err, msgProductsFailed)
	}
	return t.deps.Success(ctx, t.deps.ProductPage(page))
}

func (t *Toolkit) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return toolkits.ErrorResult(msgSearchEmpty), nil, nil
	}
	page, err := t.deps.API.SearchProducts(ctx, query, in.Page)
	if err != nil {
		return t.deps.Failure(ctx, err, msgSearchFailed)
	}
	return t.deps.Success(ctx, t.deps.ProductPage(page))
}

func (t *Toolkit) handleByCategory(ctx context.Context, _ *mcp.CallToolRequest, in byCategoryInput) (*mcp.CallToolResult, any, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return toolkits.ErrorResult(msgCategoryEmpty), nil, nil
	}
	page, err := t.deps.API.ProductsByCategory(ctx, category, in.Page)
	if err != nil {
		return t.deps.Failure(ctx, err, msgProductsFailed)
	}
	return t.deps.Success(ctx, t.deps.ProductPage(page))
}

func (t *Toolkit) handleProduct(ctx context.Context, _ *mcp.CallToolRequest, in productGetInput) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return toolkits.ErrorResult(msgProductIDEmpty), nil, nil
	}
	p, err := t.deps.API.GetProduct(ctx, id)
	if err != nil {
		return t.deps.Failure(ctx, err, msgProductFailed)
	}

	out := productDetail{Product: t.deps.Product(*p)}
	if in.IncludeRelated {
		related, err := t.deps.API.RelatedProducts(ctx, id)
		if err != nil {
			slog.Warn("loading related products", "product_id", id, "error", err)
		} else {
			out.Related = t.deps.Products(related)
		}
	}
	return t.deps.Success(ctx, out)
}

func (t *Toolkit) handleCategories(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	categories, err := t.deps.API.Categories(ctx)
	if err != nil {
		return t.deps.Failure(ctx, err, msgCategoriesFailed)
	}
	if categories == nil {
		categories = []string{}
	}
	return t.deps.Success(ctx, categories)
}
