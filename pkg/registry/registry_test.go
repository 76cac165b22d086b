package registry

import (
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	regTestStorefront = "storefront"
	regTestAdmin      = "admin"
)

// mockToolkit is a simple mock for testing.
type mockToolkit struct {
	kind       string
	name       string
	tools      []string
	registered int
	closeCalls int
	closeErr   error
}

func (m *mockToolkit) Kind() string                { return m.kind }
func (m *mockToolkit) Name() string                { return m.name }
func (m *mockToolkit) RegisterTools(_ *mcp.Server) { m.registered++ }
func (m *mockToolkit) Tools() []string             { return m.tools }
func (m *mockToolkit) Close() error                { m.closeCalls++; return m.closeErr }

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	toolkit := &mockToolkit{kind: regTestStorefront, name: "shop"}

	if err := reg.Register(toolkit); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, ok := reg.Get(regTestStorefront, "shop")
	if !ok {
		t.Fatal("Get() returned false")
	}
	if got.Kind() != regTestStorefront {
		t.Errorf("Kind() = %q, want %q", got.Kind(), regTestStorefront)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	toolkit := &mockToolkit{kind: regTestStorefront, name: "shop"}

	_ = reg.Register(toolkit)
	if err := reg.Register(toolkit); err == nil {
		t.Error("Register() expected error for duplicate")
	}
}

func TestRegistry_RegisterToolCollision(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&mockToolkit{kind: regTestStorefront, name: "a", tools: []string{"cart_view"}})

	err := reg.Register(&mockToolkit{kind: regTestStorefront, name: "b", tools: []string{"products_list", "cart_view"}})
	if err == nil {
		t.Fatal("Register() expected error for a tool name already taken")
	}
	if _, ok := reg.Get(regTestStorefront, "b"); ok {
		t.Error("rejected toolkit was registered")
	}
	if _, _, found := reg.GetToolkitForTool("products_list"); found {
		t.Error("tools of a rejected toolkit must not be claimed")
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("nonexistent", "name"); ok {
		t.Error("Get() returned true for nonexistent toolkit")
	}
}

func TestRegistry_GetByKind(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&mockToolkit{kind: regTestAdmin, name: "ops"})
	_ = reg.Register(&mockToolkit{kind: regTestAdmin, name: "audit"})
	_ = reg.Register(&mockToolkit{kind: regTestStorefront, name: "shop"})

	if got := reg.GetByKind(regTestAdmin); len(got) != 2 {
		t.Errorf("GetByKind(admin) returned %d toolkits, want 2", len(got))
	}
}

func TestRegistry_AllAndAllTools(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&mockToolkit{kind: regTestStorefront, name: "shop", tools: []string{"login", "cart_view"}})
	_ = reg.Register(&mockToolkit{kind: regTestAdmin, name: "ops", tools: []string{"admin_orders_list"}})

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d toolkits, want 2", len(all))
	}
	if all[0].Kind() != regTestStorefront {
		t.Errorf("All() order: first kind = %q, want registration order", all[0].Kind())
	}

	if tools := reg.AllTools(); len(tools) != 3 {
		t.Errorf("AllTools() returned %d tools, want 3", len(tools))
	}
}

func TestRegistry_GetToolkitForTool(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&mockToolkit{kind: regTestAdmin, name: "ops", tools: []string{"admin_revenue_summary"}})

	kind, name, found := reg.GetToolkitForTool("admin_revenue_summary")
	if !found || kind != regTestAdmin || name != "ops" {
		t.Errorf("GetToolkitForTool() = %q, %q, %v", kind, name, found)
	}
	if _, _, found := reg.GetToolkitForTool("missing"); found {
		t.Error("GetToolkitForTool() found a tool nobody provides")
	}
}

func TestRegistry_RegisterAllTools(t *testing.T) {
	reg := NewRegistry()
	a := &mockToolkit{kind: regTestStorefront, name: "shop"}
	b := &mockToolkit{kind: regTestAdmin, name: "ops"}
	_ = reg.Register(a)
	_ = reg.Register(b)

	reg.RegisterAllTools(mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil))
	if a.registered != 1 || b.registered != 1 {
		t.Errorf("registered = %d, %d, want 1, 1", a.registered, b.registered)
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := NewRegistry()
	toolkit := &mockToolkit{kind: regTestStorefront, name: "shop"}
	_ = reg.Register(toolkit)

	if err := reg.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if toolkit.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", toolkit.closeCalls)
	}
}

func TestRegistry_CloseWithError(t *testing.T) {
	reg := NewRegistry()
	failing := &mockToolkit{kind: regTestAdmin, name: "ops", closeErr: errors.New("close error")}
	other := &mockToolkit{kind: regTestStorefront, name: "shop"}
	_ = reg.Register(failing)
	_ = reg.Register(other)

	if err := reg.Close(); err == nil {
		t.Error("Close() expected error")
	}
	if other.closeCalls != 1 {
		t.Error("Close() must close every toolkit even after an error")
	}
}

func TestRegistry_CreateAndRegister(t *testing.T) {
	reg := NewRegistry()

	if err := reg.CreateAndRegister(ToolkitConfig{Kind: "unknown", Name: "x"}); err == nil {
		t.Error("CreateAndRegister() expected error for unknown kind")
	}

	reg.RegisterFactory(regTestAdmin, func(_ string, _ map[string]any) (Toolkit, error) {
		return nil, errors.New("bad config")
	})
	if err := reg.CreateAndRegister(ToolkitConfig{Kind: regTestAdmin, Name: "ops"}); err == nil {
		t.Error("CreateAndRegister() expected factory error")
	}

	var created []*mockToolkit
	reg.RegisterFactory(regTestStorefront, func(name string, _ map[string]any) (Toolkit, error) {
		tk := &mockToolkit{kind: regTestStorefront, name: name, tools: []string{"cart_view"}}
		created = append(created, tk)
		return tk, nil
	})
	if err := reg.CreateAndRegister(ToolkitConfig{Kind: regTestStorefront, Name: "a"}); err != nil {
		t.Fatalf("CreateAndRegister() error = %v", err)
	}
	if err := reg.CreateAndRegister(ToolkitConfig{Kind: regTestStorefront, Name: "b"}); err == nil {
		t.Fatal("CreateAndRegister() expected tool collision error")
	}
	if created[1].closeCalls != 1 {
		t.Error("a toolkit rejected at registration must be closed")
	}

	kinds := reg.Kinds()
	if len(kinds) != 2 || kinds[0] != regTestAdmin {
		t.Errorf("Kinds() = %v", kinds)
	}
}
