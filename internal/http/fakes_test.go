package httpapi_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/auth"
	"github.com/andreasstove999/storefront-go/internal/cart"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/chat"
	"github.com/andreasstove999/storefront-go/internal/contact"
	"github.com/andreasstove999/storefront-go/internal/design"
	"github.com/andreasstove999/storefront-go/internal/favorites"
	httpapi "github.com/andreasstove999/storefront-go/internal/http"
	"github.com/andreasstove999/storefront-go/internal/order"
)

const testSecret = "test-secret"

type CartServiceMock struct {
	SnapshotFunc   func(ctx context.Context, userID string) (cart.Snapshot, error)
	AddItemFunc    func(ctx context.Context, userID, productID string, quantity int) (cart.Snapshot, error)
	UpdateItemFunc func(ctx context.Context, userID, itemID string, quantity int) (cart.Snapshot, error)
	RemoveItemFunc func(ctx context.Context, userID, itemID string) (cart.Snapshot, error)
	ClearFunc      func(ctx context.Context, userID string) (cart.Snapshot, error)
	MergeFunc      func(ctx context.Context, userID string, lines []cart.MergeLine) (cart.MergeResult, error)
}

func (m *CartServiceMock) Snapshot(ctx context.Context, userID string) (cart.Snapshot, error) {
	return m.SnapshotFunc(ctx, userID)
}

func (m *CartServiceMock) AddItem(ctx context.Context, userID, productID string, quantity int) (cart.Snapshot, error) {
	return m.AddItemFunc(ctx, userID, productID, quantity)
}

func (m *CartServiceMock) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (cart.Snapshot, error) {
	return m.UpdateItemFunc(ctx, userID, itemID, quantity)
}

func (m *CartServiceMock) RemoveItem(ctx context.Context, userID, itemID string) (cart.Snapshot, error) {
	return m.RemoveItemFunc(ctx, userID, itemID)
}

func (m *CartServiceMock) Clear(ctx context.Context, userID string) (cart.Snapshot, error) {
	return m.ClearFunc(ctx, userID)
}

func (m *CartServiceMock) Merge(ctx context.Context, userID string, lines []cart.MergeLine) (cart.MergeResult, error) {
	return m.MergeFunc(ctx, userID, lines)
}

type OrderServiceMock struct {
	PlaceFunc        func(ctx context.Context, in order.PlaceInput) (order.PlaceResult, error)
	FindForAdminFunc func(ctx context.Context, status string) ([]order.Order, error)
	ListMineFunc     func(ctx context.Context, userID string) ([]order.Order, error)
	GetFunc          func(ctx context.Context, orderID, userID string, isAdmin bool) (order.Order, error)
}

func (m *OrderServiceMock) Place(ctx context.Context, in order.PlaceInput) (order.PlaceResult, error) {
	return m.PlaceFunc(ctx, in)
}

func (m *OrderServiceMock) FindForAdmin(ctx context.Context, status string) ([]order.Order, error) {
	return m.FindForAdminFunc(ctx, status)
}

func (m *OrderServiceMock) ListMine(ctx context.Context, userID string) ([]order.Order, error) {
	return m.ListMineFunc(ctx, userID)
}

func (m *OrderServiceMock) Get(ctx context.Context, orderID, userID string, isAdmin bool) (order.Order, error) {
	return m.GetFunc(ctx, orderID, userID, isAdmin)
}

type CatalogServiceMock struct {
	ListFunc   func(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error)
	GetFunc    func(ctx context.Context, idOrSlug string) (catalog.Product, error)
	CreateFunc func(ctx context.Context, in catalog.NewProduct) (catalog.Product, error)
	UpdateFunc func(ctx context.Context, id string, patch catalog.Patch) (catalog.Product, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *CatalogServiceMock) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error) {
	return m.ListFunc(ctx, f)
}

func (m *CatalogServiceMock) Get(ctx context.Context, idOrSlug string) (catalog.Product, error) {
	return m.GetFunc(ctx, idOrSlug)
}

func (m *CatalogServiceMock) Create(ctx context.Context, in catalog.NewProduct) (catalog.Product, error) {
	return m.CreateFunc(ctx, in)
}

func (m *CatalogServiceMock) Update(ctx context.Context, id string, patch catalog.Patch) (catalog.Product, error) {
	return m.UpdateFunc(ctx, id, patch)
}

func (m *CatalogServiceMock) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type FavoritesRepositoryMock struct {
	ListFunc   func(ctx context.Context, userID string) ([]favorites.Favorite, error)
	AddFunc    func(ctx context.Context, userID, productID string) error
	RemoveFunc func(ctx context.Context, userID, productID string) error
}

func (m *FavoritesRepositoryMock) List(ctx context.Context, userID string) ([]favorites.Favorite, error) {
	return m.ListFunc(ctx, userID)
}

func (m *FavoritesRepositoryMock) Add(ctx context.Context, userID, productID string) error {
	return m.AddFunc(ctx, userID, productID)
}

func (m *FavoritesRepositoryMock) Remove(ctx context.Context, userID, productID string) error {
	return m.RemoveFunc(ctx, userID, productID)
}

type ChatServiceMock struct {
	UserSendFunc          func(ctx context.Context, userID, email, text string) (chat.Message, error)
	PublicSendFunc        func(ctx context.Context, email, name, text string) (chat.Message, error)
	AdminReplyFunc        func(ctx context.Context, conversationID, adminID, text string) (chat.Message, error)
	ListMineFunc          func(ctx context.Context, userID string) ([]chat.Message, error)
	ListConversationsFunc func(ctx context.Context) ([]chat.Conversation, error)
	ListMessagesFunc      func(ctx context.Context, conversationID string) ([]chat.Message, error)
}

func (m *ChatServiceMock) UserSend(ctx context.Context, userID, email, text string) (chat.Message, error) {
	return m.UserSendFunc(ctx, userID, email, text)
}

func (m *ChatServiceMock) PublicSend(ctx context.Context, email, name, text string) (chat.Message, error) {
	return m.PublicSendFunc(ctx, email, name, text)
}

func (m *ChatServiceMock) AdminReply(ctx context.Context, conversationID, adminID, text string) (chat.Message, error) {
	return m.AdminReplyFunc(ctx, conversationID, adminID, text)
}

func (m *ChatServiceMock) ListMine(ctx context.Context, userID string) ([]chat.Message, error) {
	return m.ListMineFunc(ctx, userID)
}

func (m *ChatServiceMock) ListConversations(ctx context.Context) ([]chat.Conversation, error) {
	return m.ListConversationsFunc(ctx)
}

func (m *ChatServiceMock) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	return m.ListMessagesFunc(ctx, conversationID)
}

type DesignServiceMock struct {
	CreateFunc   func(ctx context.Context, in design.NewDesign) (design.Design, error)
	ListAllFunc  func(ctx context.Context) ([]design.Design, error)
	ListMineFunc func(ctx context.Context, userID string) ([]design.Design, error)
}

func (m *DesignServiceMock) Create(ctx context.Context, in design.NewDesign) (design.Design, error) {
	return m.CreateFunc(ctx, in)
}

func (m *DesignServiceMock) ListAll(ctx context.Context) ([]design.Design, error) {
	return m.ListAllFunc(ctx)
}

func (m *DesignServiceMock) ListMine(ctx context.Context, userID string) ([]design.Design, error) {
	return m.ListMineFunc(ctx, userID)
}

type ContactServiceMock struct {
	SubmitFunc   func(ctx context.Context, name, email, message string) (contact.Message, error)
	ListAllFunc  func(ctx context.Context) ([]contact.Message, error)
	MarkReadFunc func(ctx context.Context, id string) (contact.Message, error)
	ReplyFunc    func(ctx context.Context, id, text string) (contact.Message, error)
}

func (m *ContactServiceMock) Submit(ctx context.Context, name, email, message string) (contact.Message, error) {
	return m.SubmitFunc(ctx, name, email, message)
}

func (m *ContactServiceMock) ListAll(ctx context.Context) ([]contact.Message, error) {
	return m.ListAllFunc(ctx)
}

func (m *ContactServiceMock) MarkRead(ctx context.Context, id string) (contact.Message, error) {
	return m.MarkReadFunc(ctx, id)
}

func (m *ContactServiceMock) Reply(ctx context.Context, id, text string) (contact.Message, error) {
	return m.ReplyFunc(ctx, id, text)
}

type signerFunc func(ctx context.Context, path string) (string, error)

func (f signerFunc) Sign(ctx context.Context, path string) (string, error) { return f(ctx, path) }

// newRouter fills every dependency the test did not set with a mock that
// fails loudly when called.
func newRouter(t *testing.T, d httpapi.Deps) http.Handler {
	t.Helper()
	d.Logger = zap.NewNop()
	d.CORSAllowOrigins = []string{"*"}
	d.Tokens = auth.NewIssuer(testSecret, time.Hour)
	if d.Cart == nil {
		d.Cart = &CartServiceMock{}
	}
	if d.Orders == nil {
		d.Orders = &OrderServiceMock{}
	}
	if d.Catalog == nil {
		d.Catalog = &CatalogServiceMock{}
	}
	if d.Favorites == nil {
		d.Favorites = &FavoritesRepositoryMock{}
	}
	if d.Chat == nil {
		d.Chat = &ChatServiceMock{}
	}
	if d.Designs == nil {
		d.Designs = &DesignServiceMock{}
	}
	if d.Contact == nil {
		d.Contact = &ContactServiceMock{}
	}
	if d.Files == nil {
		d.Files = signerFunc(func(context.Context, string) (string, error) {
			return "", apperr.ErrNotFound
		})
	}
	return httpapi.NewRouter(d)
}

func tokenFor(t *testing.T, userID string, role auth.Role) string {
	t.Helper()
	token, err := auth.NewIssuer(testSecret, time.Hour).Sign(auth.Principal{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// do sends a request as userID with the given role; an empty userID sends
// no token.
func do(t *testing.T, h http.Handler, method, path, body, userID string, role auth.Role) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID, role))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
