package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/validator"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) CreateUser(ctx context.Context, admin model.Actor, req *model.CreateUserRequest) (*model.User, error) {
	args := m.Called(ctx, admin, req)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) ListUsers(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	args := m.Called(ctx, filters)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

func (m *mockUsers) UpdateUser(ctx context.Context, admin model.Actor, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	args := m.Called(ctx, admin, id, req)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) DeleteUser(ctx context.Context, admin model.Actor, id uuid.UUID) error {
	return m.Called(ctx, admin, id).Error(0)
}

func (m *mockUsers) SetPassword(ctx context.Context, admin model.Actor, id uuid.UUID, pw string) error {
	return m.Called(ctx, admin, id, pw).Error(0)
}

// newEngine authenticates every request as the given claims
func newEngine(svc *mockUsers, claims *model.TokenClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterWithGin(); err != nil {
		panic(err)
	}
	r := gin.New()
	public := r.Group("/api/v1")
	protected := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextClaims, claims)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(public, protected)
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMe(t *testing.T) {
	claims := &model.TokenClaims{UserID: uuid.New(), Username: "stu", Role: model.RoleStudent}
	svc := new(mockUsers)
	svc.On("GetUser", mock.Anything, claims.UserID).Return(&model.User{Username: "stu"}, nil)

	w := send(newEngine(svc, claims), http.MethodGet, "/api/v1/users/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"stu"`)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	claims := &model.TokenClaims{UserID: uuid.New(), Username: "prof", Role: model.RoleStaff}
	svc := new(mockUsers)

	w := send(newEngine(svc, claims), http.MethodGet, "/api/v1/users", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}

func TestCreateUser(t *testing.T) {
	admin := &model.TokenClaims{UserID: uuid.New(), Username: "root", Role: model.RoleAdmin}
	svc := new(mockUsers)
	svc.On("CreateUser", mock.Anything, admin.Actor(), mock.Anything).
		Return(&model.User{Username: "ta.one", MustResetPassword: true}, nil)

	body := `{"username":"ta.one","email":"ta@campus.edu","name":"TA","role":"staff","password":"Secur3!Pass"}`
	w := send(newEngine(svc, admin), http.MethodPost, "/api/v1/users", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"must_reset_password":true`)
}

func TestCreateUser_InvalidRole(t *testing.T) {
	admin := &model.TokenClaims{UserID: uuid.New(), Username: "root", Role: model.RoleAdmin}
	svc := new(mockUsers)

	body := `{"username":"ta.one","email":"ta@campus.edu","name":"TA","role":"dean","password":"x"}`
	w := send(newEngine(svc, admin), http.MethodPost, "/api/v1/users", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "role must be one of")
}

func TestDeleteUser(t *testing.T) {
	admin := &model.TokenClaims{UserID: uuid.New(), Username: "root", Role: model.RoleAdmin}
	svc := new(mockUsers)
	svc.On("DeleteUser", mock.Anything, admin.Actor(), admin.UserID).
		Return(errors.BadRequest("cannot delete your own account", nil))

	r := newEngine(svc, admin)
	w := send(r, http.MethodDelete, "/api/v1/users/"+admin.UserID.String(), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodDelete, "/api/v1/users/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}
