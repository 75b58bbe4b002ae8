package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "user-service/internal/domain/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockUserUsecase is a mock implementation of user.UserUsecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUsecase) GetUserByID(ctx context.Context, id int64) (domain.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *MockUserUsecase) AddUser(ctx context.Context, u domain.User) (domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, u domain.User) (domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	h := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/users", h.GetAllUsers)
	r.GET("/users/:id", h.GetUserByID)
	r.POST("/users", h.AddUser)
	r.PUT("/users", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	return r, mockUsecase
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

var stored = domain.User{ID: 1, FirstName: "Ann", LastName: "Lee", Age: 30, Email: "a@x.com", Password: "secret"}

func TestGetAllUsers(t *testing.T) {
	t.Run("Success omits password", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetAllUsers", mock.Anything).Return([]domain.User{stored, {ID: 2, FirstName: "Bob", Password: "pw"}}, nil)

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		assert.NotContains(t, w.Body.String(), "secret")

		var resp []domain.PublicUser
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		assert.Equal(t, stored.Public(), resp[0])
	})

	t.Run("Empty list is an array", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetAllUsers", mock.Anything).Return([]domain.User{}, nil)

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetAllUsers", mock.Anything).Return(nil, errors.New("db down"))

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUserByID", mock.Anything, int64(1)).Return(stored, true, nil)

		w := do(r, http.MethodGet, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"firstName":"Ann","lastName":"Lee","age":30,"email":"a@x.com"}`, w.Body.String())
	})

	t.Run("Absent yields null", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUserByID", mock.Anything, int64(9)).Return(domain.User{}, false, nil)

		w := do(r, http.MethodGet, "/users/9", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", w.Body.String())
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodGet, "/users/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUserByID", mock.Anything, int64(1)).Return(domain.User{}, false, errors.New("timeout"))

		w := do(r, http.MethodGet, "/users/1", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAddUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("AddUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
			return u.FirstName == "Ann" && u.Age == 30 && u.Password == "secret"
		})).Return(stored, nil)

		w := do(r, http.MethodPost, "/users", `{"firstName":"Ann","lastName":"Lee","age":30,"email":"a@x.com","password":"secret"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")

		var resp domain.PublicUser
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.ID)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodPost, "/users", "invalid json")

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_input", resp.Error)
		mockUsecase.AssertNotCalled(t, "AddUser", mock.Anything, mock.Anything)
	})

	t.Run("Wrong field type", func(t *testing.T) {
		r, _ := setupTest(t)

		w := do(r, http.MethodPost, "/users", `{"age":"thirty"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("AddUser", mock.Anything, mock.Anything).Return(domain.User{}, errors.New("internal error"))

		w := do(r, http.MethodPost, "/users", `{"firstName":"Ann"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		updated := stored
		updated.Age = 31
		mockUsecase.On("UpdateUser", mock.Anything, updated).Return(updated, nil)

		w := do(r, http.MethodPut, "/users", `{"id":1,"firstName":"Ann","lastName":"Lee","age":31,"email":"a@x.com","password":"secret"}`)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp domain.PublicUser
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 31, resp.Age)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		r, _ := setupTest(t)

		w := do(r, http.MethodPut, "/users", "{")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, int64(1)).Return(nil)

		w := do(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, _ := setupTest(t)

		w := do(r, http.MethodDelete, "/users/x1", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, int64(1)).Return(errors.New("locked"))

		w := do(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
