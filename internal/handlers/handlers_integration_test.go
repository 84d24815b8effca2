package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"tienda/internal/database/databasetest"
	"tienda/internal/handlers"
	"tienda/internal/models"
	"tienda/internal/repositories"
	"tienda/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

type testEnv struct {
	app  *fiber.App
	db   *gorm.DB
	auth *services.AuthService
}

// setupApp builds a Fiber app backed by a fresh in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	db := databasetest.Open(t)

	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)

	cartService := services.NewCartService(cartRepo, productRepo, nil)
	authService := services.NewAuthService(userRepo, cartService, nil, testJWTSecret, time.Hour)

	app := fiber.New()
	handlers.NewProductHandler(services.NewProductService(productRepo)).RegisterRoutes(app)
	handlers.NewCategoryHandler(services.NewCategoryService(categoryRepo, productRepo)).RegisterRoutes(app)
	handlers.NewUserHandler(authService, services.NewUserService(userRepo)).RegisterRoutes(app)
	handlers.NewCartHandler(cartService, authService).RegisterRoutes(app)

	return &testEnv{app: app, db: db, auth: authService}
}

// TestMain silences logging for cleaner output.
func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// request sends body as JSON and decodes the JSON response into out when out is not nil.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// registerAndLogin creates a regular user through the API and returns its id and token.
func (e *testEnv) registerAndLogin(t *testing.T, email string) (uint, string) {
	t.Helper()

	var registered struct {
		User models.User `json:"user"`
	}
	status := e.request(t, http.MethodPost, "/usuarios", "", fiber.Map{
		"nombre":   "Test User",
		"email":    email,
		"password": "password123",
	}, &registered)
	require.Equal(t, http.StatusCreated, status)

	var login map[string]string
	status = e.request(t, http.MethodPost, "/usuarios/login", "", fiber.Map{
		"email":    email,
		"password": "password123",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login["token"])

	return registered.User.ID, login["token"]
}

// adminToken stores an administrator directly and signs a token for it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.User{Name: "Admin", Email: "admin@tienda.test", Password: string(hash), Role: models.RoleAdmin}
	require.NoError(t, e.db.Create(admin).Error)

	token, err := e.auth.IssueToken(admin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) createProduct(t *testing.T, body fiber.Map) models.Product {
	t.Helper()
	var product models.Product
	require.Equal(t, http.StatusCreated, e.request(t, http.MethodPost, "/productos", "", body, &product))
	return product
}

func TestUserRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	userID, token := env.registerAndLogin(t, "Test@Example.com")
	assert.NotZero(t, userID)

	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)

	t.Run("RegistrationProvisionsCart", func(t *testing.T) {
		var count int64
		require.NoError(t, env.db.Model(&models.Cart{}).Where("usuario_id = ?", userID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		status := env.request(t, http.MethodPost, "/usuarios", "", fiber.Map{
			"nombre": "Other", "email": "test@example.com", "password": "password123",
		}, nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		var body map[string]interface{}
		status := env.request(t, http.MethodPost, "/usuarios", "", fiber.Map{"email": "not-an-email"}, &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Validation failed", body["message"])
		assert.Contains(t, body["errors"], "email")
		assert.Contains(t, body["errors"], "nombre")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		status := env.request(t, http.MethodPost, "/usuarios/login", "", fiber.Map{
			"email": "test@example.com", "password": "wrong-password",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		status := env.request(t, http.MethodPost, "/usuarios/login", "", fiber.Map{
			"email": "nobody@example.com", "password": "password123",
		}, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("CheckEmail", func(t *testing.T) {
		var body map[string]interface{}
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/usuarios/check-email?email=free@example.com", "", nil, &body))
		assert.Equal(t, true, body["disponible"])

		assert.Equal(t, http.StatusConflict, env.request(t, http.MethodGet, "/usuarios/check-email?email=TEST@example.com", "", nil, nil))
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodGet, "/usuarios/check-email", "", nil, nil))
	})

	t.Run("Profile", func(t *testing.T) {
		var profile map[string]interface{}
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/usuarios/perfil", token, nil, &profile))
		assert.Equal(t, "test@example.com", profile["email"])
		assert.NotContains(t, profile, "password")
		assert.NotContains(t, profile, "contrasena")

		assert.Equal(t, http.StatusUnauthorized, env.request(t, http.MethodGet, "/usuarios/perfil", "", nil, nil))
		assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, "/usuarios/perfil", "garbage", nil, nil))
	})
}

func TestAdminRoleAssignment(t *testing.T) {
	env := setupApp(t)
	admin := env.adminToken(t)
	_, userToken := env.registerAndLogin(t, "plain@example.com")

	newAdmin := fiber.Map{"nombre": "Boss", "email": "boss@example.com", "password": "password123", "rol": "admin"}

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPost, "/usuarios", "", newAdmin, nil))
	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPost, "/usuarios", userToken, newAdmin, nil))

	var created struct {
		User models.User `json:"user"`
	}
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/usuarios", admin, newAdmin, &created))
	assert.Equal(t, models.RoleAdmin, created.User.Role)
}

func TestUserAccountAccess(t *testing.T) {
	env := setupApp(t)
	admin := env.adminToken(t)
	aliceID, alice := env.registerAndLogin(t, "alice@example.com")
	bobID, _ := env.registerAndLogin(t, "bob@example.com")

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, "/usuarios", alice, nil, nil))

	var users []models.User
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/usuarios", admin, nil, &users))
	assert.Len(t, users, 3)

	aliceURL := fmt.Sprintf("/usuarios/%d", aliceID)
	bobURL := fmt.Sprintf("/usuarios/%d", bobID)

	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, aliceURL, alice, nil, nil))
	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, bobURL, alice, nil, nil))
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, bobURL, admin, nil, nil))

	t.Run("UpdateSelf", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodPut, aliceURL, alice, fiber.Map{"telefono": "555-0101"}, nil))

		var user models.User
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, aliceURL, alice, nil, &user))
		require.NotNil(t, user.Phone)
		assert.Equal(t, "555-0101", *user.Phone)
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("RoleChangeNeedsAdmin", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPut, aliceURL, alice, fiber.Map{"rol": "admin"}, nil))
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodPut, bobURL, admin, fiber.Map{"rol": "admin"}, nil))
	})

	t.Run("EmailConflict", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, env.request(t, http.MethodPut, aliceURL, alice, fiber.Map{"email": "bob@example.com"}, nil))
	})

	t.Run("Delete", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodDelete, bobURL, alice, nil, nil))
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, aliceURL, alice, nil, nil))
		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, aliceURL, admin, nil, nil))
	})
}

func TestProductEndpoints(t *testing.T) {
	env := setupApp(t)

	var empty []models.Product
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/productos", "", nil, &empty))
	assert.Empty(t, empty)

	shirt := env.createProduct(t, fiber.Map{"nombre": "Blue Shirt", "tipo": "shirt", "precio": "19.99", "disponibilidad": true})
	env.createProduct(t, fiber.Map{"nombre": "Red Shirt", "tipo": "shirt", "precio": 45})
	env.createProduct(t, fiber.Map{"nombre": "Gold Ring", "tipo": "ring", "precio": "250.00"})

	t.Run("List", func(t *testing.T) {
		var products []models.Product
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/productos", "", nil, &products))
		assert.Len(t, products, 3)
	})

	t.Run("Search", func(t *testing.T) {
		var products []models.Product
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/productos?tipo=shirt&precio_min=10&precio_max=50", "", nil, &products))
		assert.Len(t, products, 2)

		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, "/productos?nombre=hat", "", nil, nil))
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodGet, "/productos?precio_min=cheap", "", nil, nil))
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodGet, "/productos?precio_min=60&precio_max=10", "", nil, nil))
	})

	t.Run("CreateValidation", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPost, "/productos", "", fiber.Map{"nombre": "No Price", "tipo": "hat"}, nil))
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPost, "/productos", "", fiber.Map{"nombre": "Neg", "tipo": "hat", "precio": -5}, nil))
	})

	url := fmt.Sprintf("/productos/%d", shirt.ID)

	t.Run("GetByID", func(t *testing.T) {
		var product models.Product
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, url, "", nil, &product))
		assert.Equal(t, "Blue Shirt", product.Name)
		assert.Equal(t, "19.99", product.Price.StringFixed(2))

		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, "/productos/9999", "", nil, nil))
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodGet, "/productos/abc", "", nil, nil))
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		var body map[string]string
		require.Equal(t, http.StatusOK, env.request(t, http.MethodPut, url, "", fiber.Map{"color": "navy"}, &body))
		assert.Equal(t, "Product updated successfully", body["message"])

		var product models.Product
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, url, "", nil, &product))
		require.NotNil(t, product.Color)
		assert.Equal(t, "navy", *product.Color)
		assert.Equal(t, "Blue Shirt", product.Name)

		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodPut, "/productos/9999", "", fiber.Map{"color": "red"}, nil))
	})

	t.Run("Delete", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, url, "", nil, nil))
		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, url, "", nil, nil))
		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodDelete, url, "", nil, nil))
	})
}

func TestCategoryEndpoints(t *testing.T) {
	env := setupApp(t)

	var category models.Category
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/categorias", "", fiber.Map{"nombre": "Jewelry"}, &category))
	assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPost, "/categorias", "", fiber.Map{}, nil))

	env.createProduct(t, fiber.Map{"nombre": "Ring", "tipo": "ring", "precio": 100, "categoria_id": category.ID})

	url := fmt.Sprintf("/categorias/%d", category.ID)

	var products []models.Product
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, url+"/productos", "", nil, &products))
	assert.Len(t, products, 1)
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, "/categorias/9999/productos", "", nil, nil))

	assert.Equal(t, http.StatusOK, env.request(t, http.MethodPut, url, "", fiber.Map{"descripcion": "Rings and necklaces"}, nil))

	var updated models.Category
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, url, "", nil, &updated))
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Rings and necklaces", *updated.Description)

	var all []models.Category
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/categorias", "", nil, &all))
	assert.Len(t, all, 1)

	assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, url, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, url, "", nil, nil))
}

func TestCartEndpoints(t *testing.T) {
	env := setupApp(t)
	_, token := env.registerAndLogin(t, "shopper@example.com")
	product := env.createProduct(t, fiber.Map{"nombre": "Mug", "tipo": "kitchen", "precio": "8.50"})

	t.Run("RequiresToken", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.request(t, http.MethodGet, "/carritos", "", nil, nil))
		assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, "/carritos", "garbage", nil, nil))
	})

	var first, second map[string]string
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"productId": product.ID, "cantidad": 2}, &first))
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"productId": product.ID, "cantidad": 3}, &second))
	assert.NotEmpty(t, first["carrito_id"])
	assert.Equal(t, first["carrito_id"], second["carrito_id"])

	var items []models.CartItem
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/carritos/carrito", token, nil, &items))
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "Mug", items[0].Name)

	t.Run("InvalidInput", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"productId": product.ID, "cantidad": 0}, nil))
		assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"cantidad": 1}, nil))
		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"productId": 9999, "cantidad": 1}, nil))
	})

	t.Run("SetQuantity", func(t *testing.T) {
		require.Equal(t, http.StatusOK, env.request(t, http.MethodPut, "/carritos/producto", token, fiber.Map{"productId": product.ID, "cantidad": 7}, nil))

		var items []models.CartItem
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/carritos", token, nil, &items))
		require.Len(t, items, 1)
		assert.Equal(t, 7, items[0].Quantity)
	})

	t.Run("RemoveAndClear", func(t *testing.T) {
		removeURL := fmt.Sprintf("/carritos/producto/%d", product.ID)
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, removeURL, token, nil, nil))
		assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodDelete, removeURL, token, nil, nil))

		require.Equal(t, http.StatusOK, env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"productId": product.ID, "cantidad": 1}, nil))
		assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, "/carritos", token, nil, nil))

		var items []models.CartItem
		require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/carritos", token, nil, &items))
		assert.Empty(t, items)
	})
}

func TestCartEndpoints_DeletedUserToken(t *testing.T) {
	env := setupApp(t)
	userID, token := env.registerAndLogin(t, "leaving@example.com")
	product := env.createProduct(t, fiber.Map{"nombre": "Mug", "tipo": "kitchen", "precio": "8.50"})

	require.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, fmt.Sprintf("/usuarios/%d", userID), token, nil, nil))

	status := env.request(t, http.MethodPost, "/carritos/producto", token, fiber.Map{"productId": product.ID, "cantidad": 1}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var carts int64
	require.NoError(t, env.db.Model(&models.Cart{}).Where("usuario_id = ?", userID).Count(&carts).Error)
	assert.Zero(t, carts)
}

func TestDemotedAdminLosesAccess(t *testing.T) {
	env := setupApp(t)
	admin := env.adminToken(t)
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/usuarios", admin, nil, nil))

	require.NoError(t, env.db.Model(&models.User{}).
		Where("email = ?", "admin@tienda.test").
		Update("rol", models.RoleUser).Error)

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, "/usuarios", admin, nil, nil))
}
