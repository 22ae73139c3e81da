package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/auth"
	"github.com/nexustechhub/nexus-api/internal/middleware"
	"github.com/nexustechhub/nexus-api/internal/models"
)

// --- Customer Auth ---
//
// Credentials are checked by the configured auth.Provider; the customers
// table only mirrors the profile.

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	FullName string `json:"fullName" binding:"required,trimmedmin=2"`
	Email    string `json:"email" binding:"required,simpleemail"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"omitempty,uaephone"`
}

// SignInInput is the body of POST /api/auth/signin.
type SignInInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func session(id *auth.Identity, customer *models.Customer) gin.H {
	out := gin.H{"customer": customer}
	if id.AccessToken != "" {
		out["accessToken"] = id.AccessToken
		out["tokenType"] = "bearer"
		out["expiresIn"] = id.ExpiresIn
	}
	return out
}

// Register is the handler for POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. --- Bind & Validate JSON ---
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	var phone *string
	if p := strings.TrimSpace(input.Phone); p != "" {
		phone = &p
	}

	// 2. --- Create the Identity ---
	id, err := h.Auth.SignUp(ctx, auth.SignUpInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: strings.TrimSpace(input.FullName),
		Phone:    phone,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			badRequest(c, err.Error())
			return
		}
		h.internalError(c, "Failed to create account", err)
		return
	}

	// 3. --- Mirror the Profile ---
	customer := &models.Customer{
		ID:        id.ID,
		Email:     id.Email,
		FullName:  strings.TrimSpace(input.FullName),
		Phone:     phone,
		Role:      models.RoleCustomer,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Customers.SaveProfile(ctx, customer); err != nil {
		h.internalError(c, "Failed to save customer profile", err)
		return
	}

	message := "Account created successfully"
	if id.AccessToken == "" {
		message = "Account created. Please check your email to confirm your address."
	}
	respond(c, http.StatusCreated, message, session(id, customer))
}

// SignIn is the handler for POST /api/auth/signin
func (h *Handlers) SignIn(c *gin.Context) {
	ctx := c.Request.Context()

	var input SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 1. --- Check Credentials ---
	id, err := h.Auth.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
			return
		}
		h.internalError(c, "Failed to sign in", err)
		return
	}

	// 2. --- Record the Login ---
	now := time.Now().UTC()
	if err := h.Customers.TouchLogin(ctx, id.ID, now); err != nil {
		h.Log.Warn("update last login", zap.String("customer", id.ID), zap.Error(err))
	}
	customer, err := h.Customers.Get(ctx, id.ID)
	if err != nil {
		if !errors.Is(err, auth.ErrCustomerNotFound) {
			h.internalError(c, "Failed to load customer profile", err)
			return
		}
		// Signed up before profiles were mirrored.
		customer = &models.Customer{ID: id.ID, Email: id.Email, Role: models.RoleCustomer, CreatedAt: now, LastLogin: &now}
		if err := h.Customers.SaveProfile(ctx, customer); err != nil {
			h.Log.Warn("mirror customer profile", zap.String("customer", id.ID), zap.Error(err))
		}
	}

	respond(c, http.StatusOK, "Signed in successfully", session(id, customer))
}

// Me is the handler for GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	customer, err := h.Customers.Get(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		if errors.Is(err, auth.ErrCustomerNotFound) {
			notFound(c, "Customer profile not found")
			return
		}
		h.internalError(c, "Failed to load customer profile", err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved", customer)
}
