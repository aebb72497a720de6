package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/bind"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
	"github.com/shashiranjanraj/brewhaus/pkg/validate"
)

// UserStore is the user persistence surface the controller needs.
type UserStore interface {
	All(ctx context.Context) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user models.User) (string, error)
	Update(ctx context.Context, id, name, email string, role models.Role) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type UserController struct {
	users UserStore
}

func NewUserController(users UserStore) *UserController {
	return &UserController{users: users}
}

// List returns every user. Admin only.
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	users, err := c.users.All(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not list users")
		return
	}
	response.Success(w, users)
}

// IsAdmin is the public role probe the frontend uses to toggle admin UI.
func (c *UserController) IsAdmin(w http.ResponseWriter, r *http.Request) {
	user, err := c.users.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not look up user")
		return
	}
	admin := user != nil && user.Role.CanManageStore()
	response.Success(w, map[string]bool{"admin": admin})
}

// Show returns one user by email; absent users come back as null.
func (c *UserController) Show(w http.ResponseWriter, r *http.Request) {
	user, err := c.users.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not look up user")
		return
	}
	response.Success(w, user)
}

type userRequest struct {
	Name  string      `json:"name" validate:"required"`
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"nullable,in=admin,customer"`
}

// Create is the first-signup insert. New users default to customer.
func (c *UserController) Create(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	role := body.Role
	if role == "" {
		role = models.RoleCustomer
	}

	id, err := c.users.Insert(r.Context(), models.User{Name: body.Name, Email: body.Email, Role: role})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not create user")
		return
	}
	response.Created(w, map[string]string{"insertedId": id})
}

// Update rewrites a user's name, email, and role. Admin only.
func (c *UserController) Update(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	modified, err := c.users.Update(r.Context(), chi.URLParam(r, "id"), body.Name, body.Email, body.Role)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not update user")
		return
	}
	response.Success(w, map[string]int64{"modifiedCount": modified})
}

// Delete removes a user. Admin only.
func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := c.users.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not delete user")
		return
	}
	response.Success(w, map[string]int64{"deletedCount": deleted})
}
