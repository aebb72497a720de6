// Package controllers holds the HTTP handlers. Each controller depends on a
// narrow store interface so tests can substitute in-memory fakes.
package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/brewhaus/pkg/auth"
	"github.com/shashiranjanraj/brewhaus/pkg/bind"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
	"github.com/shashiranjanraj/brewhaus/pkg/validate"
)

type AuthController struct {
	tokens *auth.TokenService
}

func NewAuthController(tokens *auth.TokenService) *AuthController {
	return &AuthController{tokens: tokens}
}

type tokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// IssueToken signs a session token for the posted identity claim. The claim
// is not checked against the user store here; the guard does that on every
// protected call.
func (c *AuthController) IssueToken(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	token, err := c.tokens.Issue(body.Email)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid identity claim")
		return
	}

	response.Success(w, map[string]string{"token": token})
}
