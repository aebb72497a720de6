package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/bind"
	"github.com/shashiranjanraj/brewhaus/pkg/cache"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
	"github.com/shashiranjanraj/brewhaus/pkg/storage"
	"github.com/shashiranjanraj/brewhaus/pkg/validate"
)

const catalogCacheKey = "catalog:all"

// CoffeeStore is the catalog persistence surface the controller needs.
type CoffeeStore interface {
	All(ctx context.Context) ([]models.Coffee, error)
	Find(ctx context.Context, id string) (*models.Coffee, error)
	Insert(ctx context.Context, item models.Coffee) (string, error)
	Update(ctx context.Context, id string, item models.Coffee) (int64, error)
	SetImage(ctx context.Context, id, url string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type CoffeeController struct {
	coffee   CoffeeStore
	cache    *cache.Cache
	cacheTTL time.Duration
	disk     storage.Disk
}

func NewCoffeeController(coffee CoffeeStore, c *cache.Cache, ttl time.Duration, disk storage.Disk) *CoffeeController {
	return &CoffeeController{coffee: coffee, cache: c, cacheTTL: ttl, disk: disk}
}

// List is the public catalog browse, served from redis when warm.
func (c *CoffeeController) List(w http.ResponseWriter, r *http.Request) {
	var items []models.Coffee
	if c.cache.Get(r.Context(), catalogCacheKey, &items) {
		response.Success(w, items)
		return
	}

	items, err := c.coffee.All(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not list catalog")
		return
	}

	_ = c.cache.Set(r.Context(), catalogCacheKey, items, c.cacheTTL)
	response.Success(w, items)
}

func (c *CoffeeController) Show(w http.ResponseWriter, r *http.Request) {
	item, err := c.coffee.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not look up catalog item")
		return
	}
	response.Success(w, item)
}

type coffeeRequest struct {
	Name     string  `json:"name" validate:"required"`
	Chef     string  `json:"chef"`
	Supplier string  `json:"supplier"`
	Taste    string  `json:"taste"`
	Category string  `json:"category"`
	Price    float64 `json:"price" validate:"required,gte=0"`
	Image    string  `json:"image"`
}

func (b coffeeRequest) model() models.Coffee {
	return models.Coffee{
		Name:     b.Name,
		Chef:     b.Chef,
		Supplier: b.Supplier,
		Taste:    b.Taste,
		Category: b.Category,
		Price:    b.Price,
		Image:    b.Image,
	}
}

// Create adds a catalog item. Admin only.
func (c *CoffeeController) Create(w http.ResponseWriter, r *http.Request) {
	var body coffeeRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	id, err := c.coffee.Insert(r.Context(), body.model())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not create catalog item")
		return
	}

	c.cache.Forget(r.Context(), catalogCacheKey)
	response.Created(w, map[string]string{"insertedId": id})
}

// Update rewrites every field of a catalog item. Admin only.
func (c *CoffeeController) Update(w http.ResponseWriter, r *http.Request) {
	var body coffeeRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	modified, err := c.coffee.Update(r.Context(), chi.URLParam(r, "id"), body.model())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not update catalog item")
		return
	}

	c.cache.Forget(r.Context(), catalogCacheKey)
	response.Success(w, map[string]int64{"modifiedCount": modified})
}

// Delete removes a catalog item. Admin only.
func (c *CoffeeController) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := c.coffee.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not delete catalog item")
		return
	}

	c.cache.Forget(r.Context(), catalogCacheKey)
	response.Success(w, map[string]int64{"deletedCount": deleted})
}

// UploadImage stores a catalog image on the configured disk and points the
// item at its public URL. Admin only.
func (c *CoffeeController) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		response.Error(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "could not read image")
		return
	}

	path := fmt.Sprintf("coffee/%s%s", id, ext)
	if err := c.disk.Put(path, data); err != nil {
		response.Error(w, http.StatusInternalServerError, "could not store image")
		return
	}

	url := c.disk.URL(path)
	if _, err := c.coffee.SetImage(r.Context(), id, url); err != nil {
		response.Error(w, http.StatusInternalServerError, "could not update catalog item")
		return
	}

	c.cache.Forget(r.Context(), catalogCacheKey)
	response.Success(w, map[string]string{"image": url})
}
