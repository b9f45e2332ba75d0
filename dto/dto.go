// Package dto holds the wire shapes of the API and the mappings from
// database entities to them.
package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mygallery/errs"
	"mygallery/models"
)

// UnknownCategory is shown when a photo's category is not loaded.
const UnknownCategory = "Unknown Category"

type PhotoView struct {
	ID           uint   `json:"id"`
	ImageURL     string `json:"imageUrl"`
	CategoryID   uint   `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

type CategoryView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

// PhotoForm carries the non-file fields of photo create and update
// requests, from JSON, urlencoded or multipart bodies.
type PhotoForm struct {
	CategoryID uint   `json:"categoryId" form:"categoryId" validate:"required"`
	ImageURL   string `json:"imageUrl" form:"imageUrl" validate:"omitempty,url|startswith=/"`
}

type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type ContactRequest struct {
	Email   string `json:"email" form:"email" validate:"required,email"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
}

func ToPhotoView(p models.Photo) PhotoView {
	name := UnknownCategory
	if p.Category != nil && p.Category.Name != "" {
		name = p.Category.Name
	}
	return PhotoView{
		ID:           p.ID,
		ImageURL:     p.ImageURL,
		CategoryID:   p.CategoryID,
		CategoryName: name,
	}
}

func ToPhotoViews(photos []models.Photo) []PhotoView {
	views := make([]PhotoView, len(photos))
	for i, p := range photos {
		views[i] = ToPhotoView(p)
	}
	return views
}

func ToCategoryView(c models.Category) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name}
}

func ToCategoryViews(categories []models.Category) []CategoryView {
	views := make([]CategoryView, len(categories))
	for i, c := range categories {
		views[i] = ToCategoryView(c)
	}
	return views
}

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks req against its validate tags and reports the first
// failing field as a validation error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if ve, ok := err.(validator.ValidationErrors); ok {
		fieldErrs = ve
	}
	if len(fieldErrs) == 0 {
		return errs.Wrap(errs.KindValidation, err, "Invalid request")
	}
	fe := fieldErrs[0]
	return errs.E(errs.KindValidation, "%s %s", fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
