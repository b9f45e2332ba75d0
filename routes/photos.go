package routes

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"mygallery/dto"
	"mygallery/errs"
	"mygallery/services"
	"mygallery/storage"
)

// uploadFields are tried in order; the admin page posts imageFile.
var uploadFields = []string{"imageFile", "image"}

// GET /api/photos?categoryId=
func (h *handler) listPhotos(c *fiber.Ctx) error {
	var categoryID *uint
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return badRequest(c, "Invalid categoryId")
		}
		v := uint(id)
		categoryID = &v
	}

	photos, err := h.gallery.ListPhotos(c.UserContext(), categoryID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(photos)
}

// GET /api/photos/:id
func (h *handler) getPhoto(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid photo ID")
	}
	photo, err := h.gallery.GetPhoto(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(photo)
}

// POST /api/photos
func (h *handler) createPhoto(c *fiber.Ctx) error {
	form, err := parsePhotoForm(c)
	if err != nil {
		return h.respondError(c, err)
	}

	file, closeFile, err := uploadedFile(c)
	if err != nil {
		return badRequest(c, "Failed to read uploaded file")
	}
	defer closeFile()

	photo, err := h.gallery.CreatePhoto(c.UserContext(), services.CreatePhotoInput{
		File:       file,
		ImageURL:   form.ImageURL,
		CategoryID: form.CategoryID,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	c.Location(fmt.Sprintf("/api/photos/%d", photo.ID))
	return c.Status(fiber.StatusCreated).JSON(photo)
}

// PUT /api/photos/:id
func (h *handler) updatePhoto(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid photo ID")
	}
	// A missing photo answers 404 before the form is judged.
	if _, err := h.gallery.GetPhoto(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	form, err := parsePhotoForm(c)
	if err != nil {
		return h.respondError(c, err)
	}

	file, closeFile, err := uploadedFile(c)
	if err != nil {
		return badRequest(c, "Failed to read uploaded file")
	}
	defer closeFile()

	photo, err := h.gallery.UpdatePhoto(c.UserContext(), id, services.UpdatePhotoInput{
		CategoryID: form.CategoryID,
		File:       file,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(photo)
}

// DELETE /api/photos/:id
func (h *handler) deletePhoto(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid photo ID")
	}
	photo, err := h.gallery.DeletePhoto(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(photo)
}

func parsePhotoForm(c *fiber.Ctx) (*dto.PhotoForm, error) {
	form := new(dto.PhotoForm)
	if err := c.BodyParser(form); err != nil {
		return nil, errs.Wrap(errs.KindValidation, err, "Failed to parse request body")
	}
	if err := dto.Validate(form); err != nil {
		return nil, err
	}
	return form, nil
}

// uploadedFile opens the first non-empty upload field. A request without
// one yields a nil file.
func uploadedFile(c *fiber.Ctx) (*storage.File, func(), error) {
	noop := func() {}
	for _, field := range uploadFields {
		fh, err := c.FormFile(field)
		if err != nil || fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, noop, err
		}
		return &storage.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}, func() { closeQuietly(f) }, nil
	}
	return nil, noop, nil
}

func closeQuietly(c io.Closer) { _ = c.Close() }
