package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"foodconnect/pkg/types"
)

const photoField = "photo"

func newPickupPageData(form types.PickupForm) *types.PickupPageData {
	if form.FoodType == "" {
		form.FoodType = string(types.FoodTypeVeg)
	}

	return &types.PickupPageData{
		BasePageData: types.BasePageData{Title: "Pickup Details"},
		Form:         form,
		Categories:   types.FoodCategories,
		FoodTypes:    []types.FoodType{types.FoodTypeVeg, types.FoodTypeNonVeg},
	}
}

func (s *Service) handleGetPickup(w http.ResponseWriter, r *http.Request) {
	data := newPickupPageData(types.PickupForm{})

	if err := s.renderTemplate(w, r, "page.pickup", data); err != nil {
		s.logger.WithError(err).Error("failed to render pickup page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostPickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(s.config.MaxPhotoBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.WithError(err).Warn("failed to parse pickup form")
		s.redirectWithError(w, r, "/volunteer/pickup", "Failed to submit donation. Please try again.")
		return
	}

	var input types.PickupForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.redirectWithError(w, r, "/volunteer/pickup", "invalid form payload")
		return
	}

	data := newPickupPageData(input)

	photo, err := s.readPhoto(r)
	if err != nil {
		var verr *types.ValidationError
		if !errors.As(err, &verr) {
			s.logger.WithError(err).Error("failed to read donation photo")
			s.internalServerError(w)
			return
		}

		data.FieldErrors = verr.Fields
		data.Error = verr.Message()
		if err := s.renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "page.pickup", data); err != nil {
			s.logger.WithError(err).Error("failed to render pickup page with errors")
		}
		return
	}

	_, err = s.donations.Submit(ctx, s.currentUser(ctx), input, photo)
	if err != nil {
		var verr *types.ValidationError
		if !errors.As(err, &verr) {
			s.logger.WithError(err).Error("failed to submit donation")
			data.Error = "Failed to submit donation. Please try again."
			if err := s.renderTemplateStatus(w, r, http.StatusInternalServerError, "page.pickup", data); err != nil {
				s.logger.WithError(err).Error("failed to render pickup page with errors")
			}
			return
		}

		data.FieldErrors = verr.Fields
		data.Error = "Please fill in all required fields"
		if err := s.renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "page.pickup", data); err != nil {
			s.logger.WithError(err).Error("failed to render pickup page with errors")
		}
		return
	}

	s.redirectWithNotice(w, r, "/volunteer/pickup", "Your food donation has been submitted successfully")
}

// readPhoto returns the uploaded photo, or nil when none was attached.
func (s *Service) readPhoto(r *http.Request) (*types.Photo, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	if header.Size > s.config.MaxPhotoBytes {
		return nil, types.NewValidationError(photoField, fmt.Sprintf("Photo must be at most %d MB.", s.config.MaxPhotoBytes>>20))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.MaxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.config.MaxPhotoBytes {
		return nil, types.NewValidationError(photoField, fmt.Sprintf("Photo must be at most %d MB.", s.config.MaxPhotoBytes>>20))
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &types.Photo{Data: data, ContentType: header.Header.Get("Content-Type")}, nil
}
