package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"stamps-catalog/models"
	"stamps-catalog/utils"
)

// SeriesWriter is the part of the series repository that creation uses.
type SeriesWriter interface {
	Add(ctx context.Context, series models.AddSeriesDbDto) (int, error)
	MarkAsModified(ctx context.Context, seriesID int, updatedAt time.Time, updatedBy int) error
}

// AddSeriesRequest is a series as submitted by a user or built from
// imported listing data.
type AddSeriesRequest struct {
	CategoryID    int              `json:"category" validate:"required,min=1"`
	CountryID     *int             `json:"country" validate:"omitempty,min=1"`
	Quantity      int              `json:"quantity" validate:"required,min=1,max_stamps"`
	Perforated    bool             `json:"perforated"`
	ReleaseDay    *int             `json:"day" validate:"omitempty,min=1,max=31"`
	ReleaseMonth  *int             `json:"month" validate:"required_with=ReleaseDay,omitempty,min=1,max=12"`
	ReleaseYear   *int             `json:"year" validate:"required_with=ReleaseMonth,omitempty,min=1840,max=2099"`
	MichelPrice   *decimal.Decimal `json:"michel_price" validate:"omitempty,min=0"`
	ScottPrice    *decimal.Decimal `json:"scott_price" validate:"omitempty,min=0"`
	YvertPrice    *decimal.Decimal `json:"yvert_price" validate:"omitempty,min=0"`
	GibbonsPrice  *decimal.Decimal `json:"gibbons_price" validate:"omitempty,min=0"`
	SolovyovPrice *decimal.Decimal `json:"solovyov_price" validate:"omitempty,min=0"`
	ZagorskiPrice *decimal.Decimal `json:"zagorski_price" validate:"omitempty,min=0"`
	Comment       *string          `json:"comment" validate:"omitempty,max=1024"`
}

// ValidationError lists the rejected fields of a request with a message
// for each.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, e.Errors[f])
	}
	return "validation failed: " + strings.Join(messages, ", ")
}

func newValidationError(errs validator.ValidationErrors, maxStamps int) *ValidationError {
	out := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "required_with":
			out[field] = fmt.Sprintf("%s is required when a more precise date is given", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			if field == "comment" {
				out[field] = fmt.Sprintf("%s must be at most %s characters long", field, err.Param())
			} else {
				out[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
			}
		case "max_stamps":
			out[field] = fmt.Sprintf("%s must be at most %d", field, maxStamps)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &ValidationError{Errors: out}
}

// SeriesService validates and stores new series.
type SeriesService struct {
	logger    *utils.Logger
	series    SeriesWriter
	validate  *validator.Validate
	maxStamps int
	now       func() time.Time
}

func NewSeriesService(logger *utils.Logger, series SeriesWriter, maxStampsInSeries int) *SeriesService {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// prices are compared as numbers
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("max_stamps", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(maxStampsInSeries)
	})

	return &SeriesService{
		logger:    logger,
		series:    series,
		validate:  validate,
		maxStamps: maxStampsInSeries,
		now:       time.Now,
	}
}

// Validate reports every rule the request breaks as a *ValidationError.
func (s *SeriesService) Validate(req AddSeriesRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return newValidationError(verrs, s.maxStamps)
	}
	return fmt.Errorf("series: validate: %w", err)
}

// Add validates req and creates the series on behalf of userID.
func (s *SeriesService) Add(ctx context.Context, req AddSeriesRequest, userID int) (int, error) {
	if err := s.Validate(req); err != nil {
		return 0, err
	}

	now := s.now()
	dto := models.AddSeriesDbDto{
		CategoryID:    req.CategoryID,
		CountryID:     req.CountryID,
		Quantity:      req.Quantity,
		Perforated:    req.Perforated,
		ReleaseDay:    req.ReleaseDay,
		ReleaseMonth:  req.ReleaseMonth,
		ReleaseYear:   req.ReleaseYear,
		MichelPrice:   req.MichelPrice,
		ScottPrice:    req.ScottPrice,
		YvertPrice:    req.YvertPrice,
		GibbonsPrice:  req.GibbonsPrice,
		SolovyovPrice: req.SolovyovPrice,
		ZagorskiPrice: req.ZagorskiPrice,
		Comment:       trimComment(req.Comment),
		CreatedAt:     now,
		CreatedBy:     userID,
		UpdatedAt:     now,
		UpdatedBy:     userID,
	}

	id, err := s.series.Add(ctx, dto)
	if err != nil {
		return 0, fmt.Errorf("series: add: %w", err)
	}

	s.logger.Info("[series] Series #%d has been created (%d stamps)", id, req.Quantity)
	return id, nil
}

// MarkAsModified records that userID has just changed the series.
func (s *SeriesService) MarkAsModified(ctx context.Context, seriesID, userID int) error {
	if err := s.series.MarkAsModified(ctx, seriesID, s.now(), userID); err != nil {
		return fmt.Errorf("series: mark #%d as modified: %w", seriesID, err)
	}
	s.logger.Debug("[series] Series #%d marked as modified by user #%d", seriesID, userID)
	return nil
}

// RequestFromExtracted prefills a creation request from imported data.
// The first matched category and country win; fields the extractor could
// not determine are left empty for the user to fill in.
func RequestFromExtracted(info models.ExtractedInfo) AddSeriesRequest {
	req := AddSeriesRequest{}

	if len(info.CategoryIDs) > 0 {
		req.CategoryID = info.CategoryIDs[0]
	}
	if len(info.CountryIDs) > 0 {
		id := info.CountryIDs[0]
		req.CountryID = &id
	}
	if year, ok := info.ReleaseYear.Get(); ok {
		req.ReleaseYear = &year
	}
	req.Quantity = info.Quantity.OrElse(0)
	req.Perforated = info.Perforated.OrElse(true)

	return req
}

func trimComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		return nil
	}
	return &c
}
