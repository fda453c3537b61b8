package query

import (
	"context"
	"errors"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/funnel"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/circuitbreaker"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET FUNNEL QUERY
// Cohort funnel analytics: inquiry -> test -> enrollment counts and
// conversion rates per (first-contact month, lead source).
// ══════════════════════════════════════════════════════════════════════════════

// GetFunnelQuery contains the funnel request parameters.
type GetFunnelQuery struct {
	// TrailingMonths limits output to the last N cohort months
	// (0 = all cohorts). Presentation only; counts come from all data.
	TrailingMonths int
}

// Validate checks the query parameters.
func (q *GetFunnelQuery) Validate() error {
	if q.TrailingMonths < 0 {
		return errors.New("get_funnel: trailing_months cannot be negative")
	}
	if q.TrailingMonths > 60 {
		return errors.New("get_funnel: trailing_months cannot exceed 60")
	}
	return nil
}

// ConversionDTO renders a conversion rate; Percent is null for "no
// data", which is distinct from 0.
type ConversionDTO struct {
	Percent *int `json:"percent"`
}

func conversionDTO(c funnel.Conversion) ConversionDTO {
	if !c.Valid {
		return ConversionDTO{}
	}
	p := c.Percent
	return ConversionDTO{Percent: &p}
}

// CohortRecordDTO is the wire shape of one cohort's funnel record.
type CohortRecordDTO struct {
	Month                string        `json:"month"`
	LeadSource           string        `json:"lead_source"`
	Inquiries            int           `json:"inquiries"`
	TestsScheduled       int           `json:"tests_scheduled"`
	Enrollments          int           `json:"enrollments"`
	TestConversion       ConversionDTO `json:"test_conversion"`
	EnrollmentConversion ConversionDTO `json:"enrollment_conversion"`
}

// GetFunnelResult is the funnel response.
type GetFunnelResult struct {
	Cohorts     []CohortRecordDTO `json:"cohorts"`
	Totals      CohortRecordDTO   `json:"totals"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// FunnelCache caches computed funnel results.
type FunnelCache interface {
	Get(ctx context.Context, trailingMonths int) (*GetFunnelResult, bool)
	Set(ctx context.Context, trailingMonths int, result *GetFunnelResult)
}

// GetFunnelHandler handles funnel queries.
type GetFunnelHandler struct {
	studentRepo student.Repository
	cache       FunnelCache
	breaker     *circuitbreaker.CircuitBreaker
	log         *logger.Logger
	now         func() time.Time
}

// NewGetFunnelHandler creates a funnel query handler. cache and breaker
// may be nil.
func NewGetFunnelHandler(
	studentRepo student.Repository,
	cache FunnelCache,
	breaker *circuitbreaker.CircuitBreaker,
	log *logger.Logger,
) *GetFunnelHandler {
	return &GetFunnelHandler{
		studentRepo: studentRepo,
		cache:       cache,
		breaker:     breaker,
		log:         log.With(logger.Component("get_funnel")),
		now:         time.Now,
	}
}

// Handle executes the query.
func (h *GetFunnelHandler) Handle(ctx context.Context, q GetFunnelQuery) (*GetFunnelResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, q.TrailingMonths); ok {
			return cached, nil
		}
	}

	// All statuses: the funnel tracks every inquiry, including students
	// who never progressed past first contact.
	var students []*student.Student
	err := h.execute(ctx, func(ctx context.Context) error {
		var e error
		students, e = h.studentRepo.List(ctx, student.Filter{})
		return e
	})
	if err != nil {
		return nil, err
	}

	filter := funnel.PeriodFilter{
		TrailingMonths: q.TrailingMonths,
		Reference:      timeutil.YearMonthOf(h.now()),
	}
	records := funnel.Aggregate(students, filter)

	result := &GetFunnelResult{
		Cohorts:     make([]CohortRecordDTO, 0, len(records)),
		Totals:      cohortRecordDTO(funnel.Totals(records)),
		GeneratedAt: h.now().UTC(),
	}
	for _, r := range records {
		result.Cohorts = append(result.Cohorts, cohortRecordDTO(r))
	}

	if h.cache != nil {
		h.cache.Set(ctx, q.TrailingMonths, result)
	}
	return result, nil
}

func (h *GetFunnelHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	err := h.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("funnel", "GetFunnel", shared.ErrStorageUnavailable,
			"storage temporarily unavailable", err)
	}
	return err
}

func cohortRecordDTO(r funnel.Record) CohortRecordDTO {
	dto := CohortRecordDTO{
		Inquiries:            r.Inquiries,
		TestsScheduled:       r.TestsScheduled,
		Enrollments:          r.Enrollments,
		TestConversion:       conversionDTO(r.TestConversion),
		EnrollmentConversion: conversionDTO(r.EnrollmentConversion),
	}
	if r.Key.Month.IsValid() {
		dto.Month = r.Key.Month.String()
		dto.LeadSource = r.Key.Source.String()
	}
	return dto
}
