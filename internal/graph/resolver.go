// Package graph serves the GraphQL API.
package graph

import (
	"context"
	"errors"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/middleware"
	"github.com/jacklvd/NEU-scheduler/internal/repository/challenge"
	"github.com/jacklvd/NEU-scheduler/internal/services"
	"github.com/jacklvd/NEU-scheduler/internal/services/catalog"
	"github.com/jacklvd/NEU-scheduler/internal/services/plan"
	"github.com/jacklvd/NEU-scheduler/internal/services/user_services"
)

var (
	errCatalogUnavailable = errors.New("course catalog is temporarily unavailable")
	errPlanUnavailable    = errors.New("unable to suggest a plan right now")
	errStatsUnavailable   = errors.New("statistics are temporarily unavailable")
	errSignInRequired     = errors.New("sign in required")
)

type OTPIssuer interface {
	RequestOTP(ctx context.Context, email, purpose string) *user_services.OTPRequestResult
	Stats(ctx context.Context) (challenge.Stats, error)
}

type OTPVerifier interface {
	VerifyOTP(ctx context.Context, in user_services.VerifyOTPInput) *user_services.AuthResult
}

type Sessions interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	Refresh(ctx context.Context, token string) *user_services.AuthResult
}

type Catalog interface {
	GetTerms(ctx context.Context, maxResults int) ([]domain.Term, error)
	GetSubjects(ctx context.Context, term, searchTerm string) ([]domain.Subject, error)
	SearchCourses(ctx context.Context, q catalog.SearchQuery) ([]domain.Class, error)
	Status(ctx context.Context) string
	CourseInfo(ctx context.Context, courseCode, term string) (*domain.CourseInfo, error)
	RefreshCourseData(ctx context.Context, subjects []string) (*domain.CourseRefresh, error)
	ResetCache(ctx context.Context) (int, error)
	DataStatus(ctx context.Context) domain.CourseDataStatus
}

type Planner interface {
	SuggestPlan(ctx context.Context, interest string, years int) ([]domain.SemesterPlan, error)
	Recommend(ctx context.Context, completed, interestAreas []string, maxResults int) ([]domain.CourseCandidate, error)
}

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Resolver is the root of the schema.
type Resolver struct {
	OTP          OTPIssuer
	Verifier     OTPVerifier
	Sessions     Sessions
	Catalog      Catalog
	Planner      Planner
	StoreBackend string
	Logger       Logger
}

func (r *Resolver) HealthCheck() string {
	return "GraphQL API is healthy!"
}

func (r *Resolver) APIStatus(ctx context.Context) string {
	return r.Catalog.Status(ctx)
}

func (r *Resolver) CacheStats(ctx context.Context) (*cacheStatsResponse, error) {
	stats, err := r.OTP.Stats(ctx)
	if err != nil {
		r.Logger.Error("reading otp stats failed", "error", err)
		return nil, errStatsUnavailable
	}
	return &cacheStatsResponse{
		Backend:     r.StoreBackend,
		TotalOtps:   int32(stats.Total),
		ActiveOtps:  int32(stats.Active),
		ExpiredOtps: int32(stats.Expired),
	}, nil
}

func (r *Resolver) GetCurrentUser(ctx context.Context, args struct{ Token string }) (*userResponse, error) {
	return r.lookupUser(ctx, args.Token)
}

func (r *Resolver) Me(ctx context.Context) (*userResponse, error) {
	return r.lookupUser(ctx, middleware.TokenFromContext(ctx))
}

// lookupUser yields null for any unauthenticated token.
func (r *Resolver) lookupUser(ctx context.Context, token string) (*userResponse, error) {
	u, err := r.Sessions.CurrentUser(ctx, token)
	if errors.Is(err, user_services.ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		r.Logger.Error("loading current user failed", "error", err)
		return nil, errors.New(user_services.MsgServiceUnavailable)
	}
	return toUser(u), nil
}

func (r *Resolver) GetTerms(ctx context.Context, args struct{ MaxResults int32 }) ([]*termResponse, error) {
	terms, err := r.Catalog.GetTerms(ctx, int(args.MaxResults))
	if err != nil {
		return nil, catalogError(err)
	}
	out := make([]*termResponse, 0, len(terms))
	for _, t := range terms {
		out = append(out, &termResponse{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (r *Resolver) GetSubjects(ctx context.Context, args struct {
	Term       string
	SearchTerm string
}) ([]*subjectResponse, error) {
	subjects, err := r.Catalog.GetSubjects(ctx, args.Term, args.SearchTerm)
	if err != nil {
		return nil, catalogError(err)
	}
	out := make([]*subjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, &subjectResponse{Code: s.Code, Name: s.Name})
	}
	return out, nil
}

func (r *Resolver) SearchCourses(ctx context.Context, args struct {
	Term         string
	Subject      *string
	CourseNumber *string
	PageSize     int32
}) ([]*classResponse, error) {
	q := catalog.SearchQuery{Term: args.Term, PageSize: int(args.PageSize)}
	if args.Subject != nil {
		q.Subject = *args.Subject
	}
	if args.CourseNumber != nil {
		q.CourseNumber = *args.CourseNumber
	}
	classes, err := r.Catalog.SearchCourses(ctx, q)
	if err != nil {
		return nil, catalogError(err)
	}
	out := make([]*classResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, toClass(c))
	}
	return out, nil
}

func (r *Resolver) SuggestPlan(ctx context.Context, args struct {
	Interest string
	Years    int32
}) ([]*semesterPlanResponse, error) {
	semesters, err := r.Planner.SuggestPlan(ctx, args.Interest, int(args.Years))
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrInterestRequired), errors.Is(err, plan.ErrInterestTooLong), errors.Is(err, plan.ErrYearsOutOfRange):
			return nil, err
		}
		r.Logger.Error("plan suggestion failed", "error", err)
		return nil, errPlanUnavailable
	}
	out := make([]*semesterPlanResponse, 0, len(semesters))
	for _, s := range semesters {
		out = append(out, toSemester(s))
	}
	return out, nil
}

func (r *Resolver) GetCourseInfo(ctx context.Context, args struct {
	CourseCode string
	TermCode   *string
}) (*courseInfoResponse, error) {
	term := ""
	if args.TermCode != nil {
		term = *args.TermCode
	}
	info, err := r.Catalog.CourseInfo(ctx, args.CourseCode, term)
	if err != nil {
		return nil, catalogError(err)
	}
	return toCourseInfo(info), nil
}

func (r *Resolver) GetCourseRecommendations(ctx context.Context, args struct {
	CompletedCourses *[]string
	InterestAreas    []string
	MaxResults       int32
}) ([]*courseResponse, error) {
	var completed []string
	if args.CompletedCourses != nil {
		completed = *args.CompletedCourses
	}
	courses, err := r.Planner.Recommend(ctx, completed, args.InterestAreas, int(args.MaxResults))
	if err != nil {
		if errors.Is(err, plan.ErrNoInterestAreas) || errors.Is(err, plan.ErrInterestTooLong) {
			return nil, err
		}
		r.Logger.Error("course recommendation failed", "error", err)
		return nil, errPlanUnavailable
	}
	out := make([]*courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourse(c))
	}
	return out, nil
}

func (r *Resolver) GetCurrentCourseDataStatus(ctx context.Context) *courseDataStatusResponse {
	return toCourseDataStatus(r.Catalog.DataStatus(ctx))
}

func (r *Resolver) RefreshCourseData(ctx context.Context, args struct{ Subjects *[]string }) (*courseRefreshResponse, error) {
	if err := r.requireUser(ctx); err != nil {
		return nil, err
	}
	var subjects []string
	if args.Subjects != nil {
		subjects = *args.Subjects
	}
	res, err := r.Catalog.RefreshCourseData(ctx, subjects)
	if err != nil {
		return nil, catalogError(err)
	}
	return toCourseRefresh(res), nil
}

func (r *Resolver) ResetCourseCache(ctx context.Context) (bool, error) {
	if err := r.requireUser(ctx); err != nil {
		return false, err
	}
	if _, err := r.Catalog.ResetCache(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// requireUser admits only callers with a valid bearer session.
func (r *Resolver) requireUser(ctx context.Context) error {
	u, err := r.lookupUser(ctx, middleware.TokenFromContext(ctx))
	if err != nil {
		return err
	}
	if u == nil {
		return errSignInRequired
	}
	return nil
}

func (r *Resolver) RequestOtp(ctx context.Context, args struct {
	Email   string
	Purpose string
}) *otpResponse {
	res := r.OTP.RequestOTP(ctx, args.Email, args.Purpose)
	return &otpResponse{Success: res.Success, Message: res.Message}
}

func (r *Resolver) VerifyOtp(ctx context.Context, args struct{ Input verifyOtpInput }) *authResponse {
	res := r.Verifier.VerifyOTP(ctx, user_services.VerifyOTPInput{
		Email:        args.Input.Email,
		Code:         args.Input.Code,
		Purpose:      args.Input.Purpose,
		RegisterData: toRegisterData(args.Input.RegisterData),
	})
	return toAuthResponse(res)
}

func (r *Resolver) RefreshSession(ctx context.Context, args struct{ Token *string }) *authResponse {
	token := middleware.TokenFromContext(ctx)
	if args.Token != nil && *args.Token != "" {
		token = *args.Token
	}
	return toAuthResponse(r.Sessions.Refresh(ctx, token))
}

// catalogError keeps request validation messages and hides upstream failures.
func catalogError(err error) error {
	if errors.Is(err, services.ErrCatalogUnavailable) {
		return errCatalogUnavailable
	}
	var catErr *catalog.CatalogError
	if errors.As(err, &catErr) {
		return errCatalogUnavailable
	}
	return err
}
