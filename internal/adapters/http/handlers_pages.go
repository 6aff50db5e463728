package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tutorcenter/internal/adapters/storage/profile"
	"tutorcenter/internal/application/listutil"
	"tutorcenter/internal/application/projections"
	"tutorcenter/internal/domain/account"
	domainProfile "tutorcenter/internal/domain/profile"
	domainSchedule "tutorcenter/internal/domain/schedule"
)

// maxStaffOptions bounds the staff picker on the schedules page.
const maxStaffOptions = 500

func (s *Server) dashboardDeps() projections.GetDashboardDeps {
	return projections.GetDashboardDeps{ProfileStore: s.deps.Profiles, ScheduleStore: s.deps.Schedules}
}

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUserDashboard handles GET /user/dashboard.
func (s *Server) handleUserDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	res, err := projections.QueryGetUserDashboard(r.Context(), sess.AccountID, s.dashboardDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "user_dashboard.html", pageData{Title: "Your dashboard", Data: res})
}

// handleAdminDashboard handles GET /admin.
func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetDashboard(r.Context(), s.dashboardDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "admin_dashboard.html", pageData{Title: "Back office", Data: res})
}

// profileListPages maps each list path to the role it shows.
var profileListPages = map[string]struct{ role, title string }{
	"/admin/customers": {account.RoleCustomer, "Customers"},
	"/admin/tutors":    {account.RoleTutor, "Tutors"},
	"/admin/staff":     {account.RoleStaff, "Staff"},
}

type profileListView struct {
	projections.GetProfileListResult
	Role         string
	Path         string
	UpdateAction string
	Editable     bool
	Roles        []string
}

// handleProfileList handles GET /admin/customers, /admin/tutors and /admin/staff.
func (s *Server) handleProfileList(w http.ResponseWriter, r *http.Request) {
	page, ok := profileListPages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := projections.QueryGetProfileList(r.Context(), projections.GetProfileListQuery{
		Role:   page.role,
		Params: listutil.Parse(r.URL.Query(), projections.ProfileSortColumns),
	}, projections.GetProfileListDeps{ProfileStore: s.deps.Profiles})
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "profile_list.html", pageData{
		Title: page.title,
		Data: profileListView{
			GetProfileListResult: res,
			Role:                 page.role,
			Path:                 r.URL.Path,
			UpdateAction:         "/admin/api" + strings.TrimPrefix(r.URL.Path, "/admin") + "/update",
			Editable:             s.actorFrom(r).Role == account.RoleAdmin,
			Roles:                account.ValidRoles,
		},
	})
}

// handleTutorProfile handles GET /admin/tutors/{id}.
func (s *Server) handleTutorProfile(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetTutorProfile(r.Context(), r.PathValue("id"), projections.GetTutorProfileDeps{ProfileStore: s.deps.Profiles})
	switch {
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, projections.ErrNotTutor):
		http.NotFound(w, r)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "tutor_profile.html", pageData{
		Title: res.Profile.FullName,
		Data: struct {
			projections.GetTutorProfileResult
			Editable     bool
			SubjectsText string
			RateText     string
		}{
			GetTutorProfileResult: res,
			Editable:              s.actorFrom(r).Role == account.RoleAdmin,
			SubjectsText:          strings.Join(res.Details.Subjects, ", "),
			RateText:              strconv.Itoa(res.Details.HourlyRate),
		},
	})
}

type schedulesView struct {
	projections.GetStaffScheduleResult
	Staff        []domainProfile.Profile
	DayOptions   []string
	ShiftOptions []string
}

// handleSchedulesPage handles GET /admin/schedules.
func (s *Server) handleSchedulesPage(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetStaffSchedule(r.Context(), projections.GetStaffScheduleDeps{
		ProfileStore:  s.deps.Profiles,
		ScheduleStore: s.deps.Schedules,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	staff, err := s.deps.Profiles.List(r.Context(), profile.ListFilter{Role: account.RoleStaff, Limit: maxStaffOptions})
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "schedules.html", pageData{
		Title: "Staff schedule",
		Data: schedulesView{
			GetStaffScheduleResult: res,
			Staff:                  staff,
			DayOptions:             domainSchedule.ValidDays,
			ShiftOptions:           domainSchedule.ValidShifts,
		},
	})
}

// handlePerf handles GET /admin/perf?window=15m. Admin only.
func (s *Server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if err := s.authz.Authorize(r.Context(), s.actorFrom(r), account.RoleAdmin); err != nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}
	window := time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be a positive duration"})
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, s.deps.Collector.Snapshot(s.now().Add(-window), 10))
}
