package web

import (
	"net/http"

	"tutorcenter/internal/application/orchestrators"
)

// handleUpdateCustomer handles POST /admin/api/customers/update.
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.UpdateCustomerInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteUpdateCustomer(r.Context(), s.actorFrom(r), input, s.updateProfileDeps()))
}

// handleUpdateTutor handles POST /admin/api/tutors/update.
func (s *Server) handleUpdateTutor(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.UpdateTutorInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteUpdateTutor(r.Context(), s.actorFrom(r), input, s.updateProfileDeps()))
}

// handleUpdateStaff handles POST /admin/api/staff/update.
func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.UpdateStaffInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteUpdateStaff(r.Context(), s.actorFrom(r), input, s.updateProfileDeps()))
}

// handleChangeRole handles POST /admin/api/roles.
func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.ChangeRoleInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteChangeRole(r.Context(), s.actorFrom(r), input, orchestrators.ChangeRoleDeps{
		Authorizer:   s.authz,
		ProfileStore: s.deps.Profiles,
		Sessions:     s.deps.Sessions.Store,
		Now:          s.now,
	}))
}

// handleCreateAccount handles POST /admin/api/accounts.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CreateAccountInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteCreateAccount(r.Context(), s.actorFrom(r), input, s.createAccountDeps()))
}

// handleAssignSchedule handles POST /admin/api/schedules.
func (s *Server) handleAssignSchedule(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.AssignScheduleInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteAssignSchedule(r.Context(), s.actorFrom(r), input, s.scheduleDeps()))
}

// handleCancelSchedule handles POST /admin/api/schedules/cancel.
func (s *Server) handleCancelSchedule(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CancelScheduleInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteCancelSchedule(r.Context(), s.actorFrom(r), input, s.scheduleDeps()))
}
