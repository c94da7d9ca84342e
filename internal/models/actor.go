package models

// ActorView is the per-request resolution of "who is acting": their role and
// optional linked student. Resolved once from token claims and passed down,
// instead of re-deriving the student/staff branching in every handler.
type ActorView struct {
	UserID    string
	Username  string
	Role      UserRole
	StudentID *string
}

// ActorFromClaims builds the actor view for a request.
func ActorFromClaims(claims *JWTClaims) ActorView {
	if claims == nil {
		return ActorView{}
	}
	return ActorView{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		StudentID: claims.StudentID,
	}
}

// IsStaff reports whether the actor may review, publish, and resolve.
func (a ActorView) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleSuperAdmin
}

// HasStudent reports whether the actor can act as a student (submit claims
// and appeals, export a transcript). Staff without a linked student cannot.
func (a ActorView) HasStudent() bool {
	return a.StudentID != nil && *a.StudentID != ""
}
