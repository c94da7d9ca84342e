package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/repository"
	"github.com/dedekind-labs/sua-api/pkg/config"
)

// lifecycleWorld is a single in-memory store backing every repository
// interface the lifecycle services consume, so one scenario can drive a
// claim from submission through roster appeal over consistent state.
type lifecycleWorld struct {
	seq        int
	activities map[string]*models.Activity
	students   map[string]string
	suas       map[string]*models.Sua
	apps       map[string]*models.Application
	offline    *models.Proof
	pubs       map[string]*models.Publicity
	appeals    map[string]*models.Appeal
	hours      map[string]float64
}

func newLifecycleWorld() *lifecycleWorld {
	return &lifecycleWorld{
		activities: make(map[string]*models.Activity),
		students:   make(map[string]string),
		suas:       make(map[string]*models.Sua),
		apps:       make(map[string]*models.Application),
		pubs:       make(map[string]*models.Publicity),
		appeals:    make(map[string]*models.Appeal),
		hours:      make(map[string]float64),
	}
}

func (w *lifecycleWorld) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

func (w *lifecycleWorld) recompute(studentID string) float64 {
	var total float64
	for _, s := range w.suas {
		if s.StudentID == studentID && s.IsValid {
			total += s.SuaHours
		}
	}
	w.hours[studentID] = total
	return total
}

func (w *lifecycleWorld) applicationDetail(app *models.Application) *models.ApplicationDetail {
	sua := w.suas[app.SuaID]
	return &models.ApplicationDetail{
		Application:   *app,
		StudentID:     sua.StudentID,
		StudentName:   w.students[sua.StudentID],
		ActivityID:    sua.ActivityID,
		ActivityTitle: w.activities[sua.ActivityID].Title,
		Team:          sua.Team,
		SuaHours:      sua.SuaHours,
	}
}

type worldClaims struct{ w *lifecycleWorld }

func (v worldClaims) CreateSubmission(ctx context.Context, sua *models.Sua, app *models.Application) error {
	sua.ID = v.w.nextID("sua")
	app.ID = v.w.nextID("app")
	app.SuaID = sua.ID
	v.w.suas[sua.ID] = sua
	v.w.apps[app.ID] = app
	return nil
}

func (v worldClaims) FindApplicationByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	app, ok := v.w.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v.w.applicationDetail(app), nil
}

func (v worldClaims) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	var out []models.ApplicationDetail
	for _, app := range v.w.apps {
		detail := v.w.applicationDetail(app)
		if filter.StudentID != "" && detail.StudentID != filter.StudentID {
			continue
		}
		if filter.Checked != nil && app.IsChecked != *filter.Checked {
			continue
		}
		out = append(out, *detail)
	}
	return out, len(out), nil
}

func (v worldClaims) Review(ctx context.Context, applicationID string, approve bool, feedback string, now time.Time) (*repository.ReviewOutcome, error) {
	app, ok := v.w.apps[applicationID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if app.IsChecked {
		return nil, repository.ErrAlreadyChecked
	}
	app.IsChecked = true
	app.Feedback = feedback
	sua := v.w.suas[app.SuaID]
	if approve {
		app.Status = models.StatusApproved
		sua.LastTimeSuaHours = v.w.hours[sua.StudentID]
		sua.IsValid = true
	} else {
		app.Status = models.StatusRejected
	}
	return &repository.ReviewOutcome{
		SuaID:      sua.ID,
		StudentID:  sua.StudentID,
		TotalHours: v.w.recompute(sua.StudentID),
	}, nil
}

type worldProofs struct{ w *lifecycleWorld }

func (v worldProofs) Create(ctx context.Context, proof *models.Proof) error {
	proof.ID = v.w.nextID("pr")
	return nil
}

func (v worldProofs) FindOrCreateOffline(ctx context.Context, now time.Time) (*models.Proof, error) {
	if v.w.offline == nil {
		v.w.offline = &models.Proof{ID: v.w.nextID("pr"), IsOffline: true, Date: now}
	}
	return v.w.offline, nil
}

type worldActivities struct{ w *lifecycleWorld }

func (v worldActivities) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	activity, ok := v.w.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return activity, nil
}

type worldSuas struct{ w *lifecycleWorld }

func (v worldSuas) FindByStudentActivity(ctx context.Context, studentID, activityID string) (*models.Sua, error) {
	for _, s := range v.w.suas {
		if s.StudentID == studentID && s.ActivityID == activityID {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (v worldSuas) ListByStudent(ctx context.Context, studentID string, validOnly bool) ([]models.SuaDetail, error) {
	var out []models.SuaDetail
	for _, s := range v.w.suas {
		if s.StudentID != studentID || (validOnly && !s.IsValid) {
			continue
		}
		out = append(out, models.SuaDetail{Sua: *s, ActivityTitle: v.w.activities[s.ActivityID].Title})
	}
	return out, nil
}

type worldPublicities struct{ w *lifecycleWorld }

func (v worldPublicities) Create(ctx context.Context, publicity *models.Publicity) error {
	publicity.ID = v.w.nextID("pub")
	v.w.pubs[publicity.ID] = publicity
	return nil
}

func (v worldPublicities) FindByID(ctx context.Context, id string) (*models.PublicityDetail, error) {
	publicity, ok := v.w.pubs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	activity := v.w.activities[publicity.ActivityID]
	return &models.PublicityDetail{Publicity: *publicity, ActivityTitle: activity.Title, ActivityGroup: activity.GroupName, ActivityDate: activity.Date}, nil
}

func (v worldPublicities) ListActive(ctx context.Context, now time.Time) ([]models.PublicityDetail, error) {
	var out []models.PublicityDetail
	for id, p := range v.w.pubs {
		if p.IsActive(now) {
			detail, _ := v.FindByID(ctx, id)
			out = append(out, *detail)
		}
	}
	return out, nil
}

func (v worldPublicities) List(ctx context.Context, page, size int) ([]models.PublicityDetail, int, error) {
	var out []models.PublicityDetail
	for id := range v.w.pubs {
		detail, _ := v.FindByID(ctx, id)
		out = append(out, *detail)
	}
	return out, len(out), nil
}

func (v worldPublicities) Update(ctx context.Context, publicity *models.Publicity) error {
	if _, ok := v.w.pubs[publicity.ID]; !ok {
		return sql.ErrNoRows
	}
	v.w.pubs[publicity.ID] = publicity
	return nil
}

type worldRoster struct{ w *lifecycleWorld }

func (v worldRoster) RosterRows(ctx context.Context, activityID string) ([]models.RosterRow, error) {
	var rows []models.RosterRow
	for _, s := range v.w.suas {
		if s.ActivityID == activityID && s.IsValid {
			rows = append(rows, models.RosterRow{Team: s.Team, SuaHours: s.SuaHours, StudentName: v.w.students[s.StudentID]})
		}
	}
	return rows, nil
}

type worldAppeals struct{ w *lifecycleWorld }

func (v worldAppeals) Create(ctx context.Context, appeal *models.Appeal) error {
	appeal.ID = v.w.nextID("ap")
	v.w.appeals[appeal.ID] = appeal
	return nil
}

func (v worldAppeals) FindByID(ctx context.Context, id string) (*models.AppealDetail, error) {
	appeal, ok := v.w.appeals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.AppealDetail{Appeal: *appeal, StudentName: v.w.students[appeal.StudentID]}, nil
}

func (v worldAppeals) ListByStudent(ctx context.Context, studentID string) ([]models.AppealDetail, error) {
	var out []models.AppealDetail
	for id, ap := range v.w.appeals {
		if ap.StudentID == studentID {
			detail, _ := v.FindByID(ctx, id)
			out = append(out, *detail)
		}
	}
	return out, nil
}

func (v worldAppeals) ListUnchecked(ctx context.Context) ([]models.AppealDetail, error) {
	var out []models.AppealDetail
	for id, ap := range v.w.appeals {
		if !ap.IsChecked {
			detail, _ := v.FindByID(ctx, id)
			out = append(out, *detail)
		}
	}
	return out, nil
}

func (v worldAppeals) Resolve(ctx context.Context, appealID string, approve bool, feedback string, now time.Time) (*repository.ResolveOutcome, error) {
	appeal, ok := v.w.appeals[appealID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if appeal.IsChecked {
		return nil, repository.ErrAlreadyChecked
	}
	appeal.IsChecked = true
	appeal.Feedback = feedback
	publicity := v.w.pubs[appeal.PublicityID]
	out := &repository.ResolveOutcome{StudentID: appeal.StudentID, ActivityID: publicity.ActivityID}
	if approve {
		appeal.Status = models.StatusApproved
		for _, s := range v.w.suas {
			if s.StudentID == appeal.StudentID && s.ActivityID == publicity.ActivityID {
				s.IsValid = true
				out.SuaValidated = true
			}
		}
	} else {
		appeal.Status = models.StatusRejected
	}
	out.TotalHours = v.w.recompute(appeal.StudentID)
	return out, nil
}

// TestClaimLifecycleEndToEnd walks a student's record through the whole
// pipeline: a rejected beach claim, an approved library claim, the roster
// publication, and a successful appeal that restores the rejected hours.
func TestClaimLifecycleEndToEnd(t *testing.T) {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	w := newLifecycleWorld()
	w.activities["act-beach"] = &models.Activity{ID: "act-beach", Title: "Beach Cleanup", GroupName: "Outdoor", Date: base, IsValid: true}
	w.activities["act-lib"] = &models.Activity{ID: "act-lib", Title: "Library Shift", GroupName: "Campus", Date: base, IsValid: true}
	w.students["st1"] = "Li Hua"

	claims := NewClaimService(worldClaims{w}, worldProofs{w}, worldActivities{w}, worldSuas{w}, nil, nil)
	claims.now = func() time.Time { return base }
	publicities := NewPublicityService(worldPublicities{w}, worldActivities{w}, worldRoster{w}, nil, config.PublicityConfig{}, nil, nil)
	publicities.now = func() time.Time { return base.Add(time.Hour) }
	appeals := NewAppealService(worldAppeals{w}, worldPublicities{w}, nil, nil)

	student := studentActor()
	staff := staffActor()
	ctx := context.Background()

	beach, err := claims.Submit(ctx, student, models.SubmitClaimRequest{
		ActivityID: "act-beach", Team: "Dune Crew", SuaHours: 4, Contact: "13800000000", Offline: true,
	})
	require.NoError(t, err)
	library, err := claims.Submit(ctx, student, models.SubmitClaimRequest{
		ActivityID: "act-lib", Team: "Front Desk", SuaHours: 2, Contact: "13800000000", ProofFilePath: "uploads/shift-log.pdf",
	})
	require.NoError(t, err)

	rejected, err := claims.Review(ctx, staff, beach.ID, reviewVerdict(false, "hours unverifiable"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	approved, err := claims.Review(ctx, staff, library.ID, reviewVerdict(true, "ok"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, 2.0, w.hours["st1"])

	opened, err := publicities.Open(ctx, staff, models.CreatePublicityRequest{
		ActivityID: "act-beach", Title: "Beach Cleanup Roster", IsPublished: true,
		Begin: base, End: base.Add(72 * time.Hour),
	})
	require.NoError(t, err)

	active, err := publicities.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	// Nothing on the beach roster yet: the only beach Sua was rejected.
	roster, err := publicities.Roster(ctx, student, opened.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	appeals.now = func() time.Time { return opened.End }
	appeal, err := appeals.Submit(ctx, student, models.SubmitAppealRequest{
		PublicityID: opened.ID, Content: "my beach hours are missing",
	})
	require.NoError(t, err)

	resolved, err := appeals.Resolve(ctx, staff, appeal.ID, reviewVerdict(true, "restored"))
	require.NoError(t, err)
	assert.True(t, resolved.IsChecked)
	assert.Equal(t, models.StatusApproved, resolved.Status)
	assert.Equal(t, 6.0, w.hours["st1"])

	_, err = appeals.Resolve(ctx, staff, appeal.ID, reviewVerdict(false, "second look"))
	require.Error(t, err)

	roster, err = publicities.Roster(ctx, staff, opened.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Dune Crew", roster[0].Team)
	require.Len(t, roster[0].Groups, 1)
	assert.Equal(t, 4.0, roster[0].Groups[0].Hours)
	assert.Equal(t, []string{"Li Hua"}, roster[0].Groups[0].Names)
}

func reviewVerdict(approve bool, feedback string) models.ReviewRequest {
	return models.ReviewRequest{Approve: &approve, Feedback: feedback}
}
