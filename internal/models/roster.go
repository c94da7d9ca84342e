package models

import "sort"

// RosterRow is one roster line as read from the store.
type RosterRow struct {
	Team        string  `db:"team" json:"team"`
	SuaHours    float64 `db:"sua_hours" json:"sua_hours"`
	StudentName string  `db:"student_name" json:"student_name"`
}

// RosterHourGroup lists the students credited with the same hour value.
type RosterHourGroup struct {
	Hours float64  `json:"hours"`
	Names []string `json:"names"`
}

// RosterTeam groups a team's entries by hour value.
type RosterTeam struct {
	Team   string            `json:"team"`
	Groups []RosterHourGroup `json:"groups"`
}

// BuildRoster turns roster rows into the ordered team -> hours -> names view
// shown on publicity pages. Ordering is ascending by team, then hours, then
// student name, so rosters stay stable and human-scannable. The grouping is
// derived on every call, never stored.
func BuildRoster(rows []RosterRow) []RosterTeam {
	sorted := make([]RosterRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Team != sorted[j].Team {
			return sorted[i].Team < sorted[j].Team
		}
		if sorted[i].SuaHours != sorted[j].SuaHours {
			return sorted[i].SuaHours < sorted[j].SuaHours
		}
		return sorted[i].StudentName < sorted[j].StudentName
	})

	teams := make([]RosterTeam, 0)
	for _, row := range sorted {
		if len(teams) == 0 || teams[len(teams)-1].Team != row.Team {
			teams = append(teams, RosterTeam{Team: row.Team})
		}
		team := &teams[len(teams)-1]
		if len(team.Groups) == 0 || team.Groups[len(team.Groups)-1].Hours != row.SuaHours {
			team.Groups = append(team.Groups, RosterHourGroup{Hours: row.SuaHours})
		}
		group := &team.Groups[len(team.Groups)-1]
		group.Names = append(group.Names, row.StudentName)
	}
	return teams
}
