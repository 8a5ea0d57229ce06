// Package teammap holds the username-to-team catalog consumed by access
// reporting. The mapping is injected configuration loaded at startup, not
// compiled-in state, so deployments can swap it without a code change.
package teammap

import (
	"sort"
	"strings"
)

// Directory answers which team a username belongs to.
type Directory struct {
	memberTeam map[string]string
	teams      map[string][]string
}

// New builds a Directory from a team to members mapping. Usernames are
// normalized (trimmed, lowercased); a username listed under two teams keeps
// the first team in sorted team order.
func New(teams map[string][]string) *Directory {
	d := &Directory{
		memberTeam: make(map[string]string),
		teams:      make(map[string][]string, len(teams)),
	}

	names := make([]string, 0, len(teams))
	for team := range teams {
		names = append(names, team)
	}
	sort.Strings(names)

	for _, team := range names {
		for _, member := range teams[team] {
			username := normalize(member)
			if username == "" {
				continue
			}
			if _, taken := d.memberTeam[username]; taken {
				continue
			}
			d.memberTeam[username] = team
			d.teams[team] = append(d.teams[team], username)
		}
		sort.Strings(d.teams[team])
	}

	return d
}

// TeamOf returns the team for a username. The second return is false when
// the username is not in the catalog.
func (d *Directory) TeamOf(username string) (string, bool) {
	if d == nil {
		return "", false
	}
	team, ok := d.memberTeam[normalize(username)]
	return team, ok
}

// Teams returns all team names in sorted order.
func (d *Directory) Teams() []string {
	if d == nil {
		return nil
	}

	names := make([]string, 0, len(d.teams))
	for team := range d.teams {
		names = append(names, team)
	}
	sort.Strings(names)

	return names
}

// Members returns the normalized usernames of a team in sorted order.
func (d *Directory) Members(team string) []string {
	if d == nil {
		return nil
	}
	return d.teams[team]
}

// Len is the number of usernames in the catalog.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.memberTeam)
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
