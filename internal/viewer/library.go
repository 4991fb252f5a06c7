package viewer

import (
	"sort"
	"strings"
	"time"

	"doggodiary/internal/models"
)

// Filter narrows a post list. Zero values mean "no constraint" for
// their dimension; Tags requires every named tag to be present.
type Filter struct {
	Year  int
	Month time.Month
	Tags  []string
	Query string
}

// FilterPosts applies all filter dimensions conjunctively without
// mutating the input.
func FilterPosts(posts []models.Post, f Filter) []models.Post {
	var out []models.Post
	query := strings.ToLower(strings.TrimSpace(f.Query))
	for _, p := range posts {
		if f.Year != 0 && p.CreatedAt.Year() != f.Year {
			continue
		}
		if f.Month != 0 && p.CreatedAt.Month() != f.Month {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		if !hasAllTags(&p, f.Tags) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AllTags returns the unique tag names across the posts, sorted.
func AllTags(posts []models.Post) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range posts {
		for _, t := range p.Tags {
			if t.Name == "" || seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			out = append(out, t.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Years returns the distinct years with posts, newest first.
func Years(posts []models.Post) []int {
	seen := map[int]bool{}
	var out []int
	for _, p := range posts {
		y := p.CreatedAt.Year()
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// LatestDate returns the year and month of the newest post, or zero
// values on an empty list.
func LatestDate(posts []models.Post) (int, time.Month) {
	var latest time.Time
	for _, p := range posts {
		if p.CreatedAt.After(latest) {
			latest = p.CreatedAt
		}
	}
	if latest.IsZero() {
		return 0, 0
	}
	return latest.Year(), latest.Month()
}

// MonthHistogram counts posts per month within a year.
func MonthHistogram(posts []models.Post, year int) map[time.Month]int {
	out := map[time.Month]int{}
	for _, p := range posts {
		if p.CreatedAt.Year() == year {
			out[p.CreatedAt.Month()]++
		}
	}
	return out
}

func hasAllTags(p *models.Post, tags []string) bool {
	for _, want := range tags {
		found := false
		for _, t := range p.Tags {
			if strings.EqualFold(t.Name, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
