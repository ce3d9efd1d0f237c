package scraper

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/match"
)

// Class selectors of the live-results markup
const (
	selLiveSection  = "div.Lives__section"
	selCompetition  = "div.Lives__compet"
	selCompetTitle  = "span.Lives__competTitle"
	selTitle        = "h3.Lives__title"
	selLevel        = "span.Lives__competNiveau"
	selFinished     = "div.TeamScore.is-over"
	selGoalsHome    = "div.TeamScore__goalList.is-home"
	selGoalsAway    = "div.TeamScore__goalList.is-away"
	selGoal         = "div.TeamScore__goal"
	selTeamHome     = "div.MatchScore__team.MatchScore__home"
	selTeamAway     = "div.MatchScore__team.MatchScore__away"
	selTeamName     = "div.MatchScore__teamName"
	selLogoHome     = "div.MatchScore__logo--home"
	selLogoAway     = "div.MatchScore__logo--away"
	selScoreResult  = "div.MatchScore__result"
	selScore        = "div.MatchScore__score"
	protocolRelPref = "//"
)

// word is a Unicode-aware \w
const word = `[\p{L}\p{N}_]`

var (
	// "(csc)", "(pen)"
	goalTypePattern = regexp.MustCompile(`\((` + word + `+)\)`)
	// "K. Mbappé"
	scorerPattern = regexp.MustCompile(word + `+\. ` + word + `+`)
	// "45’", "90' +3"
	goalTimePattern = regexp.MustCompile(`\d+['’](?: \+\d+)?`)
	// leading run of letter words: "Paris-SG (1)" -> "Paris-SG"
	teamNamePattern = regexp.MustCompile(`\p{L}+(?:[^\p{L}\p{N}_]\p{L}+)*`)
	// "Ligue 1, 3e journée"
	levelPattern = regexp.MustCompile(`(?:` + word + `+,?\s?)+`)

	digitsPattern = regexp.MustCompile(`\d+`)
)

// Extractor turns a raw results page into match records of one sport.
type Extractor struct {
	sport string
}

// NewExtractor creates an extractor tagging every record with sport.
func NewExtractor(sport string) *Extractor {
	return &Extractor{sport: sport}
}

// Sport returns the sport tag of extracted records.
func (e *Extractor) Sport() string {
	return e.sport
}

// Extract returns the finished matches found on the page of day, in page
// order. A page without the expected structure yields an empty list. Matches
// missing a required element are skipped individually.
func (e *Extractor) Extract(day dates.Key, page []byte) ([]match.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing page of %s", day)
	}

	records := make([]match.Record, 0)
	doc.Find(selLiveSection).Each(func(_ int, live *goquery.Selection) {
		live.Find(selCompetition).Each(func(_ int, compet *goquery.Selection) {
			compet.Find(selCompetTitle).Each(func(_ int, title *goquery.Selection) {
				name := title.Find(selTitle).First()
				level := title.Find(selLevel).First()
				if name.Length() == 0 || level.Length() == 0 {
					return
				}
				ref := match.CompetitionRef{
					Name:  strings.TrimSpace(name.Text()),
					Level: normalizeLevel(level.Text()),
				}

				compet.Find(selFinished).Each(func(_ int, ts *goquery.Selection) {
					if rec, ok := e.extractMatch(ts); ok {
						rec.Date = day
						rec.Competition = ref
						records = append(records, rec)
					}
				})
			})
		})
	})
	return records, nil
}

// extractMatch reads both sides of one finished match. ok is false when a
// goal list, team name or logo element is missing.
func (e *Extractor) extractMatch(ts *goquery.Selection) (match.Record, bool) {
	homeGoals, ok := goalList(ts, selGoalsHome)
	if !ok {
		return match.Record{}, false
	}
	awayGoals, ok := goalList(ts, selGoalsAway)
	if !ok {
		return match.Record{}, false
	}

	homeName, ok := teamName(ts, selTeamHome)
	if !ok {
		return match.Record{}, false
	}
	awayName, ok := teamName(ts, selTeamAway)
	if !ok {
		return match.Record{}, false
	}

	homeLogo, ok := logoURL(ts, selLogoHome)
	if !ok {
		return match.Record{}, false
	}
	awayLogo, ok := logoURL(ts, selLogoAway)
	if !ok {
		return match.Record{}, false
	}

	scores := extractScores(ts)

	// Ranks are shown next to both names or not at all
	var homeRank, awayRank *int
	if strings.Contains(homeName, "(") {
		homeRank = firstInt(homeName)
		awayRank = firstInt(awayName)
	}

	return match.Record{
		Sport: e.sport,
		Teams: [2]match.TeamSide{
			{Name: shortName(homeName), Logo: homeLogo, Score: scoreAt(scores, 0), Rank: homeRank, Goals: homeGoals},
			{Name: shortName(awayName), Logo: awayLogo, Score: scoreAt(scores, 1), Rank: awayRank, Goals: awayGoals},
		},
	}, true
}

func goalList(ts *goquery.Selection, sel string) ([]match.Goal, bool) {
	list := ts.Find(sel).First()
	if list.Length() == 0 {
		return nil, false
	}
	goals := make([]match.Goal, 0)
	list.Find(selGoal).Each(func(_ int, g *goquery.Selection) {
		if goal, ok := parseGoal(g.Text()); ok {
			goals = append(goals, goal)
		}
	})
	return goals, true
}

// parseGoal runs the three goal patterns independently over one goal label.
// A goal without a recognizable scorer is dropped.
func parseGoal(text string) (match.Goal, bool) {
	scorer := scorerPattern.FindString(text)
	if scorer == "" {
		return match.Goal{}, false
	}
	goal := match.Goal{Scorer: &scorer}
	if m := goalTypePattern.FindStringSubmatch(text); m != nil {
		goal.Type = &m[1]
	}
	if t := goalTimePattern.FindString(text); t != "" {
		goal.Time = &t
	}
	return goal, true
}

// teamName returns the display name of one side with whitespace runs
// collapsed to single spaces.
func teamName(ts *goquery.Selection, sel string) (string, bool) {
	team := ts.Find(sel).First()
	if team.Length() == 0 {
		return "", false
	}
	name := team.Find(selTeamName).First()
	if name.Length() == 0 {
		return "", false
	}
	return collapseSpaces(name.Text()), true
}

// logoURL returns the image source of a logo block, upgraded to https when
// protocol-relative.
func logoURL(ts *goquery.Selection, sel string) (string, bool) {
	img := ts.Find(sel).First().Find("img").First()
	src, ok := img.Attr("src")
	if !ok {
		return "", false
	}
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, protocolRelPref) {
		src = "https://" + strings.TrimPrefix(src, protocolRelPref)
	}
	return src, true
}

// extractScores reads every score label of the match in page order.
func extractScores(ts *goquery.Selection) []*int {
	var scores []*int
	ts.Find(selScoreResult).Each(func(_ int, result *goquery.Selection) {
		result.Find(selScore).Each(func(_ int, s *goquery.Selection) {
			scores = append(scores, firstInt(collapseSpaces(s.Text())))
		})
	})
	return scores
}

func scoreAt(scores []*int, i int) *int {
	if i >= len(scores) {
		return nil
	}
	return scores[i]
}

func firstInt(s string) *int {
	m := digitsPattern.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// shortName drops everything after the leading run of words, such as a
// "(3)" ranking annotation.
func shortName(name string) string {
	if m := teamNamePattern.FindString(name); m != "" {
		return m
	}
	return name
}

func normalizeLevel(raw string) string {
	if m := strings.TrimSpace(levelPattern.FindString(raw)); m != "" {
		return m
	}
	return strings.TrimSpace(raw)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
