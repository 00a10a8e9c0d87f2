package source

import (
	"context"
	"strings"

	"jobradar/internal/radar"
)

// atsRoute pairs a career-URL recognizer with the connector serving
// matching hosts. The recognizer returns the delegate target, with the
// board token filled in for the token-based APIs.
type atsRoute struct {
	match func(company, careerURL string) (radar.Target, bool)
	conn  radar.Connector
}

// newATSRoutes builds the ordered dispatch table. Order matters: the
// first matching route wins, and the token-based APIs are preferred
// over page scrapers.
func newATSRoutes(d Deps) []atsRoute {
	tokenRoute := func(conn radar.Connector, extract func(string) string) atsRoute {
		return atsRoute{
			match: func(company, careerURL string) (radar.Target, bool) {
				token := extract(careerURL)
				if token == "" {
					return radar.Target{}, false
				}
				return radar.Target{Source: conn.Source(), Company: company, Token: token, URL: careerURL}, true
			},
			conn: conn,
		}
	}
	hostRoute := func(conn radar.Connector, hostFragment string) atsRoute {
		return atsRoute{
			match: func(company, careerURL string) (radar.Target, bool) {
				if !strings.Contains(hostOf(careerURL), hostFragment) {
					return radar.Target{}, false
				}
				return radar.Target{Source: conn.Source(), Company: company, URL: careerURL}, true
			},
			conn: conn,
		}
	}

	return []atsRoute{
		tokenRoute(NewGreenhouse(d), greenhouseBoardToken),
		tokenRoute(NewLever(d), leverToken),
		tokenRoute(NewSmartRecruiters(d), smartRecruitersToken),
		tokenRoute(NewAshby(d), ashbyToken),
		hostRoute(NewWorkday(d), "myworkdayjobs.com"),
		hostRoute(NewICIMS(d), "icims.com"),
		hostRoute(NewJobvite(d), "jobvite.com"),
		hostRoute(NewBambooHR(d), "bamboohr.com"),
		hostRoute(NewWorkable(d), "workable.com"),
	}
}

// dispatchKnownATS routes a career URL to the connector for its ATS,
// if any. The second return reports whether a route matched at all so
// callers can fall back to page scraping on a miss.
func dispatchKnownATS(ctx context.Context, routes []atsRoute, company, careerURL string) ([]radar.Posting, bool, error) {
	for _, route := range routes {
		target, ok := route.match(company, careerURL)
		if !ok {
			continue
		}
		postings, err := route.conn.Fetch(ctx, target)
		return relabelCompany(postings, company), true, err
	}
	return nil, false, nil
}

// relabelCompany stamps the mapping's company name onto postings that
// a delegate connector labeled with its board token.
func relabelCompany(postings []radar.Posting, company string) []radar.Posting {
	if company == "" {
		return postings
	}
	for i := range postings {
		postings[i].Company = company
	}
	return postings
}

func greenhouseBoardToken(careerURL string) string {
	if !strings.Contains(hostOf(careerURL), "greenhouse.io") {
		return ""
	}
	parts := pathParts(careerURL)
	if len(parts) == 0 {
		return ""
	}
	if (parts[0] == "boards" || parts[0] == "job-boards") && len(parts) >= 2 {
		return parts[1]
	}
	return parts[0]
}

func leverToken(careerURL string) string {
	host := hostOf(careerURL)
	if !strings.Contains(host, "lever.co") {
		return ""
	}
	parts := pathParts(careerURL)
	if len(parts) == 0 {
		return ""
	}
	if strings.HasPrefix(host, "jobs.") || strings.HasSuffix(host, ".lever.co") {
		return parts[0]
	}
	return ""
}

func smartRecruitersToken(careerURL string) string {
	host := hostOf(careerURL)
	if !strings.Contains(host, "smartrecruiters.com") {
		return ""
	}
	parts := pathParts(careerURL)
	if strings.HasPrefix(host, "jobs.") && len(parts) > 0 {
		return parts[0]
	}
	for i, p := range parts {
		if p == "companies" && len(parts) > i+1 {
			return parts[i+1]
		}
	}
	return ""
}

func ashbyToken(careerURL string) string {
	if !strings.Contains(hostOf(careerURL), "ashbyhq.com") {
		return ""
	}
	parts := pathParts(careerURL)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
