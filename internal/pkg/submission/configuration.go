package submission

import (
	"fmt"
	"strings"

	"github.com/trendhack/dashboard/app/models"
)

// DefaultPeriodValue is used when the form sends no period.
const DefaultPeriodValue = 30

var periodUnits = map[string]string{
	"dias":    "days",
	"semanas": "weeks",
	"meses":   "months",
	"anos":    "years",
	"days":    "days",
	"weeks":   "weeks",
	"months":  "months",
	"years":   "years",
}

// Period renders the scraper's lookback window, e.g. "30 days".
func Period(value int, unit string) string {
	if value <= 0 {
		value = DefaultPeriodValue
	}
	u, ok := periodUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		u = "days"
	}
	return fmt.Sprintf("%d %s", value, u)
}

// BuildConfiguration produces the scraper input for a platform and tool type.
func BuildConfiguration(platform string, kind models.ToolType, usernames []string, expectedResults int, url string) models.JSONMap {
	url = strings.TrimSpace(url)

	switch platform {
	case models.PlatformInstagram:
		directURLs := []string{}
		resultsLimit := 1
		if kind == models.ToolTypeURL {
			directURLs = append(directURLs, url)
		} else {
			for _, u := range usernames {
				directURLs = append(directURLs, fmt.Sprintf("https://www.instagram.com/%s/", u))
			}
			resultsLimit = expectedResults
		}
		return models.JSONMap{
			"directUrls":                        directURLs,
			"resultsType":                       "stories",
			"resultsLimit":                      resultsLimit,
			"searchLimit":                       1,
			"addParentData":                     false,
			"isUserReelFeedURL":                 false,
			"onlyPostsNewerThan":                "3 years",
			"isUserTaggedFeedURL":               false,
			"enhanceUserSearchWithFacebookPage": false,
		}

	case models.PlatformTikTok:
		if kind == models.ToolTypeURL {
			return models.JSONMap{"postURLs": []string{url}}
		}
		profiles := append([]string{}, usernames...)
		return models.JSONMap{
			"profiles":                      profiles,
			"resultsPerPage":                expectedResults,
			"excludePinnedPosts":            true,
			"shouldDownloadCovers":          true,
			"shouldDownloadVideos":          true,
			"shouldDownloadAvatars":         true,
			"shouldDownloadSubtitles":       true,
			"shouldDownloadSlideshowImages": true,
			"shouldDownloadMusicCovers":     true,
			"profileScrapeSections":         []string{"videos"},
			"profileSorting":                "latest",
			"searchSection":                 "",
			"maxProfilesPerQuery":           1000,
			"proxyCountryCode":              "None",
		}
	}
	return models.JSONMap{}
}
