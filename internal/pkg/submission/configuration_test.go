package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendhack/dashboard/app/models"
)

func TestPeriod(t *testing.T) {
	tests := []struct {
		value int
		unit  string
		want  string
	}{
		{30, "dias", "30 days"},
		{2, "Semanas", "2 weeks"},
		{6, "meses", "6 months"},
		{1, "anos", "1 years"},
		{3, "months", "3 months"},
		{7, "quinzenas", "7 days"},
		{0, "dias", "30 days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Period(tt.value, tt.unit))
	}
}

func TestBuildConfigurationInstagramURL(t *testing.T) {
	cfg := BuildConfiguration(models.PlatformInstagram, models.ToolTypeURL, nil, 10, "https://www.instagram.com/p/abc/")
	assert.Equal(t, []string{"https://www.instagram.com/p/abc/"}, cfg["directUrls"])
	assert.Equal(t, 1, cfg["resultsLimit"])
	assert.Equal(t, "stories", cfg["resultsType"])
	assert.Equal(t, "3 years", cfg["onlyPostsNewerThan"])
}

func TestBuildConfigurationTikTokPage(t *testing.T) {
	cfg := BuildConfiguration(models.PlatformTikTok, models.ToolTypePage, []string{"alice", "bob"}, 12, "")
	assert.Equal(t, []string{"alice", "bob"}, cfg["profiles"])
	assert.Equal(t, 12, cfg["resultsPerPage"])
	assert.Equal(t, []string{"videos"}, cfg["profileScrapeSections"])
	assert.Equal(t, true, cfg["excludePinnedPosts"])
	assert.Equal(t, 1000, cfg["maxProfilesPerQuery"])
	assert.Equal(t, "None", cfg["proxyCountryCode"])
}

func TestBuildConfigurationUnknownPlatform(t *testing.T) {
	assert.Equal(t, models.JSONMap{}, BuildConfiguration("youtube", models.ToolTypePage, []string{"a"}, 1, ""))
}
