package validation

import (
	"testing"
	"time"

	"showcase/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"Valid", "vorkeppni-2026", false},
		{"Digits", "2026", false},
		{"Too Short", "ab", true},
		{"Uppercase", "Spring", true},
		{"Leading Hyphen", "-spring", true},
		{"Double Hyphen", "spring--2026", true},
		{"Reserved", "active-or-recent", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsWebURL(t *testing.T) {
	t.Parallel()
	assert.True(t, isWebURL("https://github.com/acme/widget"))
	assert.True(t, isWebURL("example.is"))
	assert.False(t, isWebURL(""))
	assert.False(t, isWebURL("ftp://example.is"))
	assert.False(t, isWebURL("http://"))
	assert.False(t, isWebURL("not a url"))
}

func TestStruct_CreateProject(t *testing.T) {
	t.Parallel()
	tag := uuid.New()

	require.NoError(t, Struct(CreateProjectRequest{WebsiteURL: "example.is", TagIDs: []uuid.UUID{tag}}))

	err := Struct(CreateProjectRequest{})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "website_url is required")

	err = Struct(CreateProjectRequest{WebsiteURL: "example.is", TagIDs: []uuid.UUID{tag, tag}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag_ids must not contain duplicates")

	err = Struct(CreateProjectRequest{WebsiteURL: "example.is", GithubURL: "github"})
	assert.Contains(t, err.Error(), "github_url must be a valid URL")
}

func TestStruct_Requests(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	featured := false
	badURL, goodURL, cleared := "github", "https://github.com/showcase/app", ""

	tests := []struct {
		name    string
		req     any
		wantErr string
	}{
		{"upload ok", UploadURLRequest{Filename: "a.png", ContentType: "image/png", FileSize: 10}, ""},
		{"upload empty file", UploadURLRequest{Filename: "a.png", ContentType: "image/png"}, "file_size must be greater than 0"},
		{"main image missing", SetMainImageRequest{}, "image_id is required"},
		{"suggest bad color", SuggestTagRequest{Name: "Go", Color: "blue", CategoryID: uuid.New()}, "color must be a hex color"},
		{"suggest ok", SuggestTagRequest{Name: "Go", Color: "#00add8", CategoryID: uuid.New()}, ""},
		{"competition dates", CompetitionRequest{Name: "X", StartDate: start, EndDate: start.AddDate(0, 0, -1)}, "end_date must not be before StartDate"},
		{"competition status", CompetitionRequest{Name: "X", StartDate: start, EndDate: start, Status: "open"}, "status must be one of: pending, accepting_applications, closed"},
		{"competition slug", CompetitionRequest{Name: "X", Slug: "Bad Slug", StartDate: start, EndDate: start}, "slug must be a lowercase slug"},
		{"feature flag present", FeatureProjectRequest{Featured: &featured}, ""},
		{"feature flag missing", FeatureProjectRequest{}, "featured is required"},
		{"review status", ReviewStatusRequest{Status: "done"}, "status must be one of"},
		{"rankings empty ok", RankingsRequest{}, ""},
		{"reject needs reason", RejectProjectRequest{}, "reason is required"},
		{"update bad github url", UpdateProjectRequest{WebsiteURL: "example.is", GithubURL: &badURL}, "github_url must be a valid URL"},
		{"update bad demo url", UpdateProjectRequest{WebsiteURL: "example.is", DemoURL: &badURL}, "demo_url must be a valid URL"},
		{"update urls ok", UpdateProjectRequest{WebsiteURL: "example.is", GithubURL: &goodURL, DemoURL: &cleared}, ""},
		{"register kennitala", RegisterUserRequest{Email: "a@example.is", Kennitala: "123"}, "kennitala must be 10 digits"},
		{"register email", RegisterUserRequest{Email: "nope"}, "email failed email validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
