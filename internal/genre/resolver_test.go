package genre

import (
	"context"
	"errors"
	"testing"
)

// fakeSource is a scripted ArtistSource.
type fakeSource struct {
	detailGenres []string
	detailErr    error
	detailCalls  int

	searchGenres []string
	searchErr    error
	searchCalls  int
}

func (f *fakeSource) ArtistGenres(_ context.Context, _ string) ([]string, error) {
	f.detailCalls++
	return f.detailGenres, f.detailErr
}

func (f *fakeSource) SearchArtistGenres(_ context.Context, _ string) ([]string, error) {
	f.searchCalls++
	return f.searchGenres, f.searchErr
}

// fakeModel is a scripted Model.
type fakeModel struct {
	completion string
	err        error
	calls      int
}

func (f *fakeModel) GuessGenre(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.completion, f.err
}

func TestResolve_Tiers(t *testing.T) {
	tests := []struct {
		name       string
		artistID   string
		source     *fakeSource
		model      *fakeModel
		want       string
		wantDetail int
		wantSearch int
		wantModel  int
	}{
		{
			name:       "artist detail wins",
			artistID:   "id1",
			source:     &fakeSource{detailGenres: []string{"indie", "rock"}},
			model:      &fakeModel{completion: "Jazz"},
			want:       "indie",
			wantDetail: 1,
			wantSearch: 0,
			wantModel:  0,
		},
		{
			name:       "no artist id skips detail",
			source:     &fakeSource{searchGenres: []string{"soul"}},
			model:      &fakeModel{completion: "Jazz"},
			want:       "soul",
			wantDetail: 0,
			wantSearch: 1,
			wantModel:  0,
		},
		{
			name:       "empty detail falls through to search",
			artistID:   "id1",
			source:     &fakeSource{searchGenres: []string{"techno"}},
			model:      &fakeModel{completion: "Jazz"},
			want:       "techno",
			wantDetail: 1,
			wantSearch: 1,
			wantModel:  0,
		},
		{
			name:       "detail error absorbed, search wins",
			artistID:   "id1",
			source:     &fakeSource{detailErr: errors.New("boom"), searchGenres: []string{"folk"}},
			model:      &fakeModel{completion: "Jazz"},
			want:       "folk",
			wantDetail: 1,
			wantSearch: 1,
			wantModel:  0,
		},
		{
			name:       "provider empty falls to model",
			artistID:   "id1",
			source:     &fakeSource{},
			model:      &fakeModel{completion: "Jazz"},
			want:       "Jazz",
			wantDetail: 1,
			wantSearch: 1,
			wantModel:  1,
		},
		{
			name:       "chatty completion reduced to first token",
			source:     &fakeSource{},
			model:      &fakeModel{completion: "Pop rock music is great"},
			want:       "Pop",
			wantSearch: 1,
			wantModel:  1,
		},
		{
			name:       "completion with no alphabetic token",
			source:     &fakeSource{},
			model:      &fakeModel{completion: "42?!"},
			want:       Unknown,
			wantSearch: 1,
			wantModel:  1,
		},
		{
			name:       "model error degrades to Unknown",
			source:     &fakeSource{},
			model:      &fakeModel{err: errors.New("rate limited")},
			want:       Unknown,
			wantSearch: 1,
			wantModel:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(NewCache(), tt.source, tt.model)

			got := r.Resolve(context.Background(), "ArtistX", tt.artistID)
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}

			if tt.source.detailCalls != tt.wantDetail {
				t.Errorf("detail calls = %d, want %d", tt.source.detailCalls, tt.wantDetail)
			}
			if tt.source.searchCalls != tt.wantSearch {
				t.Errorf("search calls = %d, want %d", tt.source.searchCalls, tt.wantSearch)
			}
			if tt.model.calls != tt.wantModel {
				t.Errorf("model calls = %d, want %d", tt.model.calls, tt.wantModel)
			}
		})
	}
}

func TestResolve_CachesResult(t *testing.T) {
	source := &fakeSource{}
	model := &fakeModel{completion: "Jazz"}
	r := NewResolver(NewCache(), source, model)

	first := r.Resolve(context.Background(), "ArtistX", "")
	second := r.Resolve(context.Background(), "ArtistX", "")

	if first != "Jazz" || second != "Jazz" {
		t.Errorf("Resolve() = %q then %q, want %q both times", first, second, "Jazz")
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1 (second resolve is a cache hit)", model.calls)
	}
	if source.searchCalls != 1 {
		t.Errorf("search calls = %d, want 1", source.searchCalls)
	}
}

func TestResolve_CachesUnknown(t *testing.T) {
	// A failed resolution is cached too: the process never retries a
	// provider lookup that already came up empty.
	source := &fakeSource{searchErr: errors.New("offline")}
	r := NewResolver(NewCache(), source, nil)

	if got := r.Resolve(context.Background(), "ArtistX", ""); got != Unknown {
		t.Fatalf("Resolve() = %q, want %q", got, Unknown)
	}
	if got := r.Resolve(context.Background(), "ArtistX", ""); got != Unknown {
		t.Fatalf("second Resolve() = %q, want %q", got, Unknown)
	}
	if source.searchCalls != 1 {
		t.Errorf("search calls = %d, want 1", source.searchCalls)
	}
}

func TestResolve_NilModelSkipsTier(t *testing.T) {
	source := &fakeSource{}
	r := NewResolver(NewCache(), source, nil)

	if got := r.Resolve(context.Background(), "ArtistX", "id1"); got != Unknown {
		t.Errorf("Resolve() = %q, want %q with no model configured", got, Unknown)
	}
}

func TestExtractLabel(t *testing.T) {
	tests := []struct {
		completion string
		want       string
	}{
		{"Pop rock music is great", "Pop"},
		{"  jazz", "jazz"},
		{"hip-hop", "hip-hop"},
		{"1990s shoegaze", "s"},
		{"42?!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := extractLabel(tt.completion); got != tt.want {
			t.Errorf("extractLabel(%q) = %q, want %q", tt.completion, got, tt.want)
		}
	}
}
