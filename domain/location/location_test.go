package location

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNewInput_ValidatesCoordinates(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr error
	}{
		{"valid", 37.5665, 126.9780, nil},
		{"lat too high", 95, 0, ErrInvalidLatitude},
		{"lat too low", -90.01, 0, ErrInvalidLatitude},
		{"lon too high", 0, 181, ErrInvalidLongitude},
		{"lon too low", 0, -180.5, ErrInvalidLongitude},
		{"boundary lat", 90, 0, nil},
		{"boundary lon", 0, -180, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInput(tc.lat, tc.lon, nil, "")
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Cafe ", "PARK", "", "  ", "hanRiver"})
	want := []string{"cafe", "park", "hanriver"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}
}

func TestNewInput_TrimsDescription(t *testing.T) {
	input, err := NewInput(0, 0, nil, "  a quiet place  ")
	if err != nil {
		t.Fatal(err)
	}
	if input.Description() != "a quiet place" {
		t.Errorf("description = %q", input.Description())
	}
}

func TestEmbeddingText(t *testing.T) {
	cases := []struct {
		description string
		tags        []string
		want        string
	}{
		{"riverside cafe", []string{"cafe", "coffee"}, "riverside cafe cafe coffee"},
		{"", []string{"park"}, "park"},
		{"plain text", nil, "plain text"},
		{"", nil, "no description"},
		{"   ", []string{}, "no description"},
	}

	for _, tc := range cases {
		if got := EmbeddingText(tc.description, tc.tags); got != tc.want {
			t.Errorf("EmbeddingText(%q, %v) = %q, want %q", tc.description, tc.tags, got, tc.want)
		}
	}
}

func TestUpdate_Validate(t *testing.T) {
	bad := 95.0
	update := Update{Latitude: &bad}
	if err := update.Validate(); !errors.Is(err, ErrInvalidLatitude) {
		t.Errorf("got %v, want ErrInvalidLatitude", err)
	}

	ok := 45.0
	if err := (Update{Latitude: &ok}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUpdate_TouchesText(t *testing.T) {
	desc := "new"
	if !(Update{Description: &desc}).TouchesText() {
		t.Error("description update should touch text")
	}
	if !(Update{Tags: []string{"a"}}).TouchesText() {
		t.Error("tags update should touch text")
	}
	lat := 1.0
	if (Update{Latitude: &lat}).TouchesText() {
		t.Error("coordinate update should not touch text")
	}
}

func TestUpdate_Normalized(t *testing.T) {
	desc := "  spaced  "
	update := Update{Tags: []string{" A ", ""}, Description: &desc}

	norm := update.Normalized()
	if !reflect.DeepEqual(norm.Tags, []string{"a"}) {
		t.Errorf("tags = %v", norm.Tags)
	}
	if *norm.Description != "spaced" {
		t.Errorf("description = %q", *norm.Description)
	}
}

func TestLocation_EmbeddingID(t *testing.T) {
	id := int64(7)
	loc := NewLocation(1, 0, 0, nil, "", &id, time.Time{})

	got, ok := loc.EmbeddingID()
	if !ok || got != 7 {
		t.Fatalf("embedding id = %v, %v", got, ok)
	}

	bare := NewLocation(2, 0, 0, nil, "", nil, time.Time{})
	if _, ok := bare.EmbeddingID(); ok {
		t.Error("record without a reference must report ok=false")
	}
}
