package youtube

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	yt "google.golang.org/api/youtube/v3"

	"github.com/mpopa/adscout/internal/ads"
)

func TestParseISODuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"PT30S", 30},
		{"PT1M30S", 90},
		{"PT1H2M3S", 3723},
		{"PT2H", 7200},
		{"PT0S", 0},
		{"P1D", 0},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseISODuration(tt.in), "input %q", tt.in)
	}
}

func TestMapErrorQuotaRejection(t *testing.T) {
	t.Parallel()

	err := mapError(&googleapi.Error{
		Code: 403,
		Errors: []googleapi.ErrorItem{
			{Reason: "quotaExceeded", Message: "quota exceeded"},
		},
	})
	require.ErrorIs(t, err, ads.ErrQuotaExceeded)
}

func TestMapErrorTooManyRequests(t *testing.T) {
	t.Parallel()

	err := mapError(&googleapi.Error{Code: 429})
	require.ErrorIs(t, err, ads.ErrQuotaExceeded)
}

func TestMapErrorOtherForbiddenIsNotQuota(t *testing.T) {
	t.Parallel()

	err := mapError(&googleapi.Error{
		Code: 403,
		Errors: []googleapi.ErrorItem{
			{Reason: "forbidden", Message: "access denied"},
		},
	})
	require.Error(t, err)
	require.False(t, errors.Is(err, ads.ErrQuotaExceeded))
}

func TestMapErrorPlainError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")
	err := mapError(plain)
	require.ErrorIs(t, err, plain)
	require.False(t, errors.Is(err, ads.ErrQuotaExceeded))
}

func TestThumbnailURLFallback(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", thumbnailURL(nil))
	require.Equal(t, "m", thumbnailURL(&yt.ThumbnailDetails{
		Medium:  &yt.Thumbnail{Url: "m"},
		Default: &yt.Thumbnail{Url: "d"},
	}))
	require.Equal(t, "h", thumbnailURL(&yt.ThumbnailDetails{
		High:    &yt.Thumbnail{Url: "h"},
		Default: &yt.Thumbnail{Url: "d"},
	}))
	require.Equal(t, "d", thumbnailURL(&yt.ThumbnailDetails{
		Default: &yt.Thumbnail{Url: "d"},
	}))
}
