package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestInvalidURLError_Error(t *testing.T) {
	err := &InvalidURLError{URL: "ftp://x", Reason: "scheme must be http or https"}

	expected := `invalid url "ftp://x": scheme must be http or https`
	if err.Error() != expected {
		t.Errorf("InvalidURLError.Error() = %v, want %v", err.Error(), expected)
	}
}

func TestFetchError_Error(t *testing.T) {
	withStatus := &FetchError{URL: "https://example.com", StatusCode: 404}
	if withStatus.Error() != "fetch https://example.com: upstream status 404" {
		t.Errorf("FetchError.Error() = %v", withStatus.Error())
	}

	cause := errors.New("connection reset")
	withCause := &FetchError{URL: "https://example.com", Cause: cause}
	if withCause.Error() != "fetch https://example.com: connection reset" {
		t.Errorf("FetchError.Error() = %v", withCause.Error())
	}
	if !errors.Is(withCause, cause) {
		t.Error("FetchError should unwrap to its cause")
	}
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid url", &InvalidURLError{URL: "x"}, IsInvalidURL},
		{"security", &SecurityRejectedError{Host: "127.0.0.1"}, IsSecurityRejected},
		{"fetch", &FetchError{StatusCode: 500}, IsFetch},
		{"too large", &TooLargeError{Limit: 10}, IsTooLarge},
		{"content type", &UnsupportedContentTypeError{ContentType: "image/png"}, IsUnsupportedContentType},
		{"timeout", &TimeoutError{Operation: "parse", Budget: time.Second}, IsTimeout},
		{"overloaded", &OverloadedError{Domain: "example.com"}, IsOverloaded},
		{"not found", &NotFoundError{Resource: "entry"}, IsNotFound},
		{"validation", &ValidationError{Field: "url"}, IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("classifier should match %T", tt.err)
			}
			if !tt.check(fmt.Errorf("wrapped: %w", tt.err)) {
				t.Errorf("classifier should match wrapped %T", tt.err)
			}
			if tt.check(errors.New("some other error")) {
				t.Error("classifier should not match a plain error")
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	err := WrapError(&FetchError{URL: "u", StatusCode: 503}, "parse")
	if StatusCode(err) != 503 {
		t.Errorf("StatusCode() = %d, want 503", StatusCode(err))
	}
	if StatusCode(errors.New("x")) != 0 {
		t.Error("StatusCode() should be 0 for non-fetch errors")
	}
}

func TestMediaClass(t *testing.T) {
	tests := map[string]string{
		"image/png":                     MediaImage,
		"IMAGE/SVG+XML":                 MediaImage,
		"audio/mpeg":                    MediaAudio,
		"application/ogg":               MediaAudio,
		"video/mp4":                     MediaVideo,
		"application/vnd.apple.mpegurl": MediaVideo,
		"application/pdf":               MediaPDF,
		"application/zip":               MediaOther,
		"":                              MediaOther,
	}
	for contentType, want := range tests {
		if got := MediaClass(contentType); got != want {
			t.Errorf("MediaClass(%q) = %q, want %q", contentType, got, want)
		}
	}
}

func TestMediaTypeOf(t *testing.T) {
	err := WrapError(NewUnsupportedContentTypeError("https://example.com/a.mp4", "video/mp4"), "fetch")
	if got := MediaTypeOf(err); got != MediaVideo {
		t.Errorf("MediaTypeOf() = %q, want %q", got, MediaVideo)
	}
	if got := MediaTypeOf(&UnsupportedContentTypeError{ContentType: "application/pdf"}); got != MediaPDF {
		t.Errorf("MediaTypeOf() without class = %q, want %q", got, MediaPDF)
	}
	if got := MediaTypeOf(&FetchError{StatusCode: 404}); got != "" {
		t.Errorf("MediaTypeOf() = %q for a fetch error, want empty", got)
	}
}

func TestWrapError_PreservesOriginalError(t *testing.T) {
	originalErr := &SecurityRejectedError{Host: "10.0.0.1", Detail: "private address"}
	wrappedErr := WrapError(originalErr, "guard")

	if wrappedErr == nil {
		t.Fatal("WrapError should not return nil for non-nil error")
	}

	expectedMsg := "guard: url rejected for host 10.0.0.1: private address"
	if wrappedErr.Error() != expectedMsg {
		t.Errorf("WrapError message = %v, want %v", wrappedErr.Error(), expectedMsg)
	}

	if !IsSecurityRejected(wrappedErr) {
		t.Error("Wrapped error should still be identifiable as SecurityRejectedError")
	}
}

func TestWrapError_HandlesNilError(t *testing.T) {
	if WrapError(nil, "this should not happen") != nil {
		t.Error("WrapError should return nil when wrapping nil error")
	}
}
