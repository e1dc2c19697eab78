package validation

import "testing"

func TestValidateImageURL(t *testing.T) {
	validator := NewURLValidator()

	testCases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"Valid https URL", "https://storage.example.com/photos/leak.jpg", false},
		{"Valid http URL", "http://storage.example.com/photos/leak.jpg", false},
		{"Empty URL", "", true},
		{"Whitespace only", "   ", true},
		{"Disallowed scheme", "ftp://storage.example.com/leak.jpg", true},
		{"Missing scheme", "storage.example.com/leak.jpg", true},
		{"Missing host", "https:///photos/leak.jpg", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tc.url)
			if tc.wantErr && err == nil {
				t.Error("Expected an error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateImageURLHostAllowlist(t *testing.T) {
	validator := NewURLValidatorWithOptions(
		[]string{"https"},
		[]string{"photos.example.com"},
	)

	if err := validator.ValidateImageURL("https://photos.example.com/wall.jpg"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateImageURL("https://elsewhere.example.com/wall.jpg"); err == nil {
		t.Error("Expected disallowed host to fail")
	}
	if err := validator.ValidateImageURL("http://photos.example.com/wall.jpg"); err == nil {
		t.Error("Expected disallowed scheme to fail")
	}
}
