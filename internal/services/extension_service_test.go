package services

import (
	"errors"
	"testing"
	"time"
)

func TestValidateExtensionRequest(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		params  ExtensionRequestParams
		wantErr error
	}{
		{
			name: "valid request",
			params: ExtensionRequestParams{
				TaskID:       "t1",
				RequesterID:  "u1",
				RequestedDue: due,
				Reason:       "waiting on the design review",
			},
		},
		{
			name: "empty reason",
			params: ExtensionRequestParams{
				TaskID:       "t1",
				RequesterID:  "u1",
				RequestedDue: due,
			},
			wantErr: ErrExtensionValidation,
		},
		{
			name: "whitespace reason",
			params: ExtensionRequestParams{
				TaskID:       "t1",
				RequesterID:  "u1",
				RequestedDue: due,
				Reason:       "   ",
			},
			wantErr: ErrExtensionValidation,
		},
		{
			name: "missing date",
			params: ExtensionRequestParams{
				TaskID:      "t1",
				RequesterID: "u1",
				Reason:      "waiting on the design review",
			},
			wantErr: ErrExtensionValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateExtensionRequest(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtensionRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
