package types_test

import (
	"testing"

	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestFormat_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		format types.Format
		want   bool
	}{
		{
			name:   "valid pdf",
			format: types.FormatPDF,
			want:   true,
		},
		{
			name:   "valid json",
			format: types.FormatJSON,
			want:   true,
		},
		{
			name:   "valid email",
			format: types.FormatEmail,
			want:   true,
		},
		{
			name:   "unknown is not routable",
			format: types.FormatUnknown,
			want:   false,
		},
		{
			name:   "empty format",
			format: types.Format(""),
			want:   false,
		},
		{
			name:   "uppercase is not valid",
			format: types.Format("PDF"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				gt.B(t, tt.format.IsValid()).True()
			} else {
				gt.B(t, tt.format.IsValid()).False()
			}
		})
	}
}

func TestFormat_Normalize(t *testing.T) {
	gt.V(t, types.Format("PDF").Normalize()).Equal(types.FormatPDF)
	gt.V(t, types.Format(" Email ").Normalize()).Equal(types.FormatEmail)
	gt.V(t, types.Format("spreadsheet").Normalize()).Equal(types.FormatUnknown)
	gt.V(t, types.Format("").Normalize()).Equal(types.FormatUnknown)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Format
		wantErr bool
	}{
		{
			name:  "valid pdf",
			input: "pdf",
			want:  types.FormatPDF,
		},
		{
			name:  "mixed case json",
			input: "JSON",
			want:  types.FormatJSON,
		},
		{
			name:    "unknown is not parseable",
			input:   "unknown",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseFormat(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
				gt.V(t, got).Equal(tt.want)
			}
		})
	}
}

func TestAllFormats(t *testing.T) {
	formats := types.AllFormats()
	gt.A(t, formats).Length(3)

	for _, format := range formats {
		gt.B(t, format.IsValid()).
			Describef("Format %s should be valid", format).
			True()
	}
}
