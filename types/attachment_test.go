package types

import "testing"

func TestUploadAttachment_Validate(t *testing.T) {
	tt := []struct {
		name    string
		in      UploadAttachment
		wantErr bool
	}{
		{
			name: "small_image",
			in:   UploadAttachment{Name: "pic.png", ContentType: "image/png", Size: 1 << 20},
		},
		{
			name: "image_at_limit",
			in:   UploadAttachment{Name: "pic.jpg", ContentType: "image/jpeg", Size: 5 << 20},
		},
		{
			name:    "image_over_limit",
			in:      UploadAttachment{Name: "pic.jpg", ContentType: "image/jpeg", Size: 5<<20 + 1},
			wantErr: true,
		},
		{
			name: "pdf_under_limit",
			in:   UploadAttachment{Name: "doc.pdf", ContentType: "application/pdf", Size: 9 << 20},
		},
		{
			name:    "pdf_over_limit",
			in:      UploadAttachment{Name: "doc.pdf", ContentType: "application/pdf", Size: 10<<20 + 1},
			wantErr: true,
		},
		{
			name:    "disallowed_type",
			in:      UploadAttachment{Name: "app.exe", ContentType: "application/x-msdownload", Size: 10},
			wantErr: true,
		},
		{
			name:    "missing_name",
			in:      UploadAttachment{ContentType: "image/png", Size: 10},
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
