package types

import (
	"strings"
	"testing"
)

func TestCreateMessage_Validate(t *testing.T) {
	tt := []struct {
		name    string
		in      CreateMessage
		wantErr bool
	}{
		{
			name: "plain_text",
			in:   CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: "hello"},
		},
		{
			name:    "missing_conversation",
			in:      CreateMessage{Content: "hello"},
			wantErr: true,
		},
		{
			name:    "empty_without_attachments",
			in:      CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: "   "},
			wantErr: true,
		},
		{
			name: "empty_with_attachments",
			in: CreateMessage{
				ConversationID: "9m4e2mr0ui3e8a215n4g",
				Type:           MessageTypeImage,
				Attachments:    []Attachment{{URL: "https://blob/x", Name: "x.png", ContentType: "image/png"}},
			},
		},
		{
			name:    "content_too_long",
			in:      CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: strings.Repeat("x", 2001)},
			wantErr: true,
		},
		{
			name: "content_at_limit",
			in:   CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: strings.Repeat("x", 2000)},
		},
		{
			name:    "system_type_rejected",
			in:      CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: "hello", Type: MessageTypeSystem},
			wantErr: true,
		},
		{
			name:    "unknown_type_rejected",
			in:      CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: "hello", Type: "video"},
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

func TestCreateMessage_Validate_DefaultsType(t *testing.T) {
	in := CreateMessage{ConversationID: "9m4e2mr0ui3e8a215n4g", Content: "hello"}
	if err := in.Validate(); err != nil {
		t.Fatal(err)
	}
	if in.Type != MessageTypeText {
		t.Errorf("got type %q, want %q", in.Type, MessageTypeText)
	}
}
